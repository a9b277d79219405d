package session_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-auth-session/credentials"
	"github.com/jrsteele09/go-auth-session/session"
	"github.com/jrsteele09/go-auth-session/storage"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*storage.KV, *credentials.Store) {
	t.Helper()
	kv := storage.New(storage.NewMemory())
	return kv, credentials.New(credentials.NewMemoryCookies(nil), kv)
}

func TestSeedsFromPersistedTokens(t *testing.T) {
	kv, creds := setup(t)
	require.NoError(t, kv.Set("ACCESS_TOKEN", "access-1"))
	require.NoError(t, kv.Set("REFRESH_TOKEN", "refresh-1"))

	s := session.New(creds)
	require.Equal(t, "access-1", s.AccessToken())
	require.Equal(t, "refresh-1", s.RefreshToken())
	require.False(t, s.IsAuthenticated())
	require.False(t, s.Hydrated())
}

func TestPersistsProjectionOnly(t *testing.T) {
	kv, creds := setup(t)
	s := session.New(creds)

	s.Begin()
	require.True(t, s.IsLoading())
	require.JSONEq(t, `{"accessToken":null,"isAuthenticated":false}`, kv.Get(session.StorageKey))

	s.Authenticate("access-2", "refresh-2")
	require.True(t, s.IsAuthenticated())
	require.False(t, s.IsLoading())
	require.JSONEq(t, `{"accessToken":"access-2","isAuthenticated":true}`, kv.Get(session.StorageKey))

	s.Unauthenticate("boom")
	st := s.GetState()
	require.False(t, st.IsAuthenticated)
	require.Empty(t, st.AccessToken)
	require.Empty(t, st.RefreshToken)
	require.Equal(t, "boom", s.Error())
	require.JSONEq(t, `{"accessToken":null,"isAuthenticated":false}`, kv.Get(session.StorageKey))
}

func TestHydrateRestoresProjection(t *testing.T) {
	kv, creds := setup(t)
	require.NoError(t, kv.Set("REFRESH_TOKEN", "refresh-1"))
	require.NoError(t, kv.Set(session.StorageKey, `{"accessToken":"access-9","isAuthenticated":true}`))

	s := session.New(creds)
	s.Hydrate()
	require.True(t, s.Hydrated())
	require.True(t, s.IsAuthenticated())
	require.Equal(t, "access-9", s.AccessToken())
	require.Equal(t, "refresh-1", s.RefreshToken())
}

func TestHydrateWithoutTokenIsUnauthenticated(t *testing.T) {
	kv, creds := setup(t)
	require.NoError(t, kv.Set(session.StorageKey, `{"accessToken":null,"isAuthenticated":true}`))

	s := session.New(creds)
	s.Hydrate()
	require.False(t, s.IsAuthenticated())
	require.Empty(t, s.AccessToken())
}

func TestFailAndDoneLeaveTokens(t *testing.T) {
	_, creds := setup(t)
	s := session.New(creds)
	s.Authenticate("access", "refresh")

	s.Begin()
	s.Fail("New passwords do not match")
	require.Equal(t, "access", s.AccessToken())
	require.Equal(t, "New passwords do not match", s.Error())

	s.Begin()
	require.Empty(t, s.Error())
	s.Done()
	require.False(t, s.IsLoading())
	require.True(t, s.IsAuthenticated())
}

func TestIsLoggedIn(t *testing.T) {
	_, creds := setup(t)
	s := session.New(creds)
	now := time.Now()
	require.False(t, s.IsLoggedIn(now))

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()}).SignedString([]byte("k"))
	require.NoError(t, err)
	s.Authenticate(raw, "refresh")
	require.True(t, s.IsLoggedIn(now))
	require.False(t, s.IsLoggedIn(now.Add(2*time.Hour)))
}
