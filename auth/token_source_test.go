package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-session/api"
	errs "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestTokenSource(t *testing.T) {
	t.Run("no session", func(t *testing.T) {
		f := setupTestFixture(t)

		_, err := f.service.TokenSource(context.Background()).Token()
		require.ErrorIs(t, err, errs.ErrUnauthenticated)
	})

	t.Run("valid token is returned as is", func(t *testing.T) {
		f := setupTestFixture(t)
		access := f.mint(t, time.Hour)
		f.signedIn(access)

		tok, err := f.service.TokenSource(context.Background()).Token()
		require.NoError(t, err)
		require.Equal(t, access, tok.AccessToken)
		require.Equal(t, "Bearer", tok.TokenType)
		require.Equal(t, testRefreshToken, tok.RefreshToken)
		require.WithinDuration(t, f.now.Add(time.Hour), tok.Expiry, 0)
		require.Zero(t, f.endpoints.refreshCalls.Load())
	})

	t.Run("expired token is refreshed first", func(t *testing.T) {
		f := setupTestFixture(t)
		f.session.Authenticate(f.mint(t, -time.Minute), testRefreshToken)
		next := f.mint(t, time.Hour)
		f.endpoints.refreshPair = api.TokenPair{AccessToken: next, RefreshToken: "refresh-2"}

		tok, err := f.service.TokenSource(context.Background()).Token()
		require.NoError(t, err)
		require.Equal(t, next, tok.AccessToken)
		require.Equal(t, "refresh-2", tok.RefreshToken)
		require.EqualValues(t, 1, f.endpoints.refreshCalls.Load())
	})

	t.Run("failed refresh", func(t *testing.T) {
		f := setupTestFixture(t)
		f.session.Authenticate(f.mint(t, -time.Minute), testRefreshToken)
		f.endpoints.refreshErr = &api.Error{Status: http.StatusUnauthorized, Message: "Invalid refresh token"}

		_, err := f.service.TokenSource(context.Background()).Token()
		require.ErrorIs(t, err, errs.ErrTokenExpired)
	})
}

func TestHTTPClientSendsBearer(t *testing.T) {
	f := setupTestFixture(t)
	access := f.mint(t, time.Hour)
	f.signedIn(access)

	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	resp, err := f.service.HTTPClient(context.Background()).Get(srv.URL)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, "Bearer "+access, got)
}
