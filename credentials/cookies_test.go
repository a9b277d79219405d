package credentials_test

import (
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-session/credentials"
	"github.com/jrsteele09/go-auth-session/storage"
	"github.com/stretchr/testify/require"
)

func TestMemoryCookiesExpire(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	jar := credentials.NewMemoryCookies(func() time.Time { return now })

	jar.Set(&http.Cookie{Name: "a", Value: "1", MaxAge: 60})
	jar.Set(&http.Cookie{Name: "b", Value: "2", Expires: now.Add(time.Hour)})

	c, ok := jar.Get("a")
	require.True(t, ok)
	require.Equal(t, "1", c.Value)

	now = now.Add(2 * time.Minute)
	_, ok = jar.Get("a")
	require.False(t, ok)
	_, ok = jar.Get("b")
	require.True(t, ok)

	jar.Set(&http.Cookie{Name: "b", MaxAge: -1})
	_, ok = jar.Get("b")
	require.False(t, ok)
}

func TestPersistentCookiesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }

	jar := credentials.NewPersistentCookies(storage.New(storage.NewFile(path)), clock)
	jar.Set(&http.Cookie{Name: "access_token", Value: "abc", Path: "/", MaxAge: 3600})
	jar.Set(&http.Cookie{Name: "session", Value: "s"})

	reopened := credentials.NewPersistentCookies(storage.New(storage.NewFile(path)), clock)
	c, ok := reopened.Get("access_token")
	require.True(t, ok)
	require.Equal(t, "abc", c.Value)
	require.Equal(t, "/", c.Path)

	_, ok = reopened.Get("session")
	require.True(t, ok)

	now = now.Add(time.Hour)
	_, ok = reopened.Get("access_token")
	require.False(t, ok)
	_, ok = reopened.Get("session")
	require.True(t, ok)
}

func TestPersistentCookiesDelete(t *testing.T) {
	jar := credentials.NewPersistentCookies(storage.New(storage.NewMemory()), nil)

	jar.Set(&http.Cookie{Name: "access_token", Value: "abc", MaxAge: 60})
	jar.Set(&http.Cookie{Name: "access_token", MaxAge: -1})
	_, ok := jar.Get("access_token")
	require.False(t, ok)

	jar.Set(&http.Cookie{Name: "refresh", Value: "r"})
	jar.Delete("refresh")
	_, ok = jar.Get("refresh")
	require.False(t, ok)
}

func TestStoreOverPersistentCookies(t *testing.T) {
	kv := storage.New(storage.NewMemory())
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }
	store := credentials.New(credentials.NewPersistentCookies(kv, clock), kv, credentials.WithNowFunc(clock))

	require.NoError(t, store.SetCookie("theme", "dark", credentials.WithMaxAge(60)))
	require.Equal(t, "dark", store.GetCookie("theme"))
	store.RemoveCookie("theme")
	require.Empty(t, store.GetCookie("theme"))
}
