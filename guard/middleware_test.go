package guard_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-auth-session/guard"
	"github.com/stretchr/testify/require"
)

func accessToken(t *testing.T, groups ...string) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp":    time.Now().Add(time.Hour).Unix(),
		"groups": groups,
	}).SignedString([]byte("1234"))
	require.NoError(t, err)
	return raw
}

func TestMiddleware(t *testing.T) {
	var seenGroups []string
	handler := guard.Middleware(testPolicy(), "access_token")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenGroups = guard.GroupsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(path, cookie string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: "access_token", Value: cookie})
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("signed out private page", func(t *testing.T) {
		rec := serve("/en/projects", "")
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/en/sign-in", rec.Header().Get("Location"))
	})

	t.Run("malformed cookie counts as signed out", func(t *testing.T) {
		rec := serve("/en/projects", "not-a-jwt")
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/en/sign-in", rec.Header().Get("Location"))
	})

	t.Run("signed out public page", func(t *testing.T) {
		rec := serve("/en/sign-in", "")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("allowed page exposes groups", func(t *testing.T) {
		rec := serve("/en/leads/7", accessToken(t, "sales"))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, []string{"sales"}, seenGroups)
	})

	t.Run("forbidden page", func(t *testing.T) {
		rec := serve("/en/projects", accessToken(t, "sales"))
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/en/leads", rec.Header().Get("Location"))
	})
}
