package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jrsteele09/go-auth-session/guard"
	"github.com/jrsteele09/go-auth-session/internal/authtest"
	"github.com/stretchr/testify/require"
)

func setupSite(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	backend := authtest.New(authtest.WithSecret("1234"))
	require.NoError(t, seedUsers(backend))

	srv := httptest.NewServer(newSite(backend, guard.Policy{
		Locale:         "en",
		SignInPath:     "/sign-in",
		GroupPriority:  []string{"ops", "sales"},
		GroupAreaMap:   map[string]string{"ops": "/ops", "sales": "/leads"},
		GroupAccessMap: map[string][]string{"sales": {"/leads"}, "ops": {"/ops", "/leads"}},
	}, "access_token"))
	t.Cleanup(srv.Close)

	httpClient := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	return srv, httpClient
}

func signIn(t *testing.T, srv *httptest.Server, httpClient *http.Client, email string) *http.Cookie {
	t.Helper()
	resp, err := httpClient.PostForm(srv.URL+"/en/sign-in", url.Values{
		"email":    {email},
		"password": {demoPassword},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/en/", resp.Header.Get("Location"))

	for _, c := range resp.Cookies() {
		if c.Name == "access_token" {
			return c
		}
	}
	t.Fatal("no access_token cookie")
	return nil
}

func get(t *testing.T, srv *httptest.Server, httpClient *http.Client, path string, cookie *http.Cookie) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestSignedOutIsSentToSignIn(t *testing.T) {
	srv, httpClient := setupSite(t)

	resp := get(t, srv, httpClient, "/en/ops", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/en/sign-in", resp.Header.Get("Location"))

	resp = get(t, srv, httpClient, "/en/sign-in", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSignInAndGroupAccess(t *testing.T) {
	srv, httpClient := setupSite(t)
	cookie := signIn(t, srv, httpClient, "sales@example.com")

	resp := get(t, srv, httpClient, "/en/", cookie)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/en/leads", resp.Header.Get("Location"))

	resp = get(t, srv, httpClient, "/en/leads/42", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "sales"))

	resp = get(t, srv, httpClient, "/en/ops", cookie)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/en/leads", resp.Header.Get("Location"))
}

func TestWrongPasswordStaysOnSignIn(t *testing.T) {
	srv, httpClient := setupSite(t)

	resp, err := httpClient.PostForm(srv.URL+"/en/sign-in", url.Values{
		"email":    {"ops@example.com"},
		"password": {"nope"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/en/sign-in", resp.Header.Get("Location"))
	require.Empty(t, resp.Cookies())
}

func TestAPIAndMetricsAreMounted(t *testing.T) {
	srv, httpClient := setupSite(t)

	resp := get(t, srv, httpClient, authtest.BasePath+"/users/me", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = get(t, srv, httpClient, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
