package main

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-auth-session/internal/authtest"
	"github.com/stretchr/testify/require"
)

const (
	testUserEmail    = "john.doe@example.com"
	testUserPassword = "Password123"
)

type testFixture struct {
	backend *authtest.Server
	storage string
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	backend := authtest.New(authtest.WithSecret("1234"))
	_, err := backend.AddUser(testUserEmail, testUserPassword, "ops")
	require.NoError(t, err)

	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	t.Setenv("API_BASE_URL", srv.URL+authtest.BasePath)
	t.Setenv("ROUTE_POLICY_FILE", "")
	t.Setenv("LOCALE", "en")
	t.Setenv("SESSIONCTL_PASSWORD", "")
	return &testFixture{backend: backend, storage: filepath.Join(t.TempDir(), "session.json")}
}

func (f *testFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append([]string{"--storage", f.storage}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestLoginWhoamiLogout(t *testing.T) {
	f := setupTestFixture(t)

	out, err := f.run(t, "whoami")
	require.NoError(t, err)
	require.Equal(t, "Not signed in\n", out)

	out, err = f.run(t, "login", "-e", testUserEmail, "-p", testUserPassword)
	require.NoError(t, err)
	require.Contains(t, out, testUserEmail)

	out, err = f.run(t, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "<"+testUserEmail+">")
	require.Contains(t, out, "Groups: ops")

	_, err = f.run(t, "logout")
	require.NoError(t, err)

	out, err = f.run(t, "whoami")
	require.NoError(t, err)
	require.Equal(t, "Not signed in\n", out)
}

func TestLoginFailureReportsMessage(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.run(t, "login", "-e", testUserEmail, "-p", "wrong")
	require.Error(t, err)
	require.Contains(t, err.Error(), "login")
}

func TestGetRefreshesExpiredToken(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.run(t, "login", "-e", testUserEmail, "-p", testUserPassword)
	require.NoError(t, err)

	f.backend.ExpireAccessTokens()

	out, err := f.run(t, "get", authtest.RouteProjects)
	require.NoError(t, err)
	require.Contains(t, out, "Riverside Tower")
	require.Equal(t, 1, f.backend.RefreshCalls())
}

func TestRefreshWithoutSession(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.run(t, "refresh")
	require.Error(t, err)
	require.Zero(t, f.backend.RefreshCalls())
}

func TestRoute(t *testing.T) {
	f := setupTestFixture(t)

	out, err := f.run(t, "route", "/en/projects")
	require.NoError(t, err)
	require.Equal(t, "redirect /en/sign-in\n", out)

	_, err = f.run(t, "login", "-e", testUserEmail, "-p", testUserPassword)
	require.NoError(t, err)

	out, err = f.run(t, "route", "/en/projects")
	require.NoError(t, err)
	require.Equal(t, "allow /en/projects\n", out)
}

func TestResetPassword(t *testing.T) {
	f := setupTestFixture(t)

	out, err := f.run(t, "reset-password", testUserEmail)
	require.NoError(t, err)
	require.Contains(t, out, testUserEmail)
	require.Equal(t, []string{testUserEmail}, f.backend.ResetRequests())
}
