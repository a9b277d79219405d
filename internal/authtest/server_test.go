package authtest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-session/api"
	"github.com/jrsteele09/go-auth-session/internal/authtest"
	errs "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/token"
	"github.com/stretchr/testify/require"
)

const (
	testUserEmail    = "john.doe@example.com"
	testUserPassword = "Password123"
)

type testFixture struct {
	backend *authtest.Server
	client  *api.Client
}

func setupTestFixture(t *testing.T, bearer func() string) *testFixture {
	t.Helper()

	backend := authtest.New(authtest.WithSecret("1234"))
	_, err := backend.AddUser(testUserEmail, testUserPassword, "ops")
	require.NoError(t, err)

	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	options := []api.ClientOption{api.WithNotifier(api.NotifierFunc(func(string) {}))}
	if bearer != nil {
		options = append(options, api.WithBearer(bearer))
	}
	client, err := api.New(srv.URL+authtest.BasePath, options...)
	require.NoError(t, err)
	return &testFixture{backend: backend, client: client}
}

func TestLoginIssuesTokensWithGroups(t *testing.T) {
	f := setupTestFixture(t, nil)

	pair, err := f.client.Login(context.Background(), testUserEmail, testUserPassword)
	require.NoError(t, err)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := token.Decode(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, []string{"ops"}, claims.Groups)
	require.False(t, claims.Expired(time.Now()))

	_, err = f.client.Login(context.Background(), testUserEmail, "wrong")
	require.ErrorIs(t, err, errs.ErrUnauthenticated)
}

func TestRefreshTokensAreSingleUse(t *testing.T) {
	f := setupTestFixture(t, nil)
	pair, err := f.client.Login(context.Background(), testUserEmail, testUserPassword)
	require.NoError(t, err)

	next, err := f.client.RefreshToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, err = f.client.RefreshToken(context.Background(), pair.RefreshToken)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Equal(t, "Invalid refresh token", apiErr.Message)
	require.Equal(t, 2, f.backend.RefreshCalls())
}

func TestProtectedRoutes(t *testing.T) {
	var accessToken string
	f := setupTestFixture(t, func() string { return accessToken })

	_, err := f.client.FetchProfile(context.Background())
	require.ErrorIs(t, err, errs.ErrUnauthenticated)

	pair, err := f.client.Login(context.Background(), testUserEmail, testUserPassword)
	require.NoError(t, err)
	accessToken = pair.AccessToken

	p, err := f.client.FetchProfile(context.Background())
	require.NoError(t, err)
	require.Equal(t, testUserEmail, p.Email)

	f.backend.ExpireAccessTokens()
	_, err = f.client.FetchProfile(context.Background())
	require.ErrorIs(t, err, errs.ErrUnauthenticated)
}

func TestChangePassword(t *testing.T) {
	var accessToken string
	f := setupTestFixture(t, func() string { return accessToken })
	pair, err := f.client.Login(context.Background(), testUserEmail, testUserPassword)
	require.NoError(t, err)
	accessToken = pair.AccessToken

	require.Error(t, f.client.ChangePassword(context.Background(), "wrong", "NewPassword1"))
	require.NoError(t, f.client.ChangePassword(context.Background(), testUserPassword, "NewPassword1"))

	_, err = f.client.Login(context.Background(), testUserEmail, "NewPassword1")
	require.NoError(t, err)
}

func TestSignupAndReset(t *testing.T) {
	f := setupTestFixture(t, nil)

	pair, err := f.client.Signup(context.Background(), api.SignupRequest{Username: "new@example.com", Password: "pw", ShareLink: "s1"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)

	_, err = f.client.Signup(context.Background(), api.SignupRequest{Username: "new@example.com", Password: "pw"})
	require.EqualError(t, err, "User already exists")

	require.NoError(t, f.client.ResetPassword(context.Background(), "new@example.com"))
	require.Equal(t, []string{"new@example.com"}, f.backend.ResetRequests())
}

func TestAuthenticate(t *testing.T) {
	f := setupTestFixture(t, nil)

	user, ok := f.backend.Authenticate(testUserEmail, testUserPassword)
	require.True(t, ok)
	require.Equal(t, testUserEmail, user.Email)

	_, ok = f.backend.Authenticate(testUserEmail, "wrong")
	require.False(t, ok)
	_, ok = f.backend.Authenticate("nobody@example.com", testUserPassword)
	require.False(t, ok)
}
