package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-auth-session/profile"
)

// TokenPair is the token payload of login, refresh and signup responses.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SignupRequest is the body of POST /account/signup.
type SignupRequest struct {
	Username  string  `json:"username"`
	Password  string  `json:"password"`
	Phone     *string `json:"phone,omitempty"`
	ShareLink string  `json:"shareLink"`
}

type envelope[T any] struct {
	Data T `json:"data"`
}

// Login exchanges credentials for tokens. Credentials are sent untouched.
func (c *Client) Login(ctx context.Context, username, password string) (TokenPair, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var resp envelope[TokenPair]
	err := c.Do(ctx, &Request{
		Method:        http.MethodPost,
		Path:          RouteLogin,
		Form:          form,
		SkipNormalize: true,
		noRefresh:     true,
	}, &resp)
	return resp.Data, err
}

// RefreshToken exchanges a refresh token for a new pair. It bypasses the
// bearer and refresh-and-retry stages so it can never recurse into itself.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (TokenPair, error) {
	var resp envelope[TokenPair]
	err := c.Do(ctx, &Request{
		Method:        http.MethodPost,
		Path:          RouteRefreshToken,
		JSON:          map[string]string{"refresh_token": refreshToken},
		SkipNormalize: true,
		bare:          true,
	}, &resp)
	return resp.Data, err
}

// Signup registers an account. The response carries tokens only when the
// server signs the new user in directly.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (TokenPair, error) {
	var resp struct {
		TokenPair
		Data *TokenPair `json:"data"`
	}
	err := c.Do(ctx, &Request{
		Method:        http.MethodPost,
		Path:          RouteSignup,
		JSON:          req,
		SkipNormalize: true,
	}, &resp)
	if resp.Data != nil && resp.AccessToken == "" {
		return *resp.Data, err
	}
	return resp.TokenPair, err
}

func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	return c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   RouteChangePassword,
		JSON: map[string]string{
			"current_password": currentPassword,
			"new_password":     newPassword,
		},
	}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, email string) error {
	return c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   RouteResetPassword,
		JSON:   map[string]string{"email": email},
	}, nil)
}

// FetchProfile returns the signed-in user's profile.
func (c *Client) FetchProfile(ctx context.Context) (*profile.UserProfile, error) {
	var resp envelope[*profile.UserProfile]
	if err := c.Do(ctx, &Request{Method: http.MethodGet, Path: RouteMe}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
