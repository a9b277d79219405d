package auth

import (
	"context"
	"net/http"

	errs "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/token"
	"golang.org/x/oauth2"
)

// sessionTokenSource adapts the session to oauth2.TokenSource so other HTTP
// clients can reuse the held credentials.
type sessionTokenSource struct {
	ctx     context.Context
	service *SessionService
}

// TokenSource returns a source yielding the current access token, refreshing
// it first when its exp claim has passed.
func (s *SessionService) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &sessionTokenSource{ctx: ctx, service: s}
}

// HTTPClient returns an http.Client that attaches the session bearer token.
// The transport caches the token until it nears expiry.
func (s *SessionService) HTTPClient(ctx context.Context) *http.Client {
	return oauth2.NewClient(ctx, s.TokenSource(ctx))
}

func (ts *sessionTokenSource) Token() (*oauth2.Token, error) {
	accessToken := ts.service.session.AccessToken()
	if accessToken == "" {
		return nil, errs.Wrapf(errs.ErrUnauthenticated, "no access token held")
	}

	claims := token.DecodeOrEmpty(accessToken)
	if _, hasExpiry := claims.Expiry(); hasExpiry && claims.Expired(ts.service.nowTime()) {
		refreshed, err := ts.service.RefreshAccessToken(ts.ctx)
		if err != nil {
			if ts.ctx.Err() != nil {
				return nil, err
			}
			return nil, errs.Wrapf(errs.ErrTokenExpired, "refresh failed: %s", ts.service.session.Error())
		}
		accessToken = refreshed
		claims = token.DecodeOrEmpty(accessToken)
	}

	t := &oauth2.Token{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		RefreshToken: ts.service.session.RefreshToken(),
	}
	if expiry, ok := claims.Expiry(); ok {
		t.Expiry = expiry
	}
	return t, nil
}
