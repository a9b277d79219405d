package auth

import (
	"github.com/jrsteele09/go-auth-session/token"
)

// Permissions returns the groups carried by the access-token cookie.
func (s *SessionService) Permissions() []string {
	return s.cookieClaims().Groups
}

// HasPermission reports whether the cookie token grants group.
func (s *SessionService) HasPermission(group string) bool {
	return s.cookieClaims().HasPermission(group)
}

// HasAnyPermission reports whether the cookie token grants at least one of groups.
func (s *SessionService) HasAnyPermission(groups ...string) bool {
	return s.cookieClaims().HasAnyPermission(groups...)
}

func (s *SessionService) cookieClaims() token.Claims {
	return token.DecodeOrEmpty(s.credentials.CookieAccessToken())
}
