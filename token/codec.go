package token

import (
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	errs "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/internal/utils"
	"github.com/pkg/errors"
)

// Claims are the client-readable hints carried by a bearer token.
// They are never signature checked; the server remains the authority.
type Claims struct {
	ExpiresAt *int64   `json:"exp,omitempty"`    // Expiry in epoch seconds, nil when absent
	Groups    []string `json:"groups,omitempty"` // Permission groups assigned to the user
	Subject   string   `json:"sub,omitempty"`    // User identifier
}

// Decode reads the claims segment of a JWT without verifying it.
// Any malformed input yields empty Claims and an error wrapping ErrDecode.
func Decode(raw string) (Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return Claims{}, errors.Wrap(errs.ErrDecode, "empty token")
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return Claims{}, errors.Wrapf(errs.ErrDecode, "ParseUnverified: %v", err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, errors.Wrap(errs.ErrDecode, "error extracting claims")
	}

	var claims Claims
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = utils.Ptr(exp.Unix())
	}
	claims.Groups = utils.StringClaims(mapClaims["groups"])
	claims.Subject, _ = mapClaims.GetSubject()

	return claims, nil
}

// DecodeOrEmpty is Decode for callers that choose to degrade to "no claims".
func DecodeOrEmpty(raw string) Claims {
	claims, _ := Decode(raw)
	return claims
}

// Expiry returns the expiry time and whether the token carries one.
func (c Claims) Expiry() (time.Time, bool) {
	if c.ExpiresAt == nil {
		return time.Time{}, false
	}
	return time.Unix(*c.ExpiresAt, 0), true
}

// RemainingSeconds is the whole number of seconds until expiry, measured from now.
func (c Claims) RemainingSeconds(now time.Time) (int64, bool) {
	if c.ExpiresAt == nil {
		return 0, false
	}
	return *c.ExpiresAt - now.Unix(), true
}

// Expired reports true when the expiry has passed or cannot be determined.
func (c Claims) Expired(now time.Time) bool {
	remaining, ok := c.RemainingSeconds(now)
	return !ok || remaining <= 0
}

func (c Claims) HasPermission(group string) bool {
	return slices.Contains(c.Groups, group)
}

func (c Claims) HasAnyPermission(groups ...string) bool {
	for _, g := range groups {
		if c.HasPermission(g) {
			return true
		}
	}
	return false
}
