package guard

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-auth-session/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyGroups stores the group claims of the request's access token
const ContextKeyGroups ContextKey = "groups"

// Middleware applies the policy to server-rendered pages. The session is the
// access-token cookie named cookieName; blocked requests get a 303 redirect.
func Middleware(policy Policy, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			in := Input{Path: r.URL.Path}
			if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
				if claims, err := token.Decode(cookie.Value); err == nil {
					in.IsAuthenticated = true
					in.Groups = claims.Groups
				}
			}

			decision := Decide(in, policy)
			if !decision.Allowed() && decision.Redirect != r.URL.Path {
				http.Redirect(w, r, decision.Redirect, http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyGroups, in.Groups)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GroupsFromContext returns the groups stored by Middleware.
func GroupsFromContext(ctx context.Context) []string {
	groups, _ := ctx.Value(ContextKeyGroups).([]string)
	return groups
}
