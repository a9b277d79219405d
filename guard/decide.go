// Package guard decides whether a navigation is allowed or must be replaced
// by a redirect, based on the session and the group claims of the access token.
package guard

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jrsteele09/go-auth-session/internal/config"
)

// Policy is the configured navigation policy.
type Policy = config.RoutePolicy

// Input is the navigation being evaluated.
type Input struct {
	Path            string
	IsAuthenticated bool
	Groups          []string // Group claims of the access token
}

// Decision is the outcome of Decide. An empty Redirect allows the navigation.
type Decision struct {
	Redirect      string
	IsPublicRoute bool
}

func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

var repeatedSlashes = regexp.MustCompile(`/{2,}`)

// Decide applies the policy to in. The first matching rule wins:
//  1. root or locale root: sign-in when signed out, else the group area
//  2. signed out on a private route: sign-in
//  3. signed in on the sign-in route: the group area
//  4. signed in on a public route: allow
//  5. signed in with a group access map: allow only allowed paths, else the group area
//  6. allow
func Decide(in Input, p Policy) Decision {
	d := Decision{IsPublicRoute: IsPublicRoute(in.Path, p)}
	signIn := signInPath(p)

	switch {
	case in.Path == "/" || in.Path == "/"+p.Locale:
		if !in.IsAuthenticated {
			d.Redirect = localize(p.Locale, signIn)
		} else {
			d.Redirect = localize(p.Locale, RedirectArea(in.Groups, p))
		}
	case !in.IsAuthenticated && !d.IsPublicRoute:
		d.Redirect = localize(p.Locale, signIn)
	case in.IsAuthenticated && (in.Path == signIn || in.Path == "/"+p.Locale+signIn):
		d.Redirect = localize(p.Locale, RedirectArea(in.Groups, p))
	case in.IsAuthenticated && d.IsPublicRoute:
	case in.IsAuthenticated && p.GroupAccessMap != nil:
		if !IsAllowedPath(in.Groups, in.Path, p) {
			d.Redirect = localize(p.Locale, RedirectArea(in.Groups, p))
		}
	}
	return d
}

// NormalizePath strips a two-character locale segment and trailing slashes.
func NormalizePath(path string) string {
	segments := strings.Split(path, "/")
	if len(segments) > 1 && utf8.RuneCountInString(segments[1]) == 2 {
		path = "/" + strings.Join(segments[2:], "/")
	}
	return strings.TrimRight(path, "/")
}

// IsPublicRoute matches path, with or without the locale prefix, against the
// public routes exactly or as a sub-path.
func IsPublicRoute(path string, p Policy) bool {
	if len(p.PublicRoutes) == 0 || p.Locale == "" {
		return false
	}

	path = strings.TrimRight(path, "/")
	localized := "/" + p.Locale
	for _, route := range p.PublicRoutes {
		if path == route ||
			path == localized+route ||
			strings.HasPrefix(path, route+"/") ||
			strings.HasPrefix(path, localized+route+"/") {
			return true
		}
	}
	return false
}

// RedirectArea is the area of the highest-priority group the user holds, or "/".
// Group names are matched case-insensitively.
func RedirectArea(groups []string, p Policy) string {
	if p.GroupPriority == nil || p.GroupAreaMap == nil {
		return "/"
	}
	for _, group := range p.GroupPriority {
		if !containsFold(groups, group) {
			continue
		}
		if area, ok := lookupFold(p.GroupAreaMap, group); ok && area != "" {
			return area
		}
		return "/"
	}
	return "/"
}

// IsAllowedPath reports whether any of the groups may open path. A path is
// allowed when it equals an allowed prefix, is below it, or is a hyphenated
// sibling of it ("/leads" allows "/leads/1" and "/leads-archive").
func IsAllowedPath(groups []string, path string, p Policy) bool {
	if p.GroupAccessMap == nil {
		return true
	}

	normalized := NormalizePath(path)
	for _, group := range groups {
		allowed, _ := lookupFold(p.GroupAccessMap, group)
		for _, prefix := range allowed {
			if normalized == prefix ||
				strings.HasPrefix(normalized, prefix+"/") ||
				strings.HasPrefix(normalized, prefix+"-") {
				return true
			}
		}
	}
	return false
}

func signInPath(p Policy) string {
	if p.SignInPath == "" {
		return "/sign-in"
	}
	return p.SignInPath
}

func localize(locale, path string) string {
	return repeatedSlashes.ReplaceAllString("/"+locale+path, "/")
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}

// lookupFold finds key in m ignoring case. Config loaders may lowercase map keys.
func lookupFold[V any](m map[string]V, key string) (V, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	var zero V
	return zero, false
}
