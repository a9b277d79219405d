package main

import (
	"html/template"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-auth-session/guard"
	"github.com/jrsteele09/go-auth-session/internal/authtest"
	"github.com/jrsteele09/go-auth-session/token"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const demoPassword = "Password123"

var demoUsers = []struct {
	email  string
	groups []string
}{
	{email: "ops@example.com", groups: []string{"ops"}},
	{email: "sales@example.com", groups: []string{"sales"}},
	{email: "admin@example.com", groups: []string{"ops", "sales"}},
}

func seedUsers(backend *authtest.Server) error {
	for _, u := range demoUsers {
		if _, err := backend.AddUser(u.email, demoPassword, u.groups...); err != nil {
			return err
		}
		log.Info().Str("email", u.email).Strs("groups", u.groups).Msg("seeded demo user")
	}
	return nil
}

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html><body>
<p>{{.Path}}</p>
{{if .SignIn}}
<form method="post" action="{{.Path}}">
<input name="email" type="email"> <input name="password" type="password">
<button>Sign in</button>
</form>
{{else}}
<p>Groups: {{range .Groups}}{{.}} {{end}}</p>
<form method="post" action="{{.SignOut}}"><button>Sign out</button></form>
{{end}}
</body></html>`))

type pageData struct {
	Path    string
	Groups  []string
	SignIn  bool
	SignOut string
}

// site serves the fake API, its metrics and a few guarded pages.
type site struct {
	backend    *authtest.Server
	policy     guard.Policy
	cookieName string
	signIn     string
	signOut    string
}

func newSite(backend *authtest.Server, policy guard.Policy, cookieName string) http.Handler {
	if !slices.Contains(policy.PublicRoutes, policy.SignInPath) {
		policy.PublicRoutes = append(policy.PublicRoutes, policy.SignInPath)
	}
	s := &site{
		backend:    backend,
		policy:     policy,
		cookieName: cookieName,
		signIn:     "/" + policy.Locale + policy.SignInPath,
		signOut:    "/" + policy.Locale + "/sign-out",
	}

	r := chi.NewRouter()
	r.Handle(authtest.BasePath+"/*", backend.Handler())
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		r.Use(guard.Middleware(s.policy, cookieName))
		r.Post(s.signIn, s.handleSignIn)
		r.Post(s.signOut, s.handleSignOut)
		r.Get("/*", s.handlePage)
	})
	return r
}

func (s *site) handlePage(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Path:    r.URL.Path,
		Groups:  guard.GroupsFromContext(r.Context()),
		SignIn:  r.URL.Path == s.signIn,
		SignOut: s.signOut,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		log.Error().Err(err).Msg("render page")
	}
}

func (s *site) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	user, ok := s.backend.Authenticate(r.PostForm.Get("email"), r.PostForm.Get("password"))
	if !ok {
		http.Redirect(w, r, s.signIn, http.StatusSeeOther)
		return
	}
	pair, err := s.backend.IssueTokens(user)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	remaining, _ := token.DecodeOrEmpty(pair.AccessToken).RemainingSeconds(time.Now())
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(remaining),
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/"+s.policy.Locale+"/", http.StatusSeeOther)
}

func (s *site) handleSignOut(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: s.cookieName, Path: "/", MaxAge: -1})
	http.Redirect(w, r, s.signIn, http.StatusSeeOther)
}
