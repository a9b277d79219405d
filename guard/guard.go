package guard

import (
	"sync"

	"github.com/jrsteele09/go-auth-session/session"
	"github.com/jrsteele09/go-auth-session/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Navigator replaces the current location without adding a history entry.
type Navigator interface {
	Replace(path string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Replace(path string) {
	f(path)
}

// SessionState is the part of the session store the guard waits on.
type SessionState interface {
	Hydrated() bool
	IsLoading() bool
	Subscribe(listener store.Listener[session.State]) (unsubscribe func())
}

// AuthState answers who the user is.
type AuthState interface {
	IsSignedIn() bool
	Permissions() []string
}

// State is what the application shell renders from.
type State struct {
	IsInitialized bool // False until the session has been restored and no action is in flight
	IsPublicRoute bool
}

// Guard re-evaluates the policy on every navigation and session change.
type Guard struct {
	policy      Policy
	session     SessionState
	auth        AuthState
	navigator   Navigator
	logger      zerolog.Logger
	unsubscribe func()

	lock  sync.Mutex
	path  string
	state State
}

type Option func(*Guard)

func WithLogger(logger zerolog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// New starts guarding path and subscribes to session changes. Call Close to stop.
func New(policy Policy, sessionState SessionState, auth AuthState, navigator Navigator, path string, options ...Option) *Guard {
	g := &Guard{
		policy:    policy,
		session:   sessionState,
		auth:      auth,
		navigator: navigator,
		logger:    log.Logger,
		path:      path,
	}
	for _, opt := range options {
		opt(g)
	}

	g.unsubscribe = sessionState.Subscribe(func(session.State) {
		g.evaluate()
	})
	g.evaluate()
	return g
}

// Navigate records a path change and evaluates it.
func (g *Guard) Navigate(path string) {
	g.lock.Lock()
	g.path = path
	g.lock.Unlock()
	g.evaluate()
}

func (g *Guard) State() State {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.state
}

// Path is the current location, including any redirect the guard applied.
func (g *Guard) Path() string {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.path
}

func (g *Guard) Close() {
	if g.unsubscribe != nil {
		g.unsubscribe()
	}
}

func (g *Guard) evaluate() {
	g.lock.Lock()
	path := g.path
	g.state.IsPublicRoute = IsPublicRoute(path, g.policy)
	if !g.session.Hydrated() || g.session.IsLoading() {
		g.lock.Unlock()
		return
	}
	g.state.IsInitialized = true

	decision := Decide(Input{
		Path:            path,
		IsAuthenticated: g.auth.IsSignedIn(),
		Groups:          g.auth.Permissions(),
	}, g.policy)
	if decision.Allowed() || decision.Redirect == path {
		g.lock.Unlock()
		return
	}
	g.path = decision.Redirect
	g.state.IsPublicRoute = IsPublicRoute(decision.Redirect, g.policy)
	g.lock.Unlock()

	g.logger.Debug().Str("from", path).Str("to", decision.Redirect).Msg("route guard redirect")
	g.navigator.Replace(decision.Redirect)
}
