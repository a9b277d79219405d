package session

import (
	"time"

	"github.com/jrsteele09/go-auth-session/credentials"
	"github.com/jrsteele09/go-auth-session/storage"
	"github.com/jrsteele09/go-auth-session/store"
	"github.com/jrsteele09/go-auth-session/token"
)

// StorageKey is the persistent-store key of the session projection.
const StorageKey = "auth-storage"

// State is the process-wide authentication session. Empty strings stand for absent tokens and errors.
// IsAuthenticated implies AccessToken != "".
type State struct {
	IsAuthenticated             bool
	AccessToken                 string
	RefreshToken                string
	IsFetchingAuthentication    bool   // True while an auth action is in flight
	FetchingAuthenticationError string // Human readable message of the last failed action
}

// persistedState is the durable projection; loading and error fields are ephemeral.
type persistedState struct {
	AccessToken     *string `json:"accessToken"`
	IsAuthenticated bool    `json:"isAuthenticated"`
}

// Store holds the Session and is its only writer.
type Store struct {
	*store.Store[State]
}

// New seeds the session from the persisted tokens. Call Hydrate to restore the
// persisted projection.
func New(creds *credentials.Store, options ...store.Option[State]) *Store {
	initial := State{
		AccessToken:  creds.PersistedAccessToken(),
		RefreshToken: creds.PersistedRefreshToken(),
	}
	options = append([]store.Option[State]{
		store.WithPersistence(store.Persistence[State]{
			KV:      creds.Persistent(),
			Key:     StorageKey,
			Project: project,
			Restore: restore,
		}),
	}, options...)
	return &Store{Store: store.New(initial, options...)}
}

func project(s State) any {
	p := persistedState{IsAuthenticated: s.IsAuthenticated}
	if s.AccessToken != "" {
		accessToken := s.AccessToken
		p.AccessToken = &accessToken
	}
	return p
}

func restore(kv *storage.KV, key string, s *State) bool {
	var p persistedState
	if !kv.GetJSON(key, &p) {
		return false
	}
	s.AccessToken = ""
	if p.AccessToken != nil {
		s.AccessToken = *p.AccessToken
	}
	s.IsAuthenticated = p.IsAuthenticated && s.AccessToken != ""
	return true
}

func (s *Store) AccessToken() string {
	return s.GetState().AccessToken
}

func (s *Store) RefreshToken() string {
	return s.GetState().RefreshToken
}

func (s *Store) IsAuthenticated() bool {
	return s.GetState().IsAuthenticated
}

func (s *Store) IsLoading() bool {
	return s.GetState().IsFetchingAuthentication
}

func (s *Store) Error() string {
	return s.GetState().FetchingAuthenticationError
}

// IsLoggedIn reports whether an access token is held and its decoded expiry lies after now.
func (s *Store) IsLoggedIn(now time.Time) bool {
	accessToken := s.AccessToken()
	return accessToken != "" && !token.DecodeOrEmpty(accessToken).Expired(now)
}

// Begin marks an auth action in flight and clears the previous error.
func (s *Store) Begin() {
	s.Update(func(st *State) {
		st.IsFetchingAuthentication = true
		st.FetchingAuthenticationError = ""
	})
}

// Authenticate commits a successful login or refresh.
func (s *Store) Authenticate(accessToken, refreshToken string) {
	s.Update(func(st *State) {
		st.IsFetchingAuthentication = false
		st.IsAuthenticated = accessToken != ""
		st.AccessToken = accessToken
		st.RefreshToken = refreshToken
		st.FetchingAuthenticationError = ""
	})
}

// Unauthenticate clears both tokens. An empty message leaves no error behind.
func (s *Store) Unauthenticate(message string) {
	s.Update(func(st *State) {
		st.IsFetchingAuthentication = false
		st.IsAuthenticated = false
		st.AccessToken = ""
		st.RefreshToken = ""
		st.FetchingAuthenticationError = message
	})
}

// Fail ends an action with an error, leaving tokens untouched.
func (s *Store) Fail(message string) {
	s.Update(func(st *State) {
		st.IsFetchingAuthentication = false
		st.FetchingAuthenticationError = message
	})
}

// Done ends an action successfully, leaving tokens untouched.
func (s *Store) Done() {
	s.Update(func(st *State) {
		st.IsFetchingAuthentication = false
	})
}
