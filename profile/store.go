package profile

import (
	"context"

	"github.com/jrsteele09/go-auth-session/storage"
	"github.com/jrsteele09/go-auth-session/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StorageKey is the persistent-store key of the profile state.
const StorageKey = "profile-storage"

const fetchProfileFallback = "Failed to fetch user profile"

// State is the profile store content. Profile is nil when no user is signed in.
type State struct {
	Profile           *UserProfile `json:"profile"`
	IsFetchingProfile bool         `json:"isFetchingProfile"`
	FetchProfileError string       `json:"fetchProfileError"`
}

// API fetches the current user's profile.
type API interface {
	FetchProfile(ctx context.Context) (*UserProfile, error)
}

// Store holds the profile and runs its actions.
type Store struct {
	*store.Store[State]
	api    API
	logger zerolog.Logger
}

type Option func(*Store)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func NewStore(kv *storage.KV, api API, options ...Option) *Store {
	s := &Store{
		Store: store.New(State{}, store.WithPersistence(store.Persistence[State]{
			KV:      kv,
			Key:     StorageKey,
			Project: func(st State) any { return st },
			Restore: func(kv *storage.KV, key string, st *State) bool {
				return kv.GetJSON(key, st)
			},
		})),
		api:    api,
		logger: log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Profile returns the current profile, or nil.
func (s *Store) Profile() *UserProfile {
	return s.GetState().Profile
}

// FetchProfile replaces the profile with a fresh copy. Failures are recorded
// on the store, never returned.
func (s *Store) FetchProfile(ctx context.Context) {
	s.Update(func(st *State) {
		st.IsFetchingProfile = true
		st.FetchProfileError = ""
	})

	p, err := s.api.FetchProfile(ctx)
	if err != nil {
		message := err.Error()
		if message == "" {
			message = fetchProfileFallback
		}
		s.logger.Warn().Err(err).Msg("profile fetch failed")
		s.Update(func(st *State) {
			st.IsFetchingProfile = false
			st.FetchProfileError = message
		})
		return
	}

	s.Update(func(st *State) {
		st.Profile = p
		st.IsFetchingProfile = false
	})
}

// UpdateProfile replaces the profile wholesale; nil clears it.
func (s *Store) UpdateProfile(p *UserProfile) {
	s.Update(func(st *State) {
		st.Profile = p
	})
}
