// Package store is a small observable state container. Every mutation goes
// through Update, which notifies subscribers synchronously with the new snapshot.
package store

import (
	"maps"
	"slices"
	"sync"

	"github.com/jrsteele09/go-auth-session/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Listener receives the state after each mutation.
type Listener[T any] func(state T)

// Persistence describes which projection of T is written to durable storage and how it is restored.
type Persistence[T any] struct {
	KV      *storage.KV
	Key     string
	Project func(state T) any
	Restore func(kv *storage.KV, key string, state *T) bool
}

type Store[T any] struct {
	state       T
	listeners   map[int]Listener[T]
	nextID      int
	persistence *Persistence[T]
	hydrated    bool
	logger      zerolog.Logger
	lock        sync.RWMutex
}

type Option[T any] func(*Store[T])

func WithPersistence[T any](p Persistence[T]) Option[T] {
	return func(s *Store[T]) {
		s.persistence = &p
	}
}

func WithLogger[T any](logger zerolog.Logger) Option[T] {
	return func(s *Store[T]) {
		s.logger = logger
	}
}

func New[T any](initial T, options ...Option[T]) *Store[T] {
	s := &Store[T]{
		state:     initial,
		listeners: make(map[int]Listener[T]),
		logger:    log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.persistence == nil {
		s.hydrated = true
	}
	return s
}

// Hydrate restores the persisted projection over the current state. It marks the
// store hydrated whether or not anything was found, and notifies subscribers.
func (s *Store[T]) Hydrate() {
	s.lock.Lock()
	if s.persistence != nil && s.persistence.Restore != nil {
		s.persistence.Restore(s.persistence.KV, s.persistence.Key, &s.state)
	}
	s.hydrated = true
	snapshot := s.state
	listeners := s.snapshotListeners()
	s.lock.Unlock()

	notify(listeners, snapshot)
}

// Hydrated reports whether persisted state has been restored.
func (s *Store[T]) Hydrated() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.hydrated
}

// GetState returns a snapshot of the current state.
func (s *Store[T]) GetState() T {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.state
}

// Update applies mutate to the state, persists the projection and notifies
// subscribers. Listeners run outside the lock and may call Update themselves.
func (s *Store[T]) Update(mutate func(state *T)) T {
	s.lock.Lock()
	mutate(&s.state)
	snapshot := s.state
	s.persist(snapshot)
	listeners := s.snapshotListeners()
	s.lock.Unlock()

	notify(listeners, snapshot)
	return snapshot
}

// Subscribe registers a listener and returns a function removing it.
func (s *Store[T]) Subscribe(listener Listener[T]) (unsubscribe func()) {
	s.lock.Lock()
	defer s.lock.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	return func() {
		s.lock.Lock()
		defer s.lock.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store[T]) persist(state T) {
	if s.persistence == nil || s.persistence.Project == nil {
		return
	}
	if err := s.persistence.KV.Set(s.persistence.Key, s.persistence.Project(state)); err != nil {
		s.logger.Warn().Err(err).Str("key", s.persistence.Key).Msg("failed to persist state")
	}
}

func (s *Store[T]) snapshotListeners() []Listener[T] {
	listeners := make([]Listener[T], 0, len(s.listeners))
	for _, id := range slices.Sorted(maps.Keys(s.listeners)) {
		listeners = append(listeners, s.listeners[id])
	}
	return listeners
}

func notify[T any](listeners []Listener[T], state T) {
	for _, l := range listeners {
		l(state)
	}
}
