package api

import "github.com/rs/zerolog"

const unknownErrorMessage = "Unknown error"

// Error is returned for every failed call. It wraps ErrNetwork or ErrUnauthenticated.
type Error struct {
	Status  int    // HTTP status, 0 when no response was received
	Message string // Server-provided message or a generic fallback
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Notifier is the user-visible error channel.
type Notifier interface {
	Notify(message string)
}

type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) {
	f(message)
}

type logNotifier struct {
	logger zerolog.Logger
}

func (n logNotifier) Notify(message string) {
	n.logger.Error().Str("notification", message).Msg("request failed")
}
