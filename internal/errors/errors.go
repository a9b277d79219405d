package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy for the session core
var (
	// Local, pre-network failures
	ErrValidation = errors.New("validation error")

	// Transport failures: endpoint unreachable or non-2xx response
	ErrNetwork = errors.New("network error")

	// Authorization failures
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrMissingRefreshToken = errors.New("missing refresh token")
	ErrRefreshTimeout      = errors.New("refresh timed out")

	// Token errors
	ErrDecode       = errors.New("token decode failure")
	ErrTokenExpired = errors.New("token expired")
	ErrNoExpiry     = errors.New("token has no exp claim")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text
func New(text string) error {
	return errors.New(text)
}
