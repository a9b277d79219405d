package auth

import (
	"fmt"

	errs "github.com/jrsteele09/go-auth-session/internal/errors"
)

// Messages recorded on the session when an action fails without a server message.
const (
	LoginFailedMsg          = "An error occurred during login"
	RegistrationFailedMsg   = "An error occurred during registration"
	ChangePasswordFailedMsg = "An error occurred while changing password"
	ResetPasswordFailedMsg  = "An error occurred while resetting password"
	MissingRefreshTokenMsg  = "Missing refresh token"
	RefreshTimedOutMsg      = "Refresh timed out"
	RefreshFailedMsg        = "Session expired, please sign in again"
	PasswordsDontMatchMsg   = "Passwords do not match"
	NewPasswordsDontMatch   = "New passwords do not match"
	NotSignedInMsg          = "You must be signed in to change your password"
	EmailRequiredMsg        = "Email is required"
)

var (
	PasswordsDontMatchErr    = fmt.Errorf("%w: %s", errs.ErrValidation, PasswordsDontMatchMsg)
	NewPasswordsDontMatchErr = fmt.Errorf("%w: %s", errs.ErrValidation, NewPasswordsDontMatch)
	EmailRequiredErr         = fmt.Errorf("%w: %s", errs.ErrValidation, EmailRequiredMsg)
	EmptyAccessTokenErr      = fmt.Errorf("%w: response did not include an access token", errs.ErrNetwork)
)
