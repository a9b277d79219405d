package auth

import (
	"strings"
)

// Validator holds the checks that run before any network call.
type Validator struct{}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateRegistration checks that the password was confirmed.
func (v *Validator) ValidateRegistration(data RegisterData) error {
	if data.Password != data.ConfirmPassword {
		return PasswordsDontMatchErr
	}
	return nil
}

// ValidatePasswordChange checks that the new password was confirmed.
func (v *Validator) ValidatePasswordChange(data ChangePasswordData) error {
	if data.NewPassword != data.ConfirmPassword {
		return NewPasswordsDontMatchErr
	}
	return nil
}

// ValidateEmail requires a non-blank address.
func (v *Validator) ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return EmailRequiredErr
	}
	return nil
}
