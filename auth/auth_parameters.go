package auth

// LoginCredentials are entered on the sign-in form. RememberMe is accepted
// but has no effect on token lifetime.
type LoginCredentials struct {
	Email      string
	Password   string
	RememberMe bool
}

// RegisterData is the sign-up form. Email doubles as the account username.
type RegisterData struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Phone           *string // Optional
	ShareLink       string  // Invitation link the user arrived through, if any
}

type ChangePasswordData struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}
