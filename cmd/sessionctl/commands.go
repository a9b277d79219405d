package main

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/jrsteele09/go-auth-session/auth"
	"github.com/jrsteele09/go-auth-session/guard"
	"github.com/jrsteele09/go-auth-session/token"
	"github.com/spf13/cobra"
)

func loginCmd(a *app) *cobra.Command {
	var creds auth.LoginCredentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if creds.Password == "" {
				creds.Password = os.Getenv("SESSIONCTL_PASSWORD")
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			if !c.Auth().Login(cmd.Context(), creds) {
				return actionError(c, "login")
			}
			a.printf("Signed in as %s\n", creds.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&creds.Email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "Password (default $SESSIONCTL_PASSWORD)")
	cmd.Flags().BoolVar(&creds.RememberMe, "remember", true, "Keep the session")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			c.Auth().Logout()
			a.printf("Signed out\n")
			return nil
		},
	}
}

func refreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			accessToken, err := c.Auth().RefreshAccessToken(cmd.Context())
			if err != nil {
				return actionError(c, "refresh")
			}
			a.printExpiry(accessToken)
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			if !c.Auth().IsSignedIn() {
				a.printf("Not signed in\n")
				return nil
			}
			if p := c.Profiles().Profile(); p != nil {
				a.printf("User:   %s <%s>\n", p.Names(), p.Email)
			}
			a.printf("Groups: %s\n", strings.Join(c.Auth().Permissions(), ", "))
			a.printExpiry(c.Session().AccessToken())
			return nil
		},
	}
}

func routeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "route <path>",
		Short: "Show where the route guard sends the session for a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			decision := guard.Decide(guard.Input{
				Path:            args[0],
				IsAuthenticated: c.Auth().IsSignedIn(),
				Groups:          c.Auth().Permissions(),
			}, c.Policy())
			if decision.Allowed() {
				a.printf("allow %s\n", args[0])
				return nil
			}
			a.printf("redirect %s\n", decision.Redirect)
			return nil
		},
	}
}

func getCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "GET an API path and print the JSON response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			var body json.RawMessage
			if err := c.Get(cmd.Context(), args[0], &body); err != nil {
				return err
			}
			enc := json.NewEncoder(a.out)
			enc.SetIndent("", "  ")
			return enc.Encode(body)
		},
	}
}

func registerCmd(a *app) *cobra.Command {
	var (
		data  auth.RegisterData
		phone string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if phone != "" {
				data.Phone = &phone
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			if !c.Auth().Register(cmd.Context(), data) {
				return actionError(c, "register")
			}
			if c.Auth().IsSignedIn() {
				a.printf("Registered and signed in as %s\n", data.Email)
				return nil
			}
			a.printf("Registered %s\n", data.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&data.Name, "name", "", "Full name")
	cmd.Flags().StringVarP(&data.Email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&data.Password, "password", "p", "", "Password")
	cmd.Flags().StringVar(&data.ConfirmPassword, "confirm", "", "Password again")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&data.ShareLink, "share-link", "", "Invitation link")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func changePasswordCmd(a *app) *cobra.Command {
	var data auth.ChangePasswordData

	cmd := &cobra.Command{
		Use:   "change-password",
		Short: "Change the signed-in user's password",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			if !c.Auth().ChangePassword(cmd.Context(), data) {
				return actionError(c, "change password")
			}
			a.printf("Password changed\n")
			return nil
		},
	}

	cmd.Flags().StringVar(&data.CurrentPassword, "current", "", "Current password")
	cmd.Flags().StringVar(&data.NewPassword, "new", "", "New password")
	cmd.Flags().StringVar(&data.ConfirmPassword, "confirm", "", "New password again")
	return cmd
}

func resetPasswordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <email>",
		Short: "Request a password reset email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			if !c.Auth().ResetPassword(cmd.Context(), args[0]) {
				return actionError(c, "reset password")
			}
			a.printf("Reset email requested for %s\n", args[0])
			return nil
		},
	}
}

func (a *app) printExpiry(accessToken string) {
	claims, err := token.Decode(accessToken)
	if err != nil {
		return
	}
	if exp, ok := claims.Expiry(); ok {
		a.printf("Expires: %s\n", exp.Local().Format(time.RFC3339))
		return
	}
	a.printf("Expires: never\n")
}
