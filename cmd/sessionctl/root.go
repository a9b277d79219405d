package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jrsteele09/go-auth-session/api"
	"github.com/jrsteele09/go-auth-session/client"
	"github.com/jrsteele09/go-auth-session/internal/config"
	"github.com/jrsteele09/go-auth-session/storage"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app holds the flags shared by every command.
type app struct {
	out         io.Writer
	storagePath string
	verbose     bool
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	rootCmd := &cobra.Command{
		Use:   "sessionctl",
		Short: "Sign in to the stacking plan API and inspect the session",
		Long: `sessionctl keeps a session for the stacking plan API on disk.

Tokens and the access-token cookie are stored in a JSON file, so a login
survives between invocations. Expired access tokens are refreshed
transparently when a request is rejected.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&a.storagePath, "storage", defaultStoragePath(), "Session file")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log to stderr")

	rootCmd.AddCommand(
		loginCmd(a),
		logoutCmd(a),
		refreshCmd(a),
		whoamiCmd(a),
		routeCmd(a),
		getCmd(a),
		registerCmd(a),
		changePasswordCmd(a),
		resetPasswordCmd(a),
	)
	return rootCmd
}

func defaultStoragePath() string {
	if path := os.Getenv("STORAGE_FILE"); path != "" {
		return path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "sessionctl", "session.json")
}

func (a *app) client() (*client.Client, error) {
	logger := zerolog.Nop()
	if a.verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return client.New(config.New(),
		client.WithStorage(storage.NewFile(a.storagePath)),
		client.WithLogger(logger),
		client.WithNotifier(api.NotifierFunc(func(message string) {
			logger.Warn().Msg(message)
		})),
	)
}

// actionError reports a failed action with the message it recorded.
func actionError(c *client.Client, action string) error {
	if message := c.Session().Error(); message != "" {
		return fmt.Errorf("%s: %s", action, message)
	}
	return errors.New(action + " failed")
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
