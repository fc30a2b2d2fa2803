package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"ilim-checkout/internal/adapters/credentials"
	"ilim-checkout/internal/app"
	"ilim-checkout/internal/config"
	"ilim-checkout/internal/domain"
	"ilim-checkout/internal/logging"
)

var (
	verbose bool
	token   string
	subject string
	rootCmd *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "ilim-checkout",
		Short: "Purchase Ilim courses from the command line",
		Long: `ilim-checkout starts a course purchase on the Ilim backend, prints the payment link
and waits until the payment is confirmed.

Credentials come from CREDENTIALS_SOURCE (redis, secretsmanager or static) unless --token is given.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Access token to use instead of the stored one")
	rootCmd.PersistentFlags().StringVar(&subject, "user", "", "Subject the access token belongs to (default $ILIM_SUBJECT)")
}

// Execute runs the root command.
func Execute(ctx context.Context, version string) error {
	rootCmd.AddCommand(purchaseCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)

	rootCmd.Version = version
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func newLogger() *slog.Logger {
	cfg := logging.DefaultConfig()
	if verbose {
		cfg.Level = slog.LevelDebug
	}
	return logging.New(cfg)
}

func openApp(cmd *cobra.Command) (*app.App, *slog.Logger, error) {
	logger := newLogger()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, err
	}
	if subject != "" {
		cfg.Credentials.Subject = subject
	}

	a, err := app.Bootstrap(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}

// loadAuth prefers the --token flag over the configured store. A missing credential
// yields an empty session so the workflow reports it to the user.
func loadAuth(ctx context.Context, a *app.App) (domain.AuthSession, error) {
	store := a.Credentials()
	if token != "" {
		store = credentials.NewStatic(a.Config().Credentials.Subject, token)
	}

	auth, err := store.Load(ctx)
	if err != nil {
		var authErr *domain.AuthenticationError
		if errors.As(err, &authErr) {
			return domain.AuthSession{Subject: a.Config().Credentials.Subject}, nil
		}
		return domain.AuthSession{}, err
	}
	return auth, nil
}
