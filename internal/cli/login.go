package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ilim-checkout/internal/domain"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an access token for later purchases",
	Long:  "Store the access token given with --token. Only the redis credential source supports this.",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored access token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func runLogin(cmd *cobra.Command, args []string) error {
	if token == "" {
		return errors.New("--token is required")
	}

	a, _, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	auth := domain.AuthSession{Subject: a.Config().Credentials.Subject, AccessToken: token}
	if err := a.SignIn(cmd.Context(), auth); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s.\n", auth.Subject)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, _, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	subj := a.Config().Credentials.Subject
	if err := a.SignOut(cmd.Context(), subj); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Signed out %s.\n", subj)
	return nil
}
