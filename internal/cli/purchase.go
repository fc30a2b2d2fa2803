package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ilim-checkout/internal/adapters/navigation"
	"ilim-checkout/internal/domain"
)

var purchaseCmd = &cobra.Command{
	Use:   "purchase [course-id]",
	Short: "Buy a course and wait for the payment to be confirmed",
	Args:  cobra.ExactArgs(1),
	RunE:  runPurchase,
}

func runPurchase(cmd *cobra.Command, args []string) error {
	a, logger, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	auth, err := loadAuth(ctx, a)
	if err != nil {
		return err
	}

	policy := a.Policy(ctx)
	nav := navigation.NewConsole(cmd.OutOrStdout(), a.Config().Frontend.BaseURL, policy.Navigation, logger.With("component", "navigator"))

	checkout := a.Checkout(nav)
	defer checkout.Shutdown()

	outcome, err := checkout.Purchase(ctx, auth, args[0])
	if err != nil {
		return err
	}
	return outcomeError(outcome)
}

// outcomeError maps a non-successful outcome to the command's exit error.
func outcomeError(outcome domain.Outcome) error {
	switch outcome.State {
	case domain.PollStateSucceeded:
		return nil
	case domain.PollStateCanceled:
		return errors.New("purchase canceled")
	case domain.PollStateExhausted:
		return fmt.Errorf("purchase not confirmed after %d attempts", outcome.Attempts)
	default:
		if outcome.Err != nil {
			return outcome.Err
		}
		return fmt.Errorf("purchase ended in state %s", outcome.State)
	}
}
