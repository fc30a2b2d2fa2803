package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"ilim-checkout/internal/adapters/navigation"
	"ilim-checkout/internal/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status [course-id]",
	Short: "Show the latest purchase session of a course",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored purchase sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessions,
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, _, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	auth, err := loadAuth(cmd.Context(), a)
	if err != nil {
		return err
	}

	session, err := a.Checkout(navigation.NewRecorder("")).Session(cmd.Context(), auth.Subject, args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fmt.Fprintf(cmd.OutOrStdout(), "No purchase session for course %s.\n", args[0])
			return nil
		}
		return err
	}

	printSession(cmd.OutOrStdout(), session)
	return nil
}

func runSessions(cmd *cobra.Command, args []string) error {
	a, _, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	sessions, err := a.Checkout(navigation.NewRecorder("")).Sessions(cmd.Context())
	if err != nil {
		return err
	}

	printSessions(cmd.OutOrStdout(), sessions)
	return nil
}

func printSession(w io.Writer, s *domain.PurchaseSession) {
	fmt.Fprintf(w, "Session:   %s\n", s.ID)
	fmt.Fprintf(w, "Course:    %s\n", s.CourseID)
	fmt.Fprintf(w, "State:     %s\n", s.State)
	fmt.Fprintf(w, "Attempts:  %d/%d\n", s.AttemptCount, s.MaxAttempts)
	if s.LastStatus != "" {
		fmt.Fprintf(w, "Status:    %s\n", s.LastStatus)
	}
	if s.Error != "" {
		fmt.Fprintf(w, "Error:     %s\n", s.Error)
	}
	fmt.Fprintf(w, "Payment:   %s\n", s.RedirectURL)
	fmt.Fprintf(w, "Updated:   %s\n", s.UpdatedAt.Format(time.DateTime))
}

func printSessions(w io.Writer, sessions []*domain.PurchaseSession) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No purchase sessions found.")
		return
	}

	fmt.Fprintf(w, "Purchase Sessions (%d):\n\n", len(sessions))
	for _, s := range sessions {
		fmt.Fprintf(w, "  %s  %-10s  %-10s  %d/%d  %s\n",
			s.UpdatedAt.Format("2006-01-02 15:04"),
			s.CourseID,
			s.State,
			s.AttemptCount,
			s.MaxAttempts,
			shortID(s.ID))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
