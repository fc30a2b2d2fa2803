package navigation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"ilim-checkout/internal/config"
)

// Console implements ports.Navigator for a terminal user.
// Links are printed instead of opened, and views are addressed by frontend URL.
type Console struct {
	out     io.Writer
	baseURL string
	paths   config.NavigationPaths
	logger  *slog.Logger

	mu sync.Mutex
}

// NewConsole creates a console navigator writing to out.
func NewConsole(out io.Writer, frontendBaseURL string, paths config.NavigationPaths, logger *slog.Logger) *Console {
	return &Console{
		out:     out,
		baseURL: strings.TrimRight(frontendBaseURL, "/"),
		paths:   paths,
		logger:  logger,
	}
}

// OpenExternal prints the payment link.
func (c *Console) OpenExternal(ctx context.Context, url string) error {
	c.logger.Debug("opening payment page", "url", url)
	return c.printf("Complete your payment at: %s\n", url)
}

// ShowPurchased prints the purchased-courses view.
func (c *Console) ShowPurchased(ctx context.Context, courseID string) error {
	c.logger.Info("navigating", "view", c.paths.PurchasedView, "course_id", courseID)
	return c.printf("Purchase of course %s confirmed. Your courses: %s%s\n", courseID, c.baseURL, c.paths.PurchasedView)
}

// ShowError prints the message and the course page the user stays on.
func (c *Console) ShowError(ctx context.Context, courseID, message string, cause error) error {
	c.logger.Debug("showing error", "course_id", courseID, "cause", cause)
	if courseID == "" || c.paths.CourseView == "" {
		return c.printf("%s\n", message)
	}
	coursePath := fmt.Sprintf(c.paths.CourseView, courseID)
	return c.printf("%s\nYou can retry from %s%s\n", message, c.baseURL, coursePath)
}

func (c *Console) printf(format string, args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.out, format, args...)
	return err
}
