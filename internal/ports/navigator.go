package ports

import (
	"context"
)

// Navigator moves the user between views and shows notifications.
type Navigator interface {
	// OpenExternal opens the payment page in a new browsing context.
	OpenExternal(ctx context.Context, url string) error

	// ShowPurchased takes the user to the purchased-courses view.
	ShowPurchased(ctx context.Context, courseID string) error

	// ShowError leaves the user in place and presents a message.
	ShowError(ctx context.Context, courseID, message string, cause error) error
}
