package ports

import (
	"context"

	"ilim-checkout/internal/domain"
)

// PurchaseAPI is the part of the ilim backend the checkout workflow calls.
type PurchaseAPI interface {
	// InitiatePurchase creates a purchase intent and returns the external payment URL.
	InitiatePurchase(ctx context.Context, auth domain.AuthSession, courseID string) (string, error)

	// CheckPurchase returns the current status of the purchase of a course.
	CheckPurchase(ctx context.Context, auth domain.AuthSession, courseID string) (domain.PurchaseStatus, error)
}
