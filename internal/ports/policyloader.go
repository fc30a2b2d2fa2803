package ports

import (
	"context"

	"ilim-checkout/internal/config"
)

// PolicyLoader loads the purchase policy document.
type PolicyLoader interface {
	// LoadPolicy loads the current purchase policy.
	LoadPolicy(ctx context.Context) (*config.PurchasePolicy, error)
}
