// Package billing wraps an in-app billing gateway: catalog lookup, purchase
// initiation and consumption of completed purchases.
package billing

import (
	"context"

	"SignalDesk/internal/gateway"
	"SignalDesk/internal/model"
)

// Gateway is the billing capability consumed by Service.
type Gateway interface {
	// Init configures the gateway with the key used to verify purchases.
	Init(ctx context.Context, verificationKey string) error
	Products(ctx context.Context, skus []string) ([]model.Product, error)
	// RequestPurchase starts a purchase flow. Its outcome arrives on the
	// purchase-update or purchase-error stream.
	RequestPurchase(ctx context.Context, sku, payload string) error
	// ConsumePurchase marks a completed purchase consumed so the SKU can be
	// bought again.
	ConsumePurchase(ctx context.Context, p model.Purchase) error
	OnPurchaseUpdated(handler func(model.Purchase)) gateway.Subscription
	OnPurchaseError(handler func(*model.PurchaseError)) gateway.Subscription
	Close() error
}
