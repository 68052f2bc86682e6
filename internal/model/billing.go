package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Product is catalog metadata for a purchasable SKU.
type Product struct {
	SKU         string          `json:"sku" yaml:"sku"`
	Title       string          `json:"title" yaml:"title"`
	Description string          `json:"description" yaml:"description"`
	Price       decimal.Decimal `json:"price" yaml:"price"`
	Currency    string          `json:"currency" yaml:"currency"`
}

// PurchaseState follows the billing gateway's purchase lifecycle.
type PurchaseState string

const (
	PurchasePending   PurchaseState = "pending"
	PurchasePurchased PurchaseState = "purchased"
	PurchaseFailed    PurchaseState = "failed"
)

// Purchase is a purchase update delivered by the billing gateway.
type Purchase struct {
	Token       string
	OrderID     string
	PackageName string
	SKU         string
	Payload     string
	State       PurchaseState
	PurchasedAt time.Time
}

// PurchaseError is an error event delivered by the billing gateway.
type PurchaseError struct {
	Code    string
	Message string
	SKU     string
}

func (e *PurchaseError) Error() string {
	if e.SKU != "" {
		return fmt.Sprintf("purchase %s failed: %s: %s", e.SKU, e.Code, e.Message)
	}
	return fmt.Sprintf("purchase failed: %s: %s", e.Code, e.Message)
}
