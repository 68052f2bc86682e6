// Package memory provides a sandbox billing store. It backs the client when no
// payment provider is configured and serves as the test double.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SignalDesk/internal/gateway"
	"SignalDesk/internal/model"

	"github.com/google/uuid"
)

// ErrorItemUnavailable is the purchase-error code for SKUs outside the catalog.
const ErrorItemUnavailable = "item_unavailable"

// Store sells the products in Catalog. Every purchase is acknowledged on the
// update stream from its own goroutine; with HoldPending set, a pending update
// is sent first and the purchase completes on Settle. The error fields make the
// matching call fail.
type Store struct {
	Catalog     []model.Product
	PackageName string
	HoldPending bool

	ProductsErr error
	RequestErr  error
	ConsumeErr  error

	mu          sync.Mutex
	key         string
	initialized bool
	closed      bool
	purchases   map[string]model.Purchase
	consumed    map[string]bool
	wg          sync.WaitGroup

	updates gateway.Stream[model.Purchase]
	errors  gateway.Stream[*model.PurchaseError]
}

// New creates a store selling catalog.
func New(packageName string, catalog []model.Product) *Store {
	return &Store{
		Catalog:     catalog,
		PackageName: packageName,
		purchases:   make(map[string]model.Purchase),
		consumed:    make(map[string]bool),
	}
}

func (s *Store) Init(_ context.Context, verificationKey string) error {
	if verificationKey == "" {
		return fmt.Errorf("sandbox billing: empty verification key: %w", gateway.ErrNotConfigured)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("sandbox billing closed: %w", gateway.ErrNotConfigured)
	}
	s.key = verificationKey
	s.initialized = true
	return nil
}

// Products returns the catalog entries for skus in request order. Unknown
// SKUs are skipped.
func (s *Store) Products(_ context.Context, skus []string) ([]model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return nil, err
	}
	if s.ProductsErr != nil {
		return nil, s.ProductsErr
	}
	out := make([]model.Product, 0, len(skus))
	for _, sku := range skus {
		if p, ok := s.product(sku); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) RequestPurchase(_ context.Context, sku, payload string) error {
	s.mu.Lock()
	if err := s.usable(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.RequestErr != nil {
		err := s.RequestErr
		s.mu.Unlock()
		return err
	}
	if _, ok := s.product(sku); !ok {
		s.async(func() {
			s.errors.Publish(&model.PurchaseError{
				Code:    ErrorItemUnavailable,
				Message: "item is not in the catalog",
				SKU:     sku,
			})
		})
		s.mu.Unlock()
		return nil
	}

	p := model.Purchase{
		Token:       uuid.NewString(),
		OrderID:     "SANDBOX." + uuid.NewString(),
		PackageName: s.PackageName,
		SKU:         sku,
		Payload:     payload,
		State:       model.PurchasePurchased,
		PurchasedAt: time.Now(),
	}
	if s.HoldPending {
		p.State = model.PurchasePending
	}
	s.purchases[p.Token] = p
	s.async(func() { s.updates.Publish(p) })
	s.mu.Unlock()
	return nil
}

// Settle completes the pending purchase identified by token.
func (s *Store) Settle(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("settle %s: sandbox billing closed: %w", token, gateway.ErrNotConfigured)
	}
	p, ok := s.purchases[token]
	if !ok || p.State != model.PurchasePending {
		return fmt.Errorf("settle %s: no pending purchase", token)
	}
	p.State = model.PurchasePurchased
	s.purchases[token] = p
	s.async(func() { s.updates.Publish(p) })
	return nil
}

func (s *Store) ConsumePurchase(_ context.Context, p model.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return err
	}
	if s.ConsumeErr != nil {
		return s.ConsumeErr
	}
	known, ok := s.purchases[p.Token]
	if !ok || known.SKU != p.SKU || known.PackageName != p.PackageName {
		return fmt.Errorf("consume %s: unknown purchase token", p.SKU)
	}
	if known.State != model.PurchasePurchased {
		return fmt.Errorf("consume %s: purchase is %s", p.SKU, known.State)
	}
	if s.consumed[p.Token] {
		return fmt.Errorf("consume %s: already consumed", p.SKU)
	}
	s.consumed[p.Token] = true
	return nil
}

func (s *Store) OnPurchaseUpdated(handler func(model.Purchase)) gateway.Subscription {
	return s.updates.Listen(handler)
}

func (s *Store) OnPurchaseError(handler func(*model.PurchaseError)) gateway.Subscription {
	return s.errors.Listen(handler)
}

// Close waits for in-flight acknowledgements and drops all listeners.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
	s.updates.Reset()
	s.errors.Reset()
	return nil
}

// Wait blocks until every acknowledgement sent so far was delivered.
func (s *Store) Wait() {
	s.wg.Wait()
}

// Consumed reports whether the purchase with token was consumed.
func (s *Store) Consumed(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consumed[token]
}

// Listeners returns the number of active update and error listeners.
func (s *Store) Listeners() (updates, errors int) {
	return s.updates.Len(), s.errors.Len()
}

// Closed reports whether Close was called.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// async runs fn on its own goroutine. The caller holds s.mu, so the
// acknowledgement is counted before Close can start waiting.
func (s *Store) async(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

func (s *Store) product(sku string) (model.Product, bool) {
	for _, p := range s.Catalog {
		if p.SKU == sku {
			return p, true
		}
	}
	return model.Product{}, false
}

func (s *Store) usable() error {
	if s.closed {
		return fmt.Errorf("sandbox billing closed: %w", gateway.ErrNotConfigured)
	}
	if !s.initialized {
		return fmt.Errorf("sandbox billing not initialized: %w", gateway.ErrNotConfigured)
	}
	return nil
}
