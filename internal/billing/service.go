package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"SignalDesk/internal/gateway"
	"SignalDesk/internal/model"
	"SignalDesk/internal/recorder"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrDisposed is returned by Initialize after Dispose.
var ErrDisposed = errors.New("billing service disposed")

// Service is the client's payment wrapper. It relays the gateway's purchase
// lifecycle and consumes completed purchases.
type Service struct {
	gw         Gateway
	key        string
	log        logrus.FieldLogger
	rec        recorder.Recorder
	onPurchase func(model.Purchase)
	onError    func(*model.PurchaseError)
	newPayload func() string

	ctx         context.Context
	mu          sync.Mutex
	subs        []gateway.Subscription
	initialized bool
	disposed    atomic.Bool
}

// Option configures a Service.
type Option func(*Service)

// WithPurchaseHandler forwards every purchase update to h after it was handled.
func WithPurchaseHandler(h func(model.Purchase)) Option {
	return func(s *Service) { s.onPurchase = h }
}

// WithErrorHandler forwards purchase errors to h.
func WithErrorHandler(h func(*model.PurchaseError)) Option {
	return func(s *Service) { s.onError = h }
}

// WithRecorder journals purchase updates and errors.
func WithRecorder(rec recorder.Recorder) Option {
	return func(s *Service) { s.rec = rec }
}

// NewService creates a Service over gw using verificationKey for Init.
func NewService(gw Gateway, verificationKey string, log logrus.FieldLogger, opts ...Option) *Service {
	s := &Service{
		gw:         gw,
		key:        verificationKey,
		log:        log.WithField("component", "billing"),
		rec:        recorder.NewNoopRecorder(),
		newPayload: uuid.NewString,
		ctx:        context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize configures the gateway and subscribes to its purchase-update and
// purchase-error streams until Dispose. ctx bounds the consumption calls made
// from the update handler. Calling it again after a success is a no-op.
func (s *Service) Initialize(ctx context.Context) error {
	if s.disposed.Load() {
		return ErrDisposed
	}
	if s.isInitialized() {
		return nil
	}
	if err := s.gw.Init(ctx, s.key); err != nil {
		return fmt.Errorf("init billing gateway: %w", err)
	}

	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return nil
	}
	s.initialized = true
	s.ctx = ctx
	s.mu.Unlock()

	updates := s.gw.OnPurchaseUpdated(s.handleUpdate)
	errs := s.gw.OnPurchaseError(s.handleError)

	s.mu.Lock()
	s.subs = append(s.subs, updates, errs)
	s.mu.Unlock()
	s.log.Info("billing initialized")
	return nil
}

// Products returns catalog metadata for skus. Any failure yields an empty
// slice; the error is logged.
func (s *Service) Products(ctx context.Context, skus []string) []model.Product {
	products, err := s.gw.Products(ctx, skus)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"skus": skus, "kind": gateway.Kind(err)}).
			Error("query products failed")
		return []model.Product{}
	}
	if products == nil {
		return []model.Product{}
	}
	return products
}

// Purchase starts buying sku. Completion is reported on the purchase-update
// stream; initiation failures are logged only.
func (s *Service) Purchase(ctx context.Context, sku string) {
	payload := s.newPayload()
	if err := s.gw.RequestPurchase(ctx, sku, payload); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"sku": sku, "kind": gateway.Kind(err)}).
			Error("request purchase failed")
		return
	}
	s.log.WithFields(logrus.Fields{"sku": sku, "payload": payload}).Info("purchase requested")
}

// Dispose cancels both stream subscriptions and closes the gateway. No
// purchase event reaches the service after Dispose returns.
func (s *Service) Dispose() error {
	if s.disposed.Swap(true) {
		return nil
	}
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
	s.log.Info("billing disposed")
	return s.gw.Close()
}

func (s *Service) isInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

func (s *Service) handleUpdate(p model.Purchase) {
	if s.disposed.Load() {
		return
	}
	entry := s.log.WithFields(logrus.Fields{"sku": p.SKU, "order_id": p.OrderID, "state": p.State})

	consumed := false
	if p.State == model.PurchasePurchased {
		// TODO: verify the purchase token with the backend and persist the
		// entitlement before consuming.
		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()
		if err := s.gw.ConsumePurchase(ctx, p); err != nil {
			entry.WithError(err).WithField("kind", gateway.Kind(err)).Error("consume purchase failed")
		} else {
			consumed = true
			entry.Info("purchase consumed")
		}
	} else {
		entry.Info("purchase updated")
	}

	if err := s.rec.RecordPurchase(&recorder.PurchaseEvent{
		Token:    p.Token,
		OrderID:  p.OrderID,
		SKU:      p.SKU,
		State:    string(p.State),
		Consumed: consumed,
	}); err != nil {
		s.log.WithError(err).Error("record purchase")
	}

	if s.onPurchase != nil {
		s.onPurchase(p)
	}
}

func (s *Service) handleError(e *model.PurchaseError) {
	if s.disposed.Load() {
		return
	}
	s.log.WithFields(logrus.Fields{"sku": e.SKU, "code": e.Code}).Warn(e.Message)

	if err := s.rec.RecordPurchaseError(&recorder.PurchaseErrorEvent{
		Code:    e.Code,
		Message: e.Message,
		SKU:     e.SKU,
	}); err != nil {
		s.log.WithError(err).Error("record purchase error")
	}

	if s.onError != nil {
		s.onError(e)
	}
}
