package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"SignalDesk/internal/gateway"
	"SignalDesk/internal/model"

	"github.com/sirupsen/logrus"
)

// Currency is the Telegram Stars currency code.
const Currency = "XTR"

// ErrorItemUnavailable is the purchase-error code for checkouts of SKUs
// outside the catalog.
const ErrorItemUnavailable = "item_unavailable"

// Config holds the Stars gateway settings.
type Config struct {
	ChatID      string
	PackageName string
	Catalog     []model.Product
	Proxy       string
	APIBase     string        // defaults to the public Bot API
	PollTimeout int           // long-poll timeout in seconds
	RetryDelay  time.Duration // pause after a failed poll
}

// Gateway is a billing.Gateway backed by Telegram Stars payments.
type Gateway struct {
	chatID      string
	packageName string
	catalog     map[string]model.Product
	apiBase     string
	pollTimeout int
	retryDelay  time.Duration
	client      *http.Client
	log         logrus.FieldLogger

	mu       sync.Mutex
	token    string
	cancel   context.CancelFunc
	done     chan struct{}
	closed   bool
	paid     map[string]model.Purchase
	consumed map[string]bool

	updates gateway.Stream[model.Purchase]
	errors  gateway.Stream[*model.PurchaseError]
}

// New creates a Stars gateway. Polling starts on Init.
func New(cfg Config, log logrus.FieldLogger) *Gateway {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 30
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	catalog := make(map[string]model.Product, len(cfg.Catalog))
	for _, p := range cfg.Catalog {
		p.Currency = Currency
		catalog[p.SKU] = p
	}
	return &Gateway{
		chatID:      cfg.ChatID,
		packageName: cfg.PackageName,
		catalog:     catalog,
		apiBase:     strings.TrimRight(cfg.APIBase, "/"),
		pollTimeout: cfg.PollTimeout,
		retryDelay:  cfg.RetryDelay,
		client:      newHTTPClient(cfg.Proxy, time.Duration(cfg.PollTimeout+5)*time.Second),
		log:         log.WithField("component", "telegram_stars"),
		paid:        make(map[string]model.Purchase),
		consumed:    make(map[string]bool),
	}
}

// Init verifies the bot token with getMe and starts polling for payments.
func (g *Gateway) Init(ctx context.Context, botToken string) error {
	if botToken == "" {
		return fmt.Errorf("telegram stars: empty bot token: %w", gateway.ErrNotConfigured)
	}
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return fmt.Errorf("telegram stars closed: %w", gateway.ErrNotConfigured)
	}
	if g.cancel != nil {
		g.mu.Unlock()
		return nil
	}
	g.token = botToken
	g.mu.Unlock()

	var me struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	}
	if err := g.call(ctx, "getMe", struct{}{}, &me); err != nil {
		g.mu.Lock()
		g.token = ""
		g.mu.Unlock()
		return fmt.Errorf("verify bot token: %w", err)
	}

	pctx, cancel := context.WithCancel(context.Background())
	g.mu.Lock()
	g.cancel = cancel
	g.done = make(chan struct{})
	g.mu.Unlock()
	go g.poll(pctx)

	g.log.WithField("bot", me.Username).Info("telegram stars initialized")
	return nil
}

// Products returns the catalog entries for skus, priced in Stars.
func (g *Gateway) Products(_ context.Context, skus []string) ([]model.Product, error) {
	if err := g.usable(); err != nil {
		return nil, err
	}
	out := make([]model.Product, 0, len(skus))
	for _, sku := range skus {
		if p, ok := g.catalog[sku]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// RequestPurchase sends a Stars invoice for sku to the configured chat.
func (g *Gateway) RequestPurchase(ctx context.Context, sku, payload string) error {
	if err := g.usable(); err != nil {
		return err
	}
	if g.chatID == "" {
		return fmt.Errorf("telegram stars: no chat to invoice: %w", gateway.ErrNotConfigured)
	}
	p, ok := g.catalog[sku]
	if !ok {
		return fmt.Errorf("telegram stars: unknown sku %q", sku)
	}
	amount := p.Price.IntPart()
	if amount <= 0 {
		return fmt.Errorf("telegram stars: sku %q has no Stars price", sku)
	}

	invoice := map[string]any{
		"chat_id":        g.chatID,
		"title":          p.Title,
		"description":    invoiceDescription(p),
		"payload":        encodePayload(sku, payload),
		"provider_token": "",
		"currency":       Currency,
		"prices":         []map[string]any{{"label": p.Title, "amount": amount}},
	}
	if err := g.call(ctx, "sendInvoice", invoice, nil); err != nil {
		return fmt.Errorf("send invoice: %w", err)
	}
	g.log.WithFields(logrus.Fields{"sku": sku, "amount": amount}).Info("invoice sent")
	return nil
}

// ConsumePurchase marks a paid purchase consumed. Stars charges are final, so
// consumption is bookkeeping only.
func (g *Gateway) ConsumePurchase(_ context.Context, p model.Purchase) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	known, ok := g.paid[p.Token]
	if !ok || known.SKU != p.SKU {
		return fmt.Errorf("consume %s: unknown payment charge", p.SKU)
	}
	if g.consumed[p.Token] {
		return fmt.Errorf("consume %s: already consumed", p.SKU)
	}
	g.consumed[p.Token] = true
	return nil
}

func (g *Gateway) OnPurchaseUpdated(handler func(model.Purchase)) gateway.Subscription {
	return g.updates.Listen(handler)
}

func (g *Gateway) OnPurchaseError(handler func(*model.PurchaseError)) gateway.Subscription {
	return g.errors.Listen(handler)
}

// Close stops polling and drops all listeners.
func (g *Gateway) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	cancel, done := g.cancel, g.done
	g.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	g.updates.Reset()
	g.errors.Reset()
	return nil
}

func (g *Gateway) usable() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return fmt.Errorf("telegram stars closed: %w", gateway.ErrNotConfigured)
	}
	if g.cancel == nil {
		return fmt.Errorf("telegram stars not initialized: %w", gateway.ErrNotConfigured)
	}
	return nil
}

// update is the subset of a Bot API update the gateway handles.
type update struct {
	UpdateID         int               `json:"update_id"`
	PreCheckoutQuery *preCheckoutQuery `json:"pre_checkout_query"`
	Message          *struct {
		Date              int64              `json:"date"`
		SuccessfulPayment *successfulPayment `json:"successful_payment"`
	} `json:"message"`
}

type preCheckoutQuery struct {
	ID             string `json:"id"`
	Currency       string `json:"currency"`
	TotalAmount    int64  `json:"total_amount"`
	InvoicePayload string `json:"invoice_payload"`
}

type successfulPayment struct {
	Currency                string `json:"currency"`
	TotalAmount             int64  `json:"total_amount"`
	InvoicePayload          string `json:"invoice_payload"`
	TelegramPaymentChargeID string `json:"telegram_payment_charge_id"`
	ProviderPaymentChargeID string `json:"provider_payment_charge_id"`
}

// poll long-polls getUpdates until ctx is cancelled.
func (g *Gateway) poll(ctx context.Context) {
	defer close(g.done)
	offset := 0
	for {
		select {
		case <-ctx.Done():
			g.log.Info("telegram polling stopped")
			return
		default:
		}

		var updates []update
		err := g.call(ctx, "getUpdates", map[string]any{
			"offset":          offset,
			"timeout":         g.pollTimeout,
			"allowed_updates": []string{"message", "pre_checkout_query"},
		}, &updates)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			g.log.WithError(err).WithField("kind", gateway.Kind(err)).Warn("polling request failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(g.retryDelay):
			}
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			switch {
			case u.PreCheckoutQuery != nil:
				g.answerPreCheckout(ctx, u.PreCheckoutQuery)
			case u.Message != nil && u.Message.SuccessfulPayment != nil:
				g.paymentReceived(u.Message.SuccessfulPayment, u.Message.Date)
			}
		}
	}
}

// answerPreCheckout approves checkouts of known SKUs paid in Stars.
func (g *Gateway) answerPreCheckout(ctx context.Context, q *preCheckoutQuery) {
	sku, _ := decodePayload(q.InvoicePayload)
	p, known := g.catalog[sku]
	ok := known && q.Currency == Currency && q.TotalAmount == p.Price.IntPart()

	answer := map[string]any{"pre_checkout_query_id": q.ID, "ok": ok}
	if !ok {
		answer["error_message"] = "This plan is no longer available."
	}
	if err := g.call(ctx, "answerPreCheckoutQuery", answer, nil); err != nil {
		g.log.WithError(err).WithField("sku", sku).Error("answer pre-checkout query")
	}
	if !ok {
		g.errors.Publish(&model.PurchaseError{
			Code:    ErrorItemUnavailable,
			Message: "checkout rejected",
			SKU:     sku,
		})
	}
}

func (g *Gateway) paymentReceived(sp *successfulPayment, date int64) {
	sku, payload := decodePayload(sp.InvoicePayload)
	p := model.Purchase{
		Token:       sp.TelegramPaymentChargeID,
		OrderID:     sp.ProviderPaymentChargeID,
		PackageName: g.packageName,
		SKU:         sku,
		Payload:     payload,
		State:       model.PurchasePurchased,
		PurchasedAt: time.Unix(date, 0),
	}
	if p.OrderID == "" {
		p.OrderID = p.Token
	}
	g.mu.Lock()
	g.paid[p.Token] = p
	g.mu.Unlock()
	g.updates.Publish(p)
}

func invoiceDescription(p model.Product) string {
	if p.Description != "" {
		return p.Description
	}
	return p.Title
}

const payloadSep = "|"

func encodePayload(sku, payload string) string {
	return sku + payloadSep + payload
}

func decodePayload(s string) (sku, payload string) {
	sku, payload, _ = strings.Cut(s, payloadSep)
	return sku, payload
}
