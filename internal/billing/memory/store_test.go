package memory

import (
	"context"
	"errors"
	"testing"

	"SignalDesk/internal/gateway"
	"SignalDesk/internal/model"

	"github.com/shopspring/decimal"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s := New("app.signaldesk", []model.Product{
		{SKU: "pro_monthly", Title: "Pro (monthly)", Price: decimal.RequireFromString("4.99"), Currency: "USD"},
	})
	if err := s.Init(context.Background(), "sandbox"); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestConsumePurchase(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	got := make(chan model.Purchase, 1)
	s.OnPurchaseUpdated(func(p model.Purchase) { got <- p })

	if err := s.RequestPurchase(ctx, "pro_monthly", "p-1"); err != nil {
		t.Fatal(err)
	}
	s.Wait()
	p := <-got

	if err := s.ConsumePurchase(ctx, p); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if err := s.ConsumePurchase(ctx, p); err == nil {
		t.Error("second consume should fail")
	}
	if err := s.ConsumePurchase(ctx, model.Purchase{Token: "other", SKU: "pro_monthly", PackageName: "app.signaldesk"}); err == nil {
		t.Error("consume of unknown token should fail")
	}
	if !s.Consumed(p.Token) {
		t.Error("purchase not marked consumed")
	}
}

func TestConsumePurchase_Pending(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	s.HoldPending = true
	got := make(chan model.Purchase, 2)
	s.OnPurchaseUpdated(func(p model.Purchase) { got <- p })

	_ = s.RequestPurchase(ctx, "pro_monthly", "p-1")
	s.Wait()
	p := <-got
	if err := s.ConsumePurchase(ctx, p); err == nil {
		t.Error("pending purchase should not be consumable")
	}
	if err := s.Settle(p.Token); err != nil {
		t.Fatal(err)
	}
	if err := s.Settle(p.Token); err == nil {
		t.Error("settling twice should fail")
	}
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	s.HoldPending = true
	var delivered int
	s.OnPurchaseUpdated(func(model.Purchase) { delivered++ })

	_ = s.RequestPurchase(ctx, "pro_monthly", "p-1")
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if delivered != 1 {
		t.Errorf("in-flight acknowledgement not delivered before Close returned: %d", delivered)
	}
	if up, er := s.Listeners(); up != 0 || er != 0 {
		t.Errorf("listeners = %d/%d", up, er)
	}
	if err := s.RequestPurchase(ctx, "pro_monthly", "p-2"); !errors.Is(err, gateway.ErrNotConfigured) {
		t.Errorf("RequestPurchase after Close = %v", err)
	}
	if err := s.Settle("any"); !errors.Is(err, gateway.ErrNotConfigured) {
		t.Errorf("Settle after Close = %v", err)
	}
}
