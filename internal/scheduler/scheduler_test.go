package scheduler

import (
	"context"
	"errors"
	"testing"

	"SignalDesk/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type fakeRefresher struct {
	list  []model.Signal
	err   error
	calls int
}

func (f *fakeRefresher) Refresh(context.Context) ([]model.Signal, error) {
	f.calls++
	return f.list, f.err
}

type fakeCatalog struct {
	products []model.Product
	skus     []string
}

func (f *fakeCatalog) Products(_ context.Context, skus []string) []model.Product {
	f.skus = skus
	return f.products
}

func TestRegisterAll(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := NewScheduler(context.Background(), &fakeRefresher{}, &fakeCatalog{}, nil, logger)

	if err := s.RegisterAll("0 */5 * * * *", "0 0 * * * *"); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	if n := len(s.Cron.Entries()); n != 2 {
		t.Errorf("entries = %d, want 2", n)
	}
	if err := s.RegisterAll("every minute", "0 0 * * * *"); err == nil {
		t.Error("expected error for invalid cron spec")
	}
}

func TestRefreshTask(t *testing.T) {
	logger, hook := test.NewNullLogger()
	ref := &fakeRefresher{list: []model.Signal{{ID: "1"}, {ID: "2"}}}
	s := NewScheduler(context.Background(), ref, &fakeCatalog{}, nil, logger)
	var got []model.Signal
	s.OnSignals = func(list []model.Signal) { got = list }

	s.RunRefreshNow()
	if len(got) != 2 {
		t.Errorf("delivered %d signals, want 2", len(got))
	}

	got = nil
	ref.err = errors.New("backend down")
	s.RunRefreshNow()
	if got != nil {
		t.Error("failed refresh should not deliver")
	}
	if e := hook.LastEntry(); e == nil || e.Level != logrus.ErrorLevel {
		t.Errorf("expected logged failure, got %+v", e)
	}
}

func TestCatalogTask(t *testing.T) {
	logger, hook := test.NewNullLogger()
	cat := &fakeCatalog{}
	s := NewScheduler(context.Background(), &fakeRefresher{}, cat, []string{"pro_monthly"}, logger)
	calls := 0
	s.OnCatalog = func([]model.Product) { calls++ }

	s.RunCatalogNow()
	if calls != 1 || len(cat.skus) != 1 {
		t.Errorf("calls = %d, skus = %v", calls, cat.skus)
	}
	if e := hook.LastEntry(); e == nil || e.Level != logrus.WarnLevel {
		t.Errorf("empty catalog should warn, got %+v", e)
	}

	s.SKUs = nil
	s.RunCatalogNow()
	if calls != 1 {
		t.Error("catalog task without skus should be a no-op")
	}
}
