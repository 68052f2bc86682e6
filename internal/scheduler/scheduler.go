package scheduler

import (
	"context"
	"fmt"

	"SignalDesk/internal/model"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// SignalRefresher reloads the signal feed from its source.
type SignalRefresher interface {
	Refresh(ctx context.Context) ([]model.Signal, error)
}

// CatalogSource looks up product metadata. An empty result means the lookup failed.
type CatalogSource interface {
	Products(ctx context.Context, skus []string) []model.Product
}

// Scheduler manages the periodic refresh tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Signals   SignalRefresher
	Catalog   CatalogSource
	SKUs      []string
	OnSignals func([]model.Signal)
	OnCatalog func([]model.Product)
	Ctx       context.Context
	log       logrus.FieldLogger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, sig SignalRefresher, cat CatalogSource, skus []string, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Signals: sig,
		Catalog: cat,
		SKUs:    skus,
		Ctx:     ctx,
		log:     log.WithField("component", "scheduler"),
	}
}

// RegisterAll registers the signal-feed and catalog refresh tasks.
func (s *Scheduler) RegisterAll(refreshCron, catalogCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if _, err := s.Cron.AddFunc(catalogCron, s.catalogTask); err != nil {
		return fmt.Errorf("register catalog task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunRefreshNow executes the feed refresh immediately.
func (s *Scheduler) RunRefreshNow() {
	s.refreshTask()
}

// RunCatalogNow executes the catalog refresh immediately.
func (s *Scheduler) RunCatalogNow() {
	s.catalogTask()
}

func (s *Scheduler) refreshTask() {
	s.log.Debug("running feed refresh")
	list, err := s.Signals.Refresh(s.Ctx)
	if err != nil {
		s.log.WithError(err).Error("feed refresh failed")
		return
	}
	s.log.WithField("signals", len(list)).Info("feed refreshed")
	if s.OnSignals != nil {
		s.OnSignals(list)
	}
}

func (s *Scheduler) catalogTask() {
	if len(s.SKUs) == 0 {
		return
	}
	s.log.Debug("running catalog refresh")
	products := s.Catalog.Products(s.Ctx, s.SKUs)
	if len(products) == 0 {
		s.log.WithField("skus", s.SKUs).Warn("catalog refresh returned no products")
	}
	if s.OnCatalog != nil {
		s.OnCatalog(products)
	}
}
