package main

import (
	"context"
	"os"

	"SignalDesk/internal/billing"
	billingmemory "SignalDesk/internal/billing/memory"
	"SignalDesk/internal/billing/telegram"
	"SignalDesk/internal/cache"
	"SignalDesk/internal/config"
	"SignalDesk/internal/gateway"
	"SignalDesk/internal/logging"
	"SignalDesk/internal/model"
	"SignalDesk/internal/notification"
	pushmemory "SignalDesk/internal/notification/memory"
	"SignalDesk/internal/notification/redispush"
	"SignalDesk/internal/recorder"
	"SignalDesk/internal/scheduler"
	"SignalDesk/internal/signals"
	"SignalDesk/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// signalTopic is the push topic every client subscribes to on startup.
const signalTopic = "new_signals"

func main() {
	// .env is optional
	_ = godotenv.Load()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("config validation: %v", err)
	}

	// Logging goes to a file; the terminal belongs to the UI
	logger, logFile, err := logging.Configure(cfg.Logging.Format, cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		logrus.Fatalf("configure logging: %v", err)
	}
	defer logFile.Close()
	logger.Info("SignalDesk starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := newRecorder(cfg, logger)
	defer rec.Close()

	feedCache := newCache(ctx, cfg, logger)
	defer feedCache.Close()
	repo := signals.NewCachedRepository(signals.NewStaticRepository(), feedCache, cfg.Cache.TTL, logger)

	// Gateway events reach the UI through the program; Send blocks until Run
	// starts and is a no-op after it returns.
	var program *tea.Program
	send := func(msg tea.Msg) {
		if program != nil {
			program.Send(msg)
		}
	}

	notifications := notification.NewService(newPushGateway(ctx, cfg, logger), logger,
		notification.WithRecorder(rec),
		notification.WithMessageHandler(func(m model.RemoteMessage) {
			send(ui.NotificationMsg{Message: m})
		}),
		notification.WithOpenedHandler(func(m model.RemoteMessage) {
			send(ui.NotificationMsg{Message: m, Opened: true})
		}),
	)

	store := billing.NewService(newBillingGateway(cfg, logger), cfg.Billing.VerificationKey, logger,
		billing.WithRecorder(rec),
		billing.WithPurchaseHandler(func(p model.Purchase) {
			send(ui.PurchaseUpdatedMsg{Purchase: p})
		}),
		billing.WithErrorHandler(func(e *model.PurchaseError) {
			send(ui.PurchaseFailedMsg{Err: e})
		}),
	)

	program = tea.NewProgram(
		ui.New(ctx, ui.Deps{Signals: repo, Billing: store, SKUs: cfg.Billing.SKUs}),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	if err := notifications.Initialize(ctx); err != nil {
		logger.WithError(err).Error("init notifications")
	}
	notifications.SubscribeToTopic(ctx, signalTopic)
	defer notifications.Close()

	if err := store.Initialize(ctx); err != nil {
		logger.WithError(err).WithField("kind", gateway.Kind(err)).Warn("billing unavailable, plans will not load")
	}
	defer store.Dispose()

	sched := scheduler.NewScheduler(ctx, repo, store, cfg.Billing.SKUs, logger)
	sched.OnSignals = func(list []model.Signal) { send(ui.SignalsLoadedMsg{Signals: list}) }
	sched.OnCatalog = func(products []model.Product) { send(ui.ProductsLoadedMsg{Products: products}) }
	if err := sched.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.CatalogCron); err != nil {
		logger.WithError(err).Fatal("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if _, err := program.Run(); err != nil {
		logger.WithError(err).Error("ui stopped with error")
	}
	logger.Info("SignalDesk stopped")
}

func newRecorder(cfg *config.Config, log logrus.FieldLogger) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
	if err != nil {
		log.WithError(err).Warn("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}

func newCache(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) cache.Cache {
	if cfg.Cache.RedisAddr == "" {
		return cache.NewMemoryCache()
	}
	rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.Password, cfg.Cache.DB, cfg.Notifications.Prefix)
	if err != nil {
		log.WithError(err).Warn("connect feed cache failed, using memory")
		return cache.NewMemoryCache()
	}
	return rc
}

func newPushGateway(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) notification.Gateway {
	n := cfg.Notifications
	if n.RedisAddr == "" {
		gw := pushmemory.New()
		if n.DeviceToken != "" {
			gw.DeviceToken = n.DeviceToken
		}
		if !n.Enabled {
			gw.Status = notification.StatusDenied
		}
		return gw
	}
	return redispush.New(ctx, redispush.Config{
		Addr:        n.RedisAddr,
		Password:    n.Password,
		DB:          n.DB,
		Prefix:      n.Prefix,
		Enabled:     n.Enabled,
		DeviceToken: n.DeviceToken,
	}, log)
}

func newBillingGateway(cfg *config.Config, log logrus.FieldLogger) billing.Gateway {
	if cfg.Billing.Provider == config.ProviderTelegram {
		return telegram.New(telegram.Config{
			ChatID:      cfg.Billing.Telegram.ChatID,
			PackageName: cfg.App.PackageName,
			Catalog:     cfg.Billing.Products,
			Proxy:       cfg.Proxy,
		}, log)
	}
	return billingmemory.New(cfg.App.PackageName, cfg.Billing.Products)
}
