package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"SignalDesk/internal/model"

	"gopkg.in/yaml.v3"
)

// Billing providers.
const (
	ProviderSandbox  = "sandbox"
	ProviderTelegram = "telegram"
)

// Config holds all application configuration.
type Config struct {
	App struct {
		PackageName string `yaml:"package_name"`
	} `yaml:"app"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		File   string `yaml:"file"`
	} `yaml:"logging"`
	Notifications struct {
		Enabled     bool   `yaml:"enabled"`
		RedisAddr   string `yaml:"redis_addr"`
		Password    string `yaml:"password"`
		DB          int    `yaml:"db"`
		Prefix      string `yaml:"prefix"`
		DeviceToken string `yaml:"device_token"`
	} `yaml:"notifications"`
	Billing struct {
		Provider        string          `yaml:"provider"`
		VerificationKey string          `yaml:"verification_key"`
		SKUs            []string        `yaml:"skus"`
		Products        []model.Product `yaml:"products"`
		Telegram        struct {
			BotToken string `yaml:"bot_token"`
			ChatID   string `yaml:"chat_id"`
		} `yaml:"telegram"`
	} `yaml:"billing"`
	Cache struct {
		RedisAddr string        `yaml:"redis_addr"`
		Password  string        `yaml:"password"`
		DB        int           `yaml:"db"`
		TTL       time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
		CatalogCron string `yaml:"catalog_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Notifications.Enabled = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
	if v := os.Getenv("NOTIFICATIONS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Notifications.Enabled = b
		}
	}
	if v := os.Getenv("PUSH_REDIS_ADDR"); v != "" {
		cfg.Notifications.RedisAddr = v
	}
	if v := os.Getenv("PUSH_REDIS_PASSWORD"); v != "" {
		cfg.Notifications.Password = v
	}
	if v := os.Getenv("DEVICE_TOKEN"); v != "" {
		cfg.Notifications.DeviceToken = v
	}
	if v := os.Getenv("BILLING_PROVIDER"); v != "" {
		cfg.Billing.Provider = v
	}
	if v := os.Getenv("BILLING_VERIFICATION_KEY"); v != "" {
		cfg.Billing.VerificationKey = v
	}
	if v := os.Getenv("BILLING_SKUS"); v != "" {
		cfg.Billing.SKUs = splitList(v)
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Billing.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Billing.Telegram.ChatID = v
	}
	if v := os.Getenv("CACHE_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.App.PackageName == "" {
		cfg.App.PackageName = "app.signaldesk"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = "data/signaldesk.log"
	}
	if cfg.Notifications.Prefix == "" {
		cfg.Notifications.Prefix = "signaldesk:"
	}
	if cfg.Billing.Provider == "" {
		cfg.Billing.Provider = ProviderSandbox
	}
	if cfg.Billing.Provider == ProviderTelegram && cfg.Billing.VerificationKey == "" {
		cfg.Billing.VerificationKey = cfg.Billing.Telegram.BotToken
	}
	if cfg.Billing.Provider == ProviderSandbox && cfg.Billing.VerificationKey == "" {
		cfg.Billing.VerificationKey = "sandbox"
	}
	if len(cfg.Billing.SKUs) == 0 {
		for _, p := range cfg.Billing.Products {
			cfg.Billing.SKUs = append(cfg.Billing.SKUs, p.SKU)
		}
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 5 * time.Minute
	}
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "0 */5 * * * *"
	}
	if cfg.Schedule.CatalogCron == "" {
		cfg.Schedule.CatalogCron = "0 0 * * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/signaldesk.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.Billing.Provider {
	case ProviderSandbox:
	case ProviderTelegram:
		if c.Billing.VerificationKey == "" {
			return fmt.Errorf("billing.telegram.bot_token is required for the telegram provider")
		}
		if c.Billing.Telegram.ChatID == "" {
			return fmt.Errorf("billing.telegram.chat_id is required for the telegram provider")
		}
	default:
		return fmt.Errorf("billing.provider must be %q or %q, got %q", ProviderSandbox, ProviderTelegram, c.Billing.Provider)
	}
	for _, p := range c.Billing.Products {
		if p.SKU == "" {
			return fmt.Errorf("billing.products: sku is required")
		}
		if p.Price.IsNegative() {
			return fmt.Errorf("billing.products: %s has a negative price", p.SKU)
		}
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
