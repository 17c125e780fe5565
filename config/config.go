// Package config loads the paper trader's settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Servers
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Ledger
	StartingCash    float64 `env:"STARTING_CASH" envDefault:"100000"`
	EnforceFunds    bool    `env:"ENFORCE_FUNDS" envDefault:"false"`
	ForbidShortSell bool    `env:"FORBID_SHORT_SELL" envDefault:"false"`

	// Synthetic price feed. PriceSeed 0 seeds from the clock.
	PriceJitter   float64       `env:"PRICE_JITTER" envDefault:"0.02"`
	PriceSeed     int64         `env:"PRICE_SEED" envDefault:"0"`
	PriceCacheTTL time.Duration `env:"PRICE_CACHE_TTL" envDefault:"0s"`
	BreakerMax    int           `env:"PRICE_BREAKER_FAILURES" envDefault:"5"`
	BreakerReset  time.Duration `env:"PRICE_BREAKER_RESET" envDefault:"30s"`

	// Infrastructure. An empty RedisAddr runs single-instance.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	JournalPath   string `env:"JOURNAL_PATH"`

	// Surface
	JWTSecret      string   `env:"JWT_SECRET"`
	WebhookURL     string   `env:"WEBHOOK_URL"`
	WebhookSecret  string   `env:"WEBHOOK_SECRET"`
	WebhookEvents  []string `env:"WEBHOOK_EVENTS" envSeparator:","`
	RateLimitRPS   float64  `env:"RATE_LIMIT_RPS" envDefault:"0"`
	RateLimitBurst int      `env:"RATE_LIMIT_BURST" envDefault:"20"`
	EventBuffer    int      `env:"EVENT_BUFFER" envDefault:"1024"`
	ReplaySize     int      `env:"WS_REPLAY_SIZE" envDefault:"256"`

	// Risk limits, 0 disables each.
	MaxOrderQty      int64   `env:"MAX_ORDER_QTY" envDefault:"0"`
	MaxOpenPositions int     `env:"MAX_OPEN_POSITIONS" envDefault:"0"`
	MaxOrderNotional float64 `env:"MAX_ORDER_NOTIONAL" envDefault:"0"`
}

// Load reads an optional dotenv file (missing is fine) and then the
// environment. Variables already set win over the file.
func Load(dotenv string) (*Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", dotenv, err)
		}
	}
	cfg := new(Config)
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the components cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.StartingCash <= 0 {
		errs = append(errs, fmt.Errorf("STARTING_CASH must be positive, got %v", c.StartingCash))
	}
	if c.PriceJitter < 0 || c.PriceJitter >= 1 {
		errs = append(errs, fmt.Errorf("PRICE_JITTER must be in [0,1), got %v", c.PriceJitter))
	}
	if c.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %v", c.RateLimitRPS))
	}
	if c.MaxOrderQty < 0 || c.MaxOpenPositions < 0 || c.MaxOrderNotional < 0 {
		errs = append(errs, errors.New("risk limits must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// RedisEnabled reports whether a Redis address is configured.
func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }
