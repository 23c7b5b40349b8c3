// Package config defines the top-level configuration for openintel
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Kloudy-Sky/openintel/internal/domain"
	"github.com/Kloudy-Sky/openintel/internal/executor"
)

// Config is the root configuration structure. Fields are populated
// from a TOML file and then optionally overridden by OPENINTEL_*
// environment variables.
type Config struct {
	Postgres PostgresConfig         `toml:"postgres"`
	Redis    RedisConfig            `toml:"redis"`
	S3       S3Config               `toml:"s3"`
	Kalshi   KalshiConfig           `toml:"kalshi"`
	Yahoo    YahooConfig            `toml:"yahoo"`
	Scan     ScanConfig             `toml:"scan"`
	Resolver ResolverConfig         `toml:"resolver"`
	Kelly    domain.KellyConfig     `toml:"kelly"`
	Executor executor.PlannerConfig `toml:"executor"`
	Notify   NotifyConfig           `toml:"notify"`
	Mode     string                 `toml:"mode"`
	LogLevel string                 `toml:"log_level"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters. Redis is optional:
// with Enabled false the resolver skips the quote cache and execution
// runs without the bankroll lock.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for report
// archiving. With Enabled false no reports are archived.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// KalshiConfig holds Kalshi endpoints, tracked series, and API
// credentials. The markets endpoint is public; credentials are only
// required for the authenticated websocket stream.
type KalshiConfig struct {
	BaseURL string `toml:"base_url"`
	WSURL   string `toml:"ws_url"`

	// Series are the series tickers tracked by the feed and the
	// resolver.
	Series []string `toml:"series"`

	// StreamTickers are the contract tickers the stream mode
	// subscribes to.
	StreamTickers []string `toml:"stream_tickers"`

	APIKeyID           string `toml:"api_key_id"`
	PrivateKeyPath     string `toml:"private_key_path"`
	EncryptedCredsPath string `toml:"encrypted_creds_path"`
	CredsPassword      string `toml:"creds_password"`
}

// YahooConfig holds the equity tickers fetched from Yahoo Finance.
type YahooConfig struct {
	Tickers []string `toml:"tickers"`
	BaseURL string   `toml:"base_url"`
}

// ScanConfig tunes detection runs.
type ScanConfig struct {
	WindowHours int     `toml:"window_hours"`
	EntryLimit  int     `toml:"entry_limit"`
	MinScore    float64 `toml:"min_score"`
	ResultLimit int     `toml:"result_limit"`
}

// ResolverConfig tunes market price resolution and enrichment.
type ResolverConfig struct {
	// Staleness is how old a cached quote may be before it is
	// re-resolved from the intel store.
	Staleness duration `toml:"staleness"`

	// Concurrency bounds parallel market lookups during enrichment.
	Concurrency int `toml:"concurrency"`

	// LookupTimeout bounds each individual market lookup.
	LookupTimeout duration `toml:"lookup_timeout"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML
// string decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML
// decoder can parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "openintel",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "openintel-reports",
			ForcePathStyle: true,
		},
		Kalshi: KalshiConfig{
			BaseURL: "https://api.elections.kalshi.com/trade-api/v2",
			WSURL:   "wss://api.elections.kalshi.com/trade-api/ws/v2",
			Series:  []string{"KXHIGHNY", "KXINXY", "KXBTC", "KXFED"},
		},
		Yahoo: YahooConfig{
			Tickers: []string{"SPY", "QQQ", "NVDA", "TSLA"},
		},
		Scan: ScanConfig{
			WindowHours: 48,
			EntryLimit:  500,
			ResultLimit: 20,
		},
		Resolver: ResolverConfig{
			Staleness:     duration{5 * time.Minute},
			Concurrency:   4,
			LookupTimeout: duration{10 * time.Second},
		},
		Kelly:    domain.DefaultKellyConfig(),
		Executor: executor.DefaultPlannerConfig(),
		Notify: NotifyConfig{
			Events: []string{"scan_completed", "execution_completed"},
		},
		Mode:     "scan",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"scan":    true,
	"execute": true,
	"feed":    true,
	"stream":  true,
	"kelly":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and
// returns a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: scan, execute, feed, stream, kelly)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Postgres — every mode except kelly touches the intel store.
	if strings.ToLower(c.Mode) != "kelly" {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1 when enabled")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
	}

	// Kalshi
	if c.Kalshi.BaseURL == "" {
		errs = append(errs, "kalshi: base_url must not be empty")
	}
	if strings.ToLower(c.Mode) == "stream" {
		if !c.Redis.Enabled {
			errs = append(errs, "stream mode requires redis (the quote cache)")
		}
		if c.Kalshi.WSURL == "" {
			errs = append(errs, "kalshi: ws_url must not be empty for stream mode")
		}
		hasPlain := c.Kalshi.APIKeyID != "" && c.Kalshi.PrivateKeyPath != ""
		hasEncrypted := c.Kalshi.EncryptedCredsPath != ""
		if !hasPlain && !hasEncrypted {
			errs = append(errs, "kalshi: api_key_id + private_key_path or encrypted_creds_path is required for stream mode")
		}
		if hasEncrypted && c.Kalshi.CredsPassword == "" {
			errs = append(errs, "kalshi: creds_password is required when encrypted_creds_path is set")
		}
		if len(c.Kalshi.StreamTickers) == 0 {
			errs = append(errs, "kalshi: stream_tickers must not be empty for stream mode")
		}
	}

	// Scan
	if c.Scan.WindowHours < 0 {
		errs = append(errs, "scan: window_hours must be >= 0")
	}
	if c.Scan.EntryLimit < 0 {
		errs = append(errs, "scan: entry_limit must be >= 0")
	}
	if c.Scan.MinScore < 0 {
		errs = append(errs, "scan: min_score must be >= 0")
	}

	// Resolver
	if c.Resolver.Concurrency < 0 {
		errs = append(errs, "resolver: concurrency must be >= 0")
	}

	// Kelly
	if c.Kelly.Fraction <= 0 || c.Kelly.Fraction > 1 {
		errs = append(errs, fmt.Sprintf("kelly: fraction must be in (0, 1], got %g", c.Kelly.Fraction))
	}
	if c.Kelly.MaxBankrollFraction <= 0 || c.Kelly.MaxBankrollFraction > 1 {
		errs = append(errs, fmt.Sprintf("kelly: max_bankroll_fraction must be in (0, 1], got %g", c.Kelly.MaxBankrollFraction))
	}
	if c.Kelly.MaxPositionCents <= 0 {
		errs = append(errs, "kelly: max_position_cents must be > 0")
	}

	// Executor
	if err := c.Executor.Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	// Notify — chat id and token go together.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
