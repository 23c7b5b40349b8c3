package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of
// the built-in defaults, applies OPENINTEL_* environment variable
// overrides, and returns the final Config. The returned Config has
// NOT been validated; the caller should invoke Config.Validate()
// after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known OPENINTEL_* environment variables
// and overwrites the corresponding Config fields when a variable is
// set (i.e. not empty). This lets operators inject secrets at deploy
// time without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "OPENINTEL_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "OPENINTEL_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "OPENINTEL_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "OPENINTEL_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "OPENINTEL_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "OPENINTEL_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "OPENINTEL_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "OPENINTEL_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "OPENINTEL_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "OPENINTEL_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "OPENINTEL_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "OPENINTEL_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "OPENINTEL_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "OPENINTEL_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "OPENINTEL_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "OPENINTEL_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "OPENINTEL_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "OPENINTEL_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "OPENINTEL_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "OPENINTEL_S3_REGION")
	setStr(&cfg.S3.Bucket, "OPENINTEL_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "OPENINTEL_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "OPENINTEL_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "OPENINTEL_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "OPENINTEL_S3_FORCE_PATH_STYLE")

	// ── Kalshi ──
	setStr(&cfg.Kalshi.BaseURL, "OPENINTEL_KALSHI_BASE_URL")
	setStr(&cfg.Kalshi.WSURL, "OPENINTEL_KALSHI_WS_URL")
	setStringSlice(&cfg.Kalshi.Series, "OPENINTEL_KALSHI_SERIES")
	setStringSlice(&cfg.Kalshi.StreamTickers, "OPENINTEL_KALSHI_STREAM_TICKERS")
	setStr(&cfg.Kalshi.APIKeyID, "OPENINTEL_KALSHI_API_KEY_ID")
	setStr(&cfg.Kalshi.PrivateKeyPath, "OPENINTEL_KALSHI_PRIVATE_KEY_PATH")
	setStr(&cfg.Kalshi.EncryptedCredsPath, "OPENINTEL_KALSHI_ENCRYPTED_CREDS_PATH")
	setStr(&cfg.Kalshi.CredsPassword, "OPENINTEL_KALSHI_CREDS_PASSWORD")

	// ── Yahoo ──
	setStringSlice(&cfg.Yahoo.Tickers, "OPENINTEL_YAHOO_TICKERS")
	setStr(&cfg.Yahoo.BaseURL, "OPENINTEL_YAHOO_BASE_URL")

	// ── Scan ──
	setInt(&cfg.Scan.WindowHours, "OPENINTEL_SCAN_WINDOW_HOURS")
	setInt(&cfg.Scan.EntryLimit, "OPENINTEL_SCAN_ENTRY_LIMIT")
	setFloat64(&cfg.Scan.MinScore, "OPENINTEL_SCAN_MIN_SCORE")
	setInt(&cfg.Scan.ResultLimit, "OPENINTEL_SCAN_RESULT_LIMIT")

	// ── Resolver ──
	setDuration(&cfg.Resolver.Staleness, "OPENINTEL_RESOLVER_STALENESS")
	setInt(&cfg.Resolver.Concurrency, "OPENINTEL_RESOLVER_CONCURRENCY")
	setDuration(&cfg.Resolver.LookupTimeout, "OPENINTEL_RESOLVER_LOOKUP_TIMEOUT")

	// ── Kelly ──
	setFloat64(&cfg.Kelly.Fraction, "OPENINTEL_KELLY_FRACTION")
	setInt64(&cfg.Kelly.MaxPositionCents, "OPENINTEL_KELLY_MAX_POSITION_CENTS")
	setFloat64(&cfg.Kelly.MinEdge, "OPENINTEL_KELLY_MIN_EDGE")
	setFloat64(&cfg.Kelly.MaxBankrollFraction, "OPENINTEL_KELLY_MAX_BANKROLL_FRACTION")

	// ── Executor ──
	setFloat64(&cfg.Executor.MinScore, "OPENINTEL_EXECUTOR_MIN_SCORE")
	setFloat64(&cfg.Executor.MinConfidence, "OPENINTEL_EXECUTOR_MIN_CONFIDENCE")
	setInt64(&cfg.Executor.MaxDailyCents, "OPENINTEL_EXECUTOR_MAX_DAILY_CENTS")
	setInt64(&cfg.Executor.BankrollCents, "OPENINTEL_EXECUTOR_BANKROLL_CENTS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "OPENINTEL_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "OPENINTEL_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "OPENINTEL_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "OPENINTEL_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "OPENINTEL_MODE")
	setStr(&cfg.LogLevel, "OPENINTEL_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
