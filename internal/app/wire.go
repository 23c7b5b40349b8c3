package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/Kloudy-Sky/openintel/internal/blob/s3"
	"github.com/Kloudy-Sky/openintel/internal/cache/redis"
	"github.com/Kloudy-Sky/openintel/internal/config"
	"github.com/Kloudy-Sky/openintel/internal/domain"
	"github.com/Kloudy-Sky/openintel/internal/notify"
	"github.com/Kloudy-Sky/openintel/internal/platform/kalshi"
	"github.com/Kloudy-Sky/openintel/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency the application
// modes need to operate. It is constructed by Wire and torn down by
// the returned cleanup function. Optional fields (quote cache, lock,
// rate limiter, blob storage) are nil when the backing service is
// disabled in config.
type Dependencies struct {
	// Stores
	Intel  domain.IntelRepository
	Trades domain.TradeRepository

	// Caches
	Quotes  domain.QuoteCache
	Locks   domain.LockManager
	Limiter domain.RateLimiter

	// Blob storage
	Archiver *s3blob.Archiver

	// Market data
	Kalshi *kalshi.Client

	// Notifications
	Announcer *notify.Announcer
}

// quoteTTL bounds how long stream-written quotes live in Redis. The
// resolver applies its own staleness window on top.
const quoteTTL = 30 * time.Minute

// Wire constructs all concrete dependency implementations from the
// given configuration and returns them together with a cleanup
// function that should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.Intel = postgres.NewIntelStore(pool)
	deps.Trades = postgres.NewTradeStore(pool)

	// --- Redis (optional) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Quotes = redis.NewQuoteCache(redisClient, quoteTTL)
		deps.Locks = redis.NewLockManager(redisClient)
		deps.Limiter = redis.NewRateLimiter(redisClient)
	}

	// --- S3 blob storage (optional) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), s3blob.NewReader(s3Client))
	}

	// --- Kalshi market data ---
	deps.Kalshi = kalshi.NewClient(cfg.Kalshi.BaseURL, cfg.Kalshi.APIKeyID)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Announcer = notify.NewAnnouncer(notify.NewNotifier(senders, cfg.Notify.Events, logger))

	return deps, cleanup, nil
}
