package domain

import (
	"context"
	"time"
)

// Quote is a cached market price with the time it was observed.
type Quote struct {
	ContractTicker string
	PriceCents     float64
	Exchange       Exchange
	ObservedAt     time.Time
}

// QuoteCache is a short-lived cache of resolved market quotes, keyed
// by the opportunity ticker. Implementations return ErrNotFound for
// missing tickers; freshness checks are the caller's concern.
type QuoteCache interface {
	SetQuote(ctx context.Context, ticker string, quote Quote) error
	GetQuote(ctx context.Context, ticker string) (Quote, error)
}

// LockManager provides distributed mutual exclusion, used to keep two
// execution runs from deploying against the same bankroll at once.
// Acquire returns ErrLockHeld when another holder owns the lock.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// RateLimiter throttles outbound feed requests.
type RateLimiter interface {
	// Allow reports whether a request for key is permitted under
	// limit requests per window, counting it when allowed.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Wait blocks until a request for key is allowed or ctx ends.
	Wait(ctx context.Context, key string) error
}
