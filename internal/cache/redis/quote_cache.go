package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Kloudy-Sky/openintel/internal/domain"
)

// QuoteCache implements domain.QuoteCache using Redis hashes. Each
// resolved quote is stored at "quote:{ticker}" with fields for the
// contract, price, exchange, and observation timestamp, expiring after
// ttl so stale venues age out on their own.
type QuoteCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewQuoteCache creates a QuoteCache backed by the given Client.
// ttl <= 0 disables expiry.
func NewQuoteCache(c *Client, ttl time.Duration) *QuoteCache {
	return &QuoteCache{rdb: c.Underlying(), ttl: ttl}
}

func quoteKey(ticker string) string {
	return "quote:" + ticker
}

// SetQuote stores the latest resolved quote for a ticker.
func (qc *QuoteCache) SetQuote(ctx context.Context, ticker string, quote domain.Quote) error {
	key := quoteKey(ticker)
	fields := map[string]interface{}{
		"contract": quote.ContractTicker,
		"price":    strconv.FormatFloat(quote.PriceCents, 'f', -1, 64),
		"exchange": string(quote.Exchange),
		"ts":       strconv.FormatInt(quote.ObservedAt.UnixNano(), 10),
	}
	pipe := qc.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	if qc.ttl > 0 {
		pipe.Expire(ctx, key, qc.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set quote %s: %w", ticker, err)
	}
	return nil
}

// GetQuote retrieves the latest quote for a ticker. It returns
// domain.ErrNotFound when no quote is cached.
func (qc *QuoteCache) GetQuote(ctx context.Context, ticker string) (domain.Quote, error) {
	vals, err := qc.rdb.HGetAll(ctx, quoteKey(ticker)).Result()
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: get quote %s: %w", ticker, err)
	}
	if len(vals) == 0 {
		return domain.Quote{}, domain.ErrNotFound
	}

	priceStr, ok := vals["price"]
	if !ok {
		return domain.Quote{}, domain.ErrNotFound
	}
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: parse quote price %s: %w", ticker, err)
	}

	tsStr, ok := vals["ts"]
	if !ok {
		return domain.Quote{}, domain.ErrNotFound
	}
	tsNano, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: parse quote ts %s: %w", ticker, err)
	}

	return domain.Quote{
		ContractTicker: vals["contract"],
		PriceCents:     price,
		Exchange:       domain.Exchange(vals["exchange"]),
		ObservedAt:     time.Unix(0, tsNano),
	}, nil
}

// Compile-time interface check.
var _ domain.QuoteCache = (*QuoteCache)(nil)
