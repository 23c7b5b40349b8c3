package resolver

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kloudy-Sky/openintel/internal/domain"
)

type fakeIntelRepo struct {
	entries []domain.IntelEntry
	queries []domain.QueryFilter
}

func (f *fakeIntelRepo) Add(ctx context.Context, entry *domain.IntelEntry) error { return nil }

func (f *fakeIntelRepo) AddDedup(ctx context.Context, entry *domain.IntelEntry, window time.Duration) (bool, error) {
	return true, nil
}

func (f *fakeIntelRepo) GetByID(ctx context.Context, id string) (*domain.IntelEntry, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeIntelRepo) Query(ctx context.Context, filter domain.QueryFilter) ([]domain.IntelEntry, error) {
	f.queries = append(f.queries, filter)
	var out []domain.IntelEntry
	for _, e := range f.entries {
		if filter.Tag != "" && !e.HasTag(filter.Tag) {
			continue
		}
		if filter.Category != nil && e.Category != *filter.Category {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type fakeQuoteCache struct {
	quotes map[string]domain.Quote
}

func newFakeQuoteCache() *fakeQuoteCache {
	return &fakeQuoteCache{quotes: make(map[string]domain.Quote)}
}

func (f *fakeQuoteCache) SetQuote(ctx context.Context, ticker string, quote domain.Quote) error {
	f.quotes[ticker] = quote
	return nil
}

func (f *fakeQuoteCache) GetQuote(ctx context.Context, ticker string) (domain.Quote, error) {
	quote, ok := f.quotes[ticker]
	if !ok {
		return domain.Quote{}, domain.ErrNotFound
	}
	return quote, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func kalshiEntry(contract, series string, midpoint, volume, openInterest float64) domain.IntelEntry {
	return domain.IntelEntry{
		ID:       contract,
		Category: domain.CategoryMarket,
		Title:    contract,
		Tags:     []string{contract, series, "kalshi-feed"},
		Metadata: map[string]any{
			"ticker":        contract,
			"series":        series,
			"midpoint":      midpoint,
			"yes_bid":       midpoint - 1,
			"yes_ask":       midpoint + 1,
			"volume_24h":    volume,
			"open_interest": openInterest,
		},
	}
}

func TestResolveKalshiPicksMostLiquidContract(t *testing.T) {
	repo := &fakeIntelRepo{entries: []domain.IntelEntry{
		kalshiEntry("KXBTC-26AUG30-B60000", "KXBTC", 42, 100, 50),
		kalshiEntry("KXBTC-26AUG30-B65000", "KXBTC", 30, 900, 400),
		kalshiEntry("KXBTC-26AUG30-B70000", "KXBTC", 12, 200, 100),
	}}
	r := NewIntelResolver(repo, nil, Config{}, testLogger())

	market := r.Resolve(context.Background(), "KXBTC")
	require.NotNil(t, market)
	assert.Equal(t, "KXBTC-26AUG30-B65000", market.ContractTicker)
	assert.Equal(t, 30.0, market.PriceCents)
	assert.Equal(t, domain.ExchangeKalshi, market.Exchange)
	assert.Contains(t, market.Description, "OI: 400")
}

func TestResolveKalshiSkipsBandSumAndDeadContracts(t *testing.T) {
	aggregate := kalshiEntry("KXBTC-26AUG30-B65000", "KXBTC", 50, 9999, 9999)
	aggregate.Tags = append(aggregate.Tags, "band-sum")
	settled := kalshiEntry("KXBTC-26AUG30-B70000", "KXBTC", 100, 500, 500)

	repo := &fakeIntelRepo{entries: []domain.IntelEntry{
		aggregate,
		settled,
		kalshiEntry("KXBTC-26AUG30-B60000", "KXBTC", 42, 10, 10),
	}}
	r := NewIntelResolver(repo, nil, Config{}, testLogger())

	market := r.Resolve(context.Background(), "KXBTC")
	require.NotNil(t, market)
	assert.Equal(t, "KXBTC-26AUG30-B60000", market.ContractTicker)
}

func TestResolveEquityScalesDollarsToCents(t *testing.T) {
	repo := &fakeIntelRepo{entries: []domain.IntelEntry{
		{
			ID:       "1",
			Category: domain.CategoryMarket,
			Title:    "COIN quote",
			Tags:     []string{"COIN", "yahoo-feed"},
			Metadata: map[string]any{"price": 213.45},
		},
	}}
	r := NewIntelResolver(repo, nil, Config{}, testLogger())

	market := r.Resolve(context.Background(), "COIN")
	require.NotNil(t, market)
	assert.Equal(t, domain.ExchangeEquity, market.Exchange)
	assert.InDelta(t, 21345.0, market.PriceCents, 0.001)
	assert.Contains(t, market.Description, "$213.45")
}

func TestResolveReturnsNilWhenNothingMatches(t *testing.T) {
	r := NewIntelResolver(&fakeIntelRepo{}, nil, Config{}, testLogger())
	assert.Nil(t, r.Resolve(context.Background(), "ZZZZ"))
	assert.Nil(t, r.Resolve(context.Background(), "KXFED"))
}

func TestResolveUsesFreshCachedQuote(t *testing.T) {
	cache := newFakeQuoteCache()
	cache.quotes["KXBTC"] = domain.Quote{
		ContractTicker: "KXBTC-26AUG30-B65000",
		PriceCents:     33,
		Exchange:       domain.ExchangeKalshi,
		ObservedAt:     time.Now().UTC(),
	}
	repo := &fakeIntelRepo{}
	r := NewIntelResolver(repo, cache, Config{}, testLogger())

	market := r.Resolve(context.Background(), "KXBTC")
	require.NotNil(t, market)
	assert.Equal(t, 33.0, market.PriceCents)
	assert.Empty(t, repo.queries, "fresh cache hit should not query the store")
}

func TestResolveIgnoresStaleCachedQuote(t *testing.T) {
	cache := newFakeQuoteCache()
	cache.quotes["KXBTC"] = domain.Quote{
		ContractTicker: "KXBTC-26AUG30-B65000",
		PriceCents:     33,
		Exchange:       domain.ExchangeKalshi,
		ObservedAt:     time.Now().UTC().Add(-time.Hour),
	}
	repo := &fakeIntelRepo{entries: []domain.IntelEntry{
		kalshiEntry("KXBTC-26AUG30-B60000", "KXBTC", 42, 100, 50),
	}}
	r := NewIntelResolver(repo, cache, Config{}, testLogger())

	market := r.Resolve(context.Background(), "KXBTC")
	require.NotNil(t, market)
	assert.Equal(t, 42.0, market.PriceCents)
	assert.NotEmpty(t, repo.queries)

	refreshed := cache.quotes["KXBTC"]
	assert.Equal(t, 42.0, refreshed.PriceCents, "resolution should refresh the cache")
}
