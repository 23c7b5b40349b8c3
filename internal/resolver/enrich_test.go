package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kloudy-Sky/openintel/internal/domain"
)

type fakeResolver struct {
	markets map[string]*domain.ResolvedMarket
}

func (f *fakeResolver) Resolve(ctx context.Context, ticker string) *domain.ResolvedMarket {
	return f.markets[ticker]
}

func TestEnrichAttachesPriceAndKellySize(t *testing.T) {
	resolver := &fakeResolver{markets: map[string]*domain.ResolvedMarket{
		"KXBTC": {ContractTicker: "KXBTC-26AUG30-B65000", PriceCents: 50, Exchange: domain.ExchangeKalshi},
	}}
	e := NewEnricher(resolver, domain.DefaultKellyConfig(), EnricherConfig{}, testLogger())

	opps := []domain.Opportunity{
		{Title: "btc convergence", MarketTicker: "KXBTC", Confidence: 0.6, DetectedAt: time.Now().UTC()},
	}
	require.NoError(t, e.Enrich(context.Background(), opps, 100_000))

	require.NotNil(t, opps[0].MarketPrice)
	assert.Equal(t, 50.0, *opps[0].MarketPrice)
	require.NotNil(t, opps[0].SuggestedSizeCents)
	// f* = (1*0.6 - 0.4)/1 = 0.2, halved to 0.1 of bankroll, capped at 2500.
	assert.Equal(t, int64(2500), *opps[0].SuggestedSizeCents)
}

func TestEnrichSkipsSizingForEquities(t *testing.T) {
	resolver := &fakeResolver{markets: map[string]*domain.ResolvedMarket{
		"COIN": {ContractTicker: "COIN", PriceCents: 21345, Exchange: domain.ExchangeEquity},
	}}
	e := NewEnricher(resolver, domain.DefaultKellyConfig(), EnricherConfig{}, testLogger())

	opps := []domain.Opportunity{
		{Title: "coin divergence", MarketTicker: "COIN", Confidence: 0.7},
	}
	require.NoError(t, e.Enrich(context.Background(), opps, 100_000))

	require.NotNil(t, opps[0].MarketPrice)
	assert.Nil(t, opps[0].SuggestedSizeCents)
}

func TestEnrichLeavesUnresolvableUntouched(t *testing.T) {
	e := NewEnricher(&fakeResolver{}, domain.DefaultKellyConfig(), EnricherConfig{}, testLogger())

	opps := []domain.Opportunity{
		{Title: "no ticker", Confidence: 0.9},
		{Title: "unknown ticker", MarketTicker: "ZZZZ", Confidence: 0.9},
	}
	require.NoError(t, e.Enrich(context.Background(), opps, 100_000))

	for _, opp := range opps {
		assert.Nil(t, opp.MarketPrice)
		assert.Nil(t, opp.SuggestedSizeCents)
	}
}

func TestEnrichOmitsZeroSizes(t *testing.T) {
	resolver := &fakeResolver{markets: map[string]*domain.ResolvedMarket{
		"KXFED": {ContractTicker: "KXFED-26SEP-T4.00", PriceCents: 60, Exchange: domain.ExchangeKalshi},
	}}
	e := NewEnricher(resolver, domain.DefaultKellyConfig(), EnricherConfig{}, testLogger())

	// Confidence barely above the implied probability, inside the
	// minimum edge, so Kelly returns a zero size.
	opps := []domain.Opportunity{
		{Title: "fed drift", MarketTicker: "KXFED", Confidence: 0.62},
	}
	require.NoError(t, e.Enrich(context.Background(), opps, 100_000))

	require.NotNil(t, opps[0].MarketPrice)
	assert.Nil(t, opps[0].SuggestedSizeCents)
}
