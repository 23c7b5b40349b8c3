// Package resolver maps opportunity tickers to live market quotes
// and enriches ranked opportunities with prices and position sizing.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Kloudy-Sky/openintel/internal/domain"
)

// defaultKalshiSeries are the series prefixes resolved against the
// Kalshi feed instead of the equity feed.
var defaultKalshiSeries = []string{"KXHIGHNY", "KXINXY", "KXFED", "KXBTC"}

// IntelResolver resolves tickers from feed entries already ingested
// into the intel store, avoiding external API calls during
// execution. Kalshi series tickers resolve to the most liquid active
// contract; anything else resolves to the latest equity feed price.
//
// Resolved quotes are cached with a staleness window so repeated
// lookups within one run hit the cache.
type IntelResolver struct {
	repo         domain.IntelRepository
	quotes       domain.QuoteCache
	kalshiSeries []string
	staleness    time.Duration
	logger       *slog.Logger
}

// Config tunes an IntelResolver.
type Config struct {
	// KalshiSeries overrides the known series prefixes.
	KalshiSeries []string

	// Staleness is how old a cached quote may be before it is
	// re-resolved. Zero means 5 minutes.
	Staleness time.Duration
}

// NewIntelResolver creates a resolver backed by the intel repository.
// quotes may be nil to disable caching.
func NewIntelResolver(repo domain.IntelRepository, quotes domain.QuoteCache, cfg Config, logger *slog.Logger) *IntelResolver {
	if cfg.KalshiSeries == nil {
		cfg.KalshiSeries = defaultKalshiSeries
	}
	if cfg.Staleness == 0 {
		cfg.Staleness = 5 * time.Minute
	}
	return &IntelResolver{
		repo:         repo,
		quotes:       quotes,
		kalshiSeries: cfg.KalshiSeries,
		staleness:    cfg.Staleness,
		logger:       logger.With(slog.String("component", "resolver")),
	}
}

var _ domain.MarketResolver = (*IntelResolver)(nil)

// Resolve implements domain.MarketResolver. A nil result means no
// fresh tradeable price exists; resolution never errors.
func (r *IntelResolver) Resolve(ctx context.Context, ticker string) *domain.ResolvedMarket {
	if cached := r.fromCache(ctx, ticker); cached != nil {
		return cached
	}

	var market *domain.ResolvedMarket
	if r.isKalshiSeries(ticker) {
		market = r.resolveKalshi(ctx, ticker)
	} else {
		market = r.resolveEquity(ctx, ticker)
	}
	if market == nil {
		return nil
	}

	if r.quotes != nil {
		err := r.quotes.SetQuote(ctx, ticker, domain.Quote{
			ContractTicker: market.ContractTicker,
			PriceCents:     market.PriceCents,
			Exchange:       market.Exchange,
			ObservedAt:     time.Now().UTC(),
		})
		if err != nil {
			r.logger.Warn("quote cache write failed",
				slog.String("ticker", ticker),
				slog.String("error", err.Error()))
		}
	}
	return market
}

func (r *IntelResolver) fromCache(ctx context.Context, ticker string) *domain.ResolvedMarket {
	if r.quotes == nil {
		return nil
	}
	quote, err := r.quotes.GetQuote(ctx, ticker)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.Warn("quote cache read failed",
				slog.String("ticker", ticker),
				slog.String("error", err.Error()))
		}
		return nil
	}
	if time.Since(quote.ObservedAt) > r.staleness {
		return nil
	}
	return &domain.ResolvedMarket{
		ContractTicker: quote.ContractTicker,
		PriceCents:     quote.PriceCents,
		Exchange:       quote.Exchange,
		Description:    fmt.Sprintf("%s (cached quote)", quote.ContractTicker),
	}
}

func (r *IntelResolver) isKalshiSeries(ticker string) bool {
	upper := strings.ToUpper(ticker)
	for _, series := range r.kalshiSeries {
		if strings.HasPrefix(upper, series) {
			return true
		}
	}
	return false
}

// resolveKalshi picks the most liquid active contract for a series
// from recent Kalshi feed entries, scored by volume plus open
// interest. Band-sum aggregate entries are skipped; they describe a
// whole group, not a tradeable contract.
func (r *IntelResolver) resolveKalshi(ctx context.Context, series string) *domain.ResolvedMarket {
	category := domain.CategoryMarket
	entries, err := r.repo.Query(ctx, domain.QueryFilter{
		Category: &category,
		Tag:      "kalshi-feed",
		Limit:    200,
	})
	if err != nil {
		r.logger.Warn("kalshi resolve query failed",
			slog.String("series", series),
			slog.String("error", err.Error()))
		return nil
	}

	var best *domain.ResolvedMarket
	bestLiquidity := int64(-1)

	for i := range entries {
		entry := &entries[i]
		if entry.HasTag("band-sum") {
			continue
		}
		if !entry.HasTag(series) {
			continue
		}
		if entry.Metadata == nil {
			continue
		}

		contractTicker, ok := entry.MetaString("ticker")
		if !ok {
			continue
		}
		midpoint, _ := entry.MetaFloat("midpoint")
		if midpoint <= 0 || midpoint >= 100 {
			continue
		}

		volume, _ := entry.MetaFloat("volume_24h")
		openInterest, _ := entry.MetaFloat("open_interest")
		liquidity := int64(volume) + int64(openInterest)

		if liquidity > bestLiquidity {
			yesBid, _ := entry.MetaFloat("yes_bid")
			yesAsk, ok := entry.MetaFloat("yes_ask")
			if !ok {
				yesAsk = 100
			}
			best = &domain.ResolvedMarket{
				ContractTicker: contractTicker,
				PriceCents:     midpoint,
				Exchange:       domain.ExchangeKalshi,
				Description: fmt.Sprintf("%s — bid %v¢ / ask %v¢ (OI: %d, Vol: %d)",
					contractTicker, yesBid, yesAsk, int64(openInterest), int64(volume)),
			}
			bestLiquidity = liquidity
		}
	}

	return best
}

// resolveEquity finds the latest equity feed price for a ticker.
// Feed prices are dollars; the quote is scaled to cents so both
// venues share one unit.
func (r *IntelResolver) resolveEquity(ctx context.Context, ticker string) *domain.ResolvedMarket {
	category := domain.CategoryMarket
	entries, err := r.repo.Query(ctx, domain.QueryFilter{
		Category: &category,
		Tag:      ticker,
		Limit:    5,
	})
	if err != nil {
		r.logger.Warn("equity resolve query failed",
			slog.String("ticker", ticker),
			slog.String("error", err.Error()))
		return nil
	}

	for i := range entries {
		entry := &entries[i]
		if !entry.HasTag("yahoo-feed") {
			continue
		}
		price, ok := entry.MetaFloat("price")
		if !ok {
			continue
		}
		return &domain.ResolvedMarket{
			ContractTicker: ticker,
			PriceCents:     price * 100,
			Exchange:       domain.ExchangeEquity,
			Description:    fmt.Sprintf("%s @ $%.2f (from Yahoo Finance feed)", ticker, price),
		}
	}

	return nil
}
