package resolver

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Kloudy-Sky/openintel/internal/domain"
)

// Enricher attaches live market prices and Kelly position sizes to
// ranked opportunities. Lookups fan out concurrently with a bound and
// a per-lookup timeout so one unreachable price source cannot stall
// the run.
type Enricher struct {
	resolver      domain.MarketResolver
	kelly         domain.KellyConfig
	concurrency   int
	lookupTimeout time.Duration
	logger        *slog.Logger
}

// EnricherConfig tunes an Enricher. Zero values fall back to a
// concurrency of 4 and a 10 second lookup timeout.
type EnricherConfig struct {
	Concurrency   int
	LookupTimeout time.Duration
}

func NewEnricher(resolver domain.MarketResolver, kelly domain.KellyConfig, cfg EnricherConfig, logger *slog.Logger) *Enricher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 10 * time.Second
	}
	return &Enricher{
		resolver:      resolver,
		kelly:         kelly,
		concurrency:   cfg.Concurrency,
		lookupTimeout: cfg.LookupTimeout,
		logger:        logger.With(slog.String("component", "enricher")),
	}
}

// Enrich resolves market prices for every opportunity carrying a
// ticker and, for Kalshi contracts, attaches a Kelly-sized position
// suggestion. Opportunities are mutated in place; unresolvable
// tickers are left untouched. bankrollCents bounds the Kelly sizing.
func (e *Enricher) Enrich(ctx context.Context, opportunities []domain.Opportunity, bankrollCents int64) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i := range opportunities {
		opp := &opportunities[i]
		if opp.MarketTicker == "" {
			continue
		}
		g.Go(func() error {
			lookupCtx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
			defer cancel()

			market := e.resolver.Resolve(lookupCtx, opp.MarketTicker)
			if market == nil {
				e.logger.Debug("ticker unresolved", slog.String("ticker", opp.MarketTicker))
				return nil
			}

			price := market.PriceCents
			opp.MarketPrice = &price

			if market.Exchange == domain.ExchangeKalshi {
				sizing := domain.ComputeKelly(opp.Confidence, price, bankrollCents, e.kelly)
				if sizing != nil && sizing.SuggestedSizeCents > 0 {
					size := sizing.SuggestedSizeCents
					opp.SuggestedSizeCents = &size
				}
			}
			return nil
		})
	}

	return g.Wait()
}
