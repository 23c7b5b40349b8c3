package feed

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/Kloudy-Sky/openintel/internal/domain"
	"github.com/Kloudy-Sky/openintel/internal/platform/kalshi"
)

// bandSumTolerance is how far a series' band midpoints may drift from
// 100¢ before the feed emits an aggregate dislocation entry.
const bandSumTolerance = 5.0

// defaultKalshiSeries are the series tracked out of the box.
var defaultKalshiSeries = []string{"KXHIGHNY", "KXINXY", "KXBTC", "KXFED"}

// KalshiFeed fetches current pricing for tracked series from the
// public markets endpoint. Each priced contract becomes one entry;
// when a series' bands sum far away from 100¢ an additional band-sum
// entry flags the dislocation.
type KalshiFeed struct {
	client  *kalshi.Client
	series  []string
	limiter domain.RateLimiter
	logger  *slog.Logger
}

// NewKalshiFeed creates a feed tracking the given series. Nil series
// uses the defaults; limiter may be nil to fetch unthrottled.
func NewKalshiFeed(client *kalshi.Client, series []string, limiter domain.RateLimiter, logger *slog.Logger) *KalshiFeed {
	if series == nil {
		series = defaultKalshiSeries
	}
	return &KalshiFeed{
		client:  client,
		series:  series,
		limiter: limiter,
		logger:  logger.With(slog.String("component", "kalshi_feed")),
	}
}

// Name implements Feed.
func (f *KalshiFeed) Name() string { return "kalshi" }

// Fetch retrieves every tracked series. Per-series failures are
// collected so one dead series does not drop the others.
func (f *KalshiFeed) Fetch(ctx context.Context) (FetchOutput, error) {
	var output FetchOutput

	for _, series := range f.series {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx, "kalshi"); err != nil {
				return output, fmt.Errorf("feed: kalshi rate limit: %w", err)
			}
		}

		entries, err := f.fetchSeries(ctx, series)
		if err != nil {
			msg := fmt.Sprintf("%s: %s", series, err)
			f.logger.Warn("series fetch failed", slog.String("series", series), slog.String("error", err.Error()))
			output.FetchErrors = append(output.FetchErrors, msg)
			continue
		}
		output.Entries = append(output.Entries, entries...)
	}

	return output, nil
}

func (f *KalshiFeed) fetchSeries(ctx context.Context, series string) ([]domain.IntelEntry, error) {
	markets, err := f.client.GetMarkets(ctx, kalshi.MarketsParams{
		SeriesTicker: series,
		Status:       "open",
		Limit:        20,
	})
	if err != nil {
		return nil, err
	}

	var entries []domain.IntelEntry
	var midpoints []float64

	for i := range markets {
		m := &markets[i]
		midpoint := m.Midpoint()
		if midpoint == 0 {
			continue
		}
		midpoints = append(midpoints, midpoint)
		entries = append(entries, *f.marketEntry(m, series, midpoint))
	}

	// Band sum analysis: the yes midpoints of an exhaustive band
	// group should sum to roughly 100¢.
	if len(midpoints) >= 2 {
		var bandSum float64
		for _, mid := range midpoints {
			bandSum += mid
		}
		deviation := math.Abs(bandSum - 100)
		if deviation > bandSumTolerance {
			entries = append(entries, *bandSumEntry(series, bandSum, deviation, len(midpoints)))
		}
	}

	return entries, nil
}

func (f *KalshiFeed) marketEntry(m *kalshi.Market, series string, midpoint float64) *domain.IntelEntry {
	titleText := m.Title
	if titleText == "" {
		titleText = m.Subtitle
	}
	if titleText == "" {
		titleText = m.Ticker
	}

	title := fmt.Sprintf("%s — %v¢/%v", m.Ticker, midpoint, math.Max(m.YesAsk, m.YesBid))
	body := fmt.Sprintf("%s. Bid: %v¢, Ask: %v¢, Midpoint: %.0f¢", titleText, m.YesBid, m.YesAsk, midpoint)
	if m.Volume24H > 0 {
		body += fmt.Sprintf(". 24h volume: %d", m.Volume24H)
	}
	if m.OpenInterest > 0 {
		body += fmt.Sprintf(". Open interest: %d", m.OpenInterest)
	}

	tags := []string{m.Ticker, series, "kalshi-feed"}
	// Price range tags: cheap contracts are speculative.
	if midpoint < 10 {
		tags = append(tags, "speculative")
	} else if midpoint > 80 {
		tags = append(tags, "high-confidence-market")
	}

	entry := domain.NewIntelEntry(domain.CategoryMarket, title, body, tags,
		domain.MustConfidence(0.9), domain.SourceExternal)
	entry.Source = "kalshi"
	entry.Metadata = map[string]any{
		"ticker":        m.Ticker,
		"series":        series,
		"yes_bid":       m.YesBid,
		"yes_ask":       m.YesAsk,
		"midpoint":      midpoint,
		"volume_24h":    m.Volume24H,
		"open_interest": m.OpenInterest,
		"close_time":    m.CloseTime,
	}
	return entry
}

func bandSumEntry(series string, bandSum, deviation float64, pricedCount int) *domain.IntelEntry {
	direction := "underpriced"
	if bandSum > 105 {
		direction = "overpriced"
	}

	title := fmt.Sprintf("%s bands sum to %.0f¢ — %s (%.0f¢ deviation)",
		series, bandSum, direction, deviation)
	body := fmt.Sprintf(
		"%d priced markets in %s sum to %.0f¢ vs expected 100¢. Deviation: %.0f¢. Direction: %s. Potential band arbitrage opportunity.",
		pricedCount, series, bandSum, deviation, direction)

	entry := domain.NewIntelEntry(domain.CategoryMarket, title, body,
		[]string{series, "kalshi-feed", "band-sum", "arbitrage", direction},
		domain.MustConfidence(0.8), domain.SourceExternal)
	entry.Source = "kalshi"
	entry.Actionable = true
	entry.Metadata = map[string]any{
		"series":       series,
		"band_sum":     bandSum,
		"deviation":    deviation,
		"priced_count": pricedCount,
		"direction":    direction,
	}
	return entry
}
