package feed

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Kloudy-Sky/openintel/internal/domain"
	"github.com/Kloudy-Sky/openintel/internal/platform/kalshi"
)

// TickerStream consumes the Kalshi ticker websocket channel and keeps
// the quote cache warm. Quotes are written under both the full
// contract ticker and its series prefix, so resolution by either key
// can skip a store round-trip.
type TickerStream struct {
	ws      *kalshi.WSClient
	quotes  domain.QuoteCache
	tickers []string
	logger  *slog.Logger
}

// NewTickerStream creates a stream subscribing to the given contract
// tickers.
func NewTickerStream(ws *kalshi.WSClient, quotes domain.QuoteCache, tickers []string, logger *slog.Logger) *TickerStream {
	return &TickerStream{
		ws:      ws,
		quotes:  quotes,
		tickers: tickers,
		logger:  logger.With(slog.String("component", "ticker_stream")),
	}
}

// Run connects, subscribes, and caches ticker updates until ctx is
// cancelled. Reconnects are handled inside the websocket client.
func (s *TickerStream) Run(ctx context.Context) error {
	s.ws.OnTicker(func(tick kalshi.WSTicker) {
		s.cacheTick(ctx, tick)
	})

	if err := s.ws.Connect(ctx); err != nil {
		return err
	}
	defer s.ws.Close()

	if err := s.ws.Subscribe(ctx, s.tickers); err != nil {
		return err
	}
	s.logger.Info("streaming tickers", slog.Int("subscriptions", len(s.tickers)))

	<-ctx.Done()
	return ctx.Err()
}

func (s *TickerStream) cacheTick(ctx context.Context, tick kalshi.WSTicker) {
	midpoint := tick.Midpoint()
	if midpoint <= 0 || tick.Ticker == "" {
		return
	}

	quote := domain.Quote{
		ContractTicker: tick.Ticker,
		PriceCents:     midpoint,
		Exchange:       domain.ExchangeKalshi,
		ObservedAt:     time.Now().UTC(),
	}

	keys := []string{tick.Ticker}
	// Opportunities carry the series ticker, not a contract ticker,
	// so index the latest contract quote under the series too.
	if i := strings.Index(tick.Ticker, "-"); i > 0 {
		keys = append(keys, tick.Ticker[:i])
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	for _, key := range keys {
		if err := s.quotes.SetQuote(writeCtx, key, quote); err != nil {
			s.logger.Warn("quote cache write failed",
				slog.String("ticker", key), slog.String("error", err.Error()))
			return
		}
	}

	s.logger.Debug("cached quote",
		slog.String("ticker", tick.Ticker), slog.Float64("midpoint", midpoint))
}
