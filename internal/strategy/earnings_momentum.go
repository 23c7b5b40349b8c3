package strategy

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Kloudy-Sky/openintel/internal/domain"
)

var defaultEarningsKeywords = []string{
	"earnings", "beat", "miss", "guidance", "revenue", "eps",
	"q1", "q2", "q3", "q4",
}

var (
	defaultEarningsBullish = []string{"beat", "surge", "jump", "rally", "strong", "raised"}
	defaultEarningsBearish = []string{"miss", "drop", "fell", "weak", "lowered", "disappointing", "cut"}
)

// EarningsMomentumConfig tunes the earnings momentum detector.
type EarningsMomentumConfig struct {
	Keywords      []string
	BullishWords  []string
	BearishWords  []string
	MinSignals    int
	MinConfidence float64
}

// DefaultEarningsMomentumConfig returns the standard thresholds: two
// signals per ticker, 0.3 confidence floor.
func DefaultEarningsMomentumConfig() EarningsMomentumConfig {
	return EarningsMomentumConfig{
		Keywords:      defaultEarningsKeywords,
		BullishWords:  defaultEarningsBullish,
		BearishWords:  defaultEarningsBearish,
		MinSignals:    2,
		MinConfidence: 0.3,
	}
}

// EarningsMomentum detects multiple intel entries about the same
// ticker showing directional earnings signals (beats, misses,
// guidance changes).
type EarningsMomentum struct {
	cfg EarningsMomentumConfig
}

// NewEarningsMomentum creates the strategy. Zero-valued thresholds in
// cfg fall back to the defaults.
func NewEarningsMomentum(cfg EarningsMomentumConfig) *EarningsMomentum {
	def := DefaultEarningsMomentumConfig()
	if cfg.Keywords == nil {
		cfg.Keywords = def.Keywords
	}
	if cfg.BullishWords == nil {
		cfg.BullishWords = def.BullishWords
	}
	if cfg.BearishWords == nil {
		cfg.BearishWords = def.BearishWords
	}
	if cfg.MinSignals == 0 {
		cfg.MinSignals = def.MinSignals
	}
	if cfg.MinConfidence == 0 {
		cfg.MinConfidence = def.MinConfidence
	}
	return &EarningsMomentum{cfg: cfg}
}

// Name implements Strategy.
func (s *EarningsMomentum) Name() string { return "earnings_momentum" }

type earningsSignal struct {
	text    string
	entryID string
}

// Detect implements Strategy.
func (s *EarningsMomentum) Detect(_ context.Context, snap *domain.DetectionContext) ([]domain.Opportunity, error) {
	tickerSignals := make(map[string][]earningsSignal)

	for i := range snap.Entries {
		entry := &snap.Entries[i]
		text := entry.SearchableText()

		if countMatches(text, s.cfg.Keywords) == 0 {
			continue
		}

		// An entry tagged "AAPL" and "aapl" still contributes once.
		contributed := make(map[string]struct{})
		for _, tag := range entry.Tags {
			ticker := strings.ToUpper(tag)
			if !isAlphaTicker(ticker) {
				continue
			}
			if _, done := contributed[ticker]; done {
				continue
			}
			contributed[ticker] = struct{}{}
			tickerSignals[ticker] = append(tickerSignals[ticker], earningsSignal{
				text:    text,
				entryID: entry.ID,
			})
		}
	}

	tickers := make([]string, 0, len(tickerSignals))
	for ticker := range tickerSignals {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	var opportunities []domain.Opportunity

	for _, ticker := range tickers {
		signals := tickerSignals[ticker]
		if len(signals) < s.cfg.MinSignals {
			continue
		}

		var bullish, bearish int
		for _, sig := range signals {
			bullish += countMatches(sig.text, s.cfg.BullishWords)
			bearish += countMatches(sig.text, s.cfg.BearishWords)
		}

		total := bullish + bearish
		if total == 0 {
			continue
		}

		direction := domain.DirectionBearish
		if bullish > bearish {
			direction = domain.DirectionBullish
		}

		alignment := float64(abs(bullish-bearish)) / float64(total)

		base := minFloat(float64(len(signals))/5.0, 1.0)
		confidence := minFloat(base*(0.5+0.5*alignment), 1.0)
		if confidence < s.cfg.MinConfidence {
			continue
		}

		supporting := make([]string, 0, len(signals))
		for _, sig := range signals {
			supporting = append(supporting, sig.entryID)
		}

		opportunities = append(opportunities, domain.Opportunity{
			Strategy:   s.Name(),
			SignalType: "earnings_momentum",
			Title: fmt.Sprintf("%s — %s earnings momentum (%d signals)",
				ticker, direction, len(signals)),
			Description: fmt.Sprintf("%d entries point %s for %s (alignment: %.0f%%)",
				len(signals), direction, ticker, alignment*100),
			Confidence:         confidence,
			MarketTicker:       ticker,
			SuggestedDirection: direction,
			SupportingEntries:  supporting,
			Score:              domain.ComputeScore(confidence, nil, nil),
			DetectedAt:         snap.Now,
		})
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].Score > opportunities[j].Score
	})

	return opportunities, nil
}

// isAlphaTicker reports whether s looks like an equity ticker after
// upcasing: 1-5 ASCII letters.
func isAlphaTicker(s string) bool {
	if s == "" || len(s) > 5 {
		return false
	}
	for _, c := range s {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
