package strategy

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Kloudy-Sky/openintel/internal/domain"
)

// CrossMarketPair maps a prediction-market theme tag to its
// correlated equity tickers.
type CrossMarketPair struct {
	Theme    string
	Equities []string
}

// defaultCrossMarketPairs is the canonical theme table. "rates" is
// intentionally absent: it duplicated "fed" and produced two signals
// for entries tagged with both.
var defaultCrossMarketPairs = []CrossMarketPair{
	{"btc", []string{"COIN", "MARA", "RIOT", "MSTR", "BITO", "IBIT"}},
	{"eth", []string{"COIN", "ETHE"}},
	{"crypto", []string{"COIN", "MARA", "RIOT", "MSTR", "CRCL"}},
	{"fed", []string{"TLT", "SHY", "XLF", "KRE"}},
	{"s&p500", []string{"SPY", "VOO", "IVV"}},
	{"nasdaq", []string{"QQQ", "TQQQ"}},
}

var (
	bullishTagKeywords = []string{"bullish", "beat", "rally", "surge", "momentum", "growth"}
	bearishTagKeywords = []string{"bearish", "miss", "crash", "decline", "loss", "warning"}
)

// CrossMarketConfig tunes the cross-market detector.
type CrossMarketConfig struct {
	// Pairs is the theme-to-equities correlation table.
	Pairs []CrossMarketPair

	// MinSignalsPerSide is the minimum prediction-side and
	// equity-side signal count for divergence detection.
	MinSignalsPerSide int

	// MinDivergence is the sentiment gap required to trigger.
	MinDivergence float64

	// SumTolerance is the half-width of the acceptable band-sum
	// window around 100.
	SumTolerance float64
}

// DefaultCrossMarketConfig returns the standard thresholds: two
// signals per side, 0.5 divergence, band sums accepted in [95, 105].
func DefaultCrossMarketConfig() CrossMarketConfig {
	return CrossMarketConfig{
		Pairs:             defaultCrossMarketPairs,
		MinSignalsPerSide: 2,
		MinDivergence:     0.5,
		SumTolerance:      5,
	}
}

// CrossMarket detects mispricings across correlated markets in two
// independent phases: band contracts whose prices fail to sum to
// ~100 within a series and expiry, and divergence between
// prediction-market sentiment and correlated equity signals.
type CrossMarket struct {
	cfg CrossMarketConfig
}

// NewCrossMarket creates the strategy. Zero-valued thresholds in cfg
// fall back to the defaults.
func NewCrossMarket(cfg CrossMarketConfig) *CrossMarket {
	def := DefaultCrossMarketConfig()
	if cfg.Pairs == nil {
		cfg.Pairs = def.Pairs
	}
	if cfg.MinSignalsPerSide == 0 {
		cfg.MinSignalsPerSide = def.MinSignalsPerSide
	}
	if cfg.MinDivergence == 0 {
		cfg.MinDivergence = def.MinDivergence
	}
	if cfg.SumTolerance == 0 {
		cfg.SumTolerance = def.SumTolerance
	}
	return &CrossMarket{cfg: cfg}
}

// Name implements Strategy.
func (s *CrossMarket) Name() string { return "cross_market" }

// Detect implements Strategy.
func (s *CrossMarket) Detect(_ context.Context, snap *domain.DetectionContext) ([]domain.Opportunity, error) {
	opportunities := s.detectBandSumArbitrage(snap)
	opportunities = append(opportunities, s.detectCrossAssetDivergence(snap)...)
	return opportunities, nil
}

// bandEntry is one priced contract inside a band group.
type bandEntry struct {
	entryID  string
	midpoint float64
}

// bandGroupKey groups band contracts by series and expiry date.
// Bands are only summed within the same series AND the same expiry.
type bandGroupKey struct {
	series string
	expiry string
}

// detectBandSumArbitrage finds series/expiry groups of band contracts
// whose prices do not sum to ~100.
//
// Only band-style contracts participate. Threshold contracts (ticker
// segment T<number>, e.g. KXFED-26MAR-T3.25) are cumulative
// probabilities, not mutually exclusive outcomes, and are never
// summed. Prices come from structured midpoint metadata when present,
// falling back to text extraction from the body for legacy entries.
func (s *CrossMarket) detectBandSumArbitrage(snap *domain.DetectionContext) []domain.Opportunity {
	groups := make(map[bandGroupKey][]bandEntry)

	for i := range snap.Entries {
		entry := &snap.Entries[i]

		tagsLower := make([]string, len(entry.Tags))
		for j, t := range entry.Tags {
			tagsLower[j] = strings.ToLower(t)
		}

		for _, tag := range tagsLower {
			if !strings.HasPrefix(tag, "kx") && tag != "kalshi" {
				continue
			}

			series := tag
			if tag == "kalshi" {
				series = ""
				for _, t := range tagsLower {
					if strings.HasPrefix(t, "kx") {
						series = t
						break
					}
				}
				if series == "" {
					continue
				}
			}

			// Structured metadata is preferred over text parsing.
			if entry.Metadata != nil {
				ticker, _ := entry.MetaString("ticker")

				if isThresholdContract(ticker) {
					continue
				}

				expiry := extractExpiryDate(entry, ticker)
				if expiry == "" {
					// No expiry info; grouping would cross-contaminate dates.
					continue
				}

				if midpoint, ok := entry.MetaFloat("midpoint"); ok && midpoint > 0 && midpoint < 100 {
					key := bandGroupKey{series: series, expiry: expiry}
					groups[key] = append(groups[key], bandEntry{entryID: entry.ID, midpoint: midpoint})
					continue
				}
			}

			// Legacy entries without metadata: parse prices from the
			// body. Expiry is unknowable here, so these only group
			// with other unknown-expiry entries of the same series.
			if prices := extractBandPrices(entry.Body); len(prices) > 0 {
				key := bandGroupKey{series: series, expiry: "unknown"}
				for _, price := range prices {
					groups[key] = append(groups[key], bandEntry{entryID: entry.ID, midpoint: price})
				}
			}
		}
	}

	keys := make([]bandGroupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].series != keys[j].series {
			return keys[i].series < keys[j].series
		}
		return keys[i].expiry < keys[j].expiry
	})

	var opportunities []domain.Opportunity

	for _, key := range keys {
		bands := groups[key]
		if len(bands) < 2 {
			continue
		}

		var total float64
		for _, b := range bands {
			total += b.midpoint
		}

		// ~100 with tolerance for bid-ask spread.
		if total >= 100-s.cfg.SumTolerance && total <= 100+s.cfg.SumTolerance {
			continue
		}

		entryIDs := dedupeStrings(bands)

		deviation := math.Abs(total - 100)
		edgeCents := deviation
		confidence := 0.4
		switch {
		case deviation > 10:
			confidence = 0.8
		case deviation > 5:
			confidence = 0.6
		}

		direction := domain.DirectionYes // underpriced, buy the set
		if total > 100 {
			direction = domain.DirectionNo // overpriced, fade
		}

		expiryLabel := ""
		if key.expiry != "unknown" {
			expiryLabel = fmt.Sprintf(" (expiry: %s)", key.expiry)
		}

		var action string
		if total < 100 {
			action = fmt.Sprintf("Buy all %d bands in %s%s (total cost %.0f¢, expected value 100¢)",
				len(bands), strings.ToUpper(key.series), expiryLabel, total)
		} else {
			action = fmt.Sprintf("Fade/short overpriced bands in %s%s (%d bands total %.0f¢ > 100¢, sell expensive bands)",
				strings.ToUpper(key.series), expiryLabel, len(bands), total)
		}

		mispricing := "underpricing"
		if total > 100 {
			mispricing = "overpricing"
		}

		opportunities = append(opportunities, domain.Opportunity{
			Strategy:   s.Name(),
			SignalType: "band_sum_arbitrage",
			Title: fmt.Sprintf("%s %s bands sum to %.0f%% (%d bands, deviation: %.1f%%)",
				strings.ToUpper(key.series), key.expiry, total, len(bands), deviation),
			Description: fmt.Sprintf("%s band prices for expiry %s (%d contracts) sum to %.1f%% instead of ~100%%. This suggests %s across the band set.",
				strings.ToUpper(key.series), key.expiry, len(bands), total, mispricing),
			Confidence:         confidence,
			EdgeCents:          &edgeCents,
			MarketTicker:       strings.ToUpper(key.series),
			SuggestedDirection: direction,
			SuggestedAction:    action,
			SupportingEntries:  entryIDs,
			Score:              domain.ComputeScore(confidence, &edgeCents, nil),
			DetectedAt:         snap.Now,
		})
	}

	return opportunities
}

// marketSignal is a sentiment observation about one side of a theme.
type marketSignal struct {
	prediction bool
	sentiment  float64
	entryID    string
	confidence float64
}

// detectCrossAssetDivergence finds themes where prediction-market
// sentiment disagrees with correlated equity-tagged sentiment. The
// suggested direction follows the prediction side: prediction markets
// typically react faster than equities.
func (s *CrossMarket) detectCrossAssetDivergence(snap *domain.DetectionContext) []domain.Opportunity {
	themeSignals := make(map[string][]marketSignal)

	for i := range snap.Entries {
		entry := &snap.Entries[i]

		tagsLower := make(map[string]struct{}, len(entry.Tags))
		for _, t := range entry.Tags {
			tagsLower[strings.ToLower(t)] = struct{}{}
		}
		sentiment := entrySentiment(entry)

		for _, pair := range s.cfg.Pairs {
			if _, ok := tagsLower[pair.Theme]; ok {
				themeSignals[pair.Theme] = append(themeSignals[pair.Theme], marketSignal{
					prediction: true,
					sentiment:  sentiment,
					entryID:    entry.ID,
					confidence: entry.Confidence.Value(),
				})
			}
			for _, equity := range pair.Equities {
				if _, ok := tagsLower[strings.ToLower(equity)]; ok {
					themeSignals[pair.Theme] = append(themeSignals[pair.Theme], marketSignal{
						sentiment:  sentiment,
						entryID:    entry.ID,
						confidence: entry.Confidence.Value(),
					})
				}
			}
		}
	}

	themes := make([]string, 0, len(themeSignals))
	for theme := range themeSignals {
		themes = append(themes, theme)
	}
	sort.Strings(themes)

	var opportunities []domain.Opportunity

	for _, theme := range themes {
		signals := themeSignals[theme]

		var predSum, eqSum float64
		var predCount, eqCount int
		for _, sig := range signals {
			if sig.prediction {
				predSum += sig.sentiment
				predCount++
			} else {
				eqSum += sig.sentiment
				eqCount++
			}
		}

		// Single entries on either side are too noisy.
		if predCount < s.cfg.MinSignalsPerSide || eqCount < s.cfg.MinSignalsPerSide {
			continue
		}

		predSentiment := predSum / float64(predCount)
		eqSentiment := eqSum / float64(eqCount)
		divergence := math.Abs(predSentiment - eqSentiment)
		if divergence <= s.cfg.MinDivergence {
			continue
		}

		seen := make(map[string]struct{}, len(signals))
		var entryIDs []string
		var confSum float64
		for _, sig := range signals {
			confSum += sig.confidence
			if _, ok := seen[sig.entryID]; !ok {
				seen[sig.entryID] = struct{}{}
				entryIDs = append(entryIDs, sig.entryID)
			}
		}
		avgConfidence := confSum / float64(len(signals))

		confidence := clampFloat(avgConfidence*divergence, 0.1, 0.9)

		direction := domain.DirectionBearish
		if predSentiment > 0 {
			direction = domain.DirectionBullish
		}

		var equities []string
		for _, pair := range s.cfg.Pairs {
			if pair.Theme == theme {
				equities = pair.Equities
				break
			}
		}
		marketTicker := ""
		if len(equities) > 0 {
			marketTicker = equities[0]
		}

		opportunities = append(opportunities, domain.Opportunity{
			Strategy:   s.Name(),
			SignalType: "cross_asset_divergence",
			Title: fmt.Sprintf("%s divergence: prediction %s vs equity %s (%.0f%% gap)",
				strings.ToUpper(theme), sentimentLabel(predSentiment), sentimentLabel(eqSentiment), divergence*100),
			Description: fmt.Sprintf("%s prediction market sentiment (%+.2f) diverges from equity signals (%+.2f). Correlated equities: %s. %d entries analyzed.",
				strings.ToUpper(theme), predSentiment, eqSentiment, strings.Join(equities, ", "), len(signals)),
			Confidence:         confidence,
			MarketTicker:       marketTicker,
			SuggestedDirection: direction,
			SupportingEntries:  entryIDs,
			Score:              domain.ComputeScore(confidence, nil, nil),
			DetectedAt:         snap.Now,
		})
	}

	return opportunities
}

// isThresholdContract reports whether a ticker is a threshold-style
// contract: any '-'-separated segment of the form T<number>, such as
// KXFED-26MAR-T3.25. These represent P(value > threshold) and must
// never be band-summed.
func isThresholdContract(ticker string) bool {
	for _, part := range strings.Split(strings.ToUpper(ticker), "-") {
		if len(part) > 1 && part[0] == 'T' {
			if _, err := strconv.ParseFloat(part[1:], 64); err == nil {
				return true
			}
		}
	}
	return false
}

// extractExpiryDate resolves a contract's expiry label. Preferred is
// the close_time metadata field (RFC 3339, truncated to YYYY-MM-DD);
// the fallback is the date segment of the ticker, e.g.
// KXHIGHNY-26FEB27-B42.5 yields 26FEB27. Empty means unresolvable.
func extractExpiryDate(entry *domain.IntelEntry, ticker string) string {
	if closeTime, ok := entry.MetaString("close_time"); ok {
		if dt, err := time.Parse(time.RFC3339, closeTime); err == nil {
			return dt.UTC().Format("2006-01-02")
		}
		if len(closeTime) >= 10 {
			if _, err := time.Parse("2006-01-02", closeTime[:10]); err == nil {
				return closeTime[:10]
			}
		}
	}

	if parts := strings.Split(ticker, "-"); len(parts) >= 3 {
		return parts[1]
	}
	return ""
}

// extractBandPrices pulls contract prices from free text. Recognized
// patterns: "28c", "28¢", "bid 28", "ask 28". Values
// outside (0, 100) are ignored. A bare "at 45" deliberately does not
// match; it produced false positives from contract counts.
func extractBandPrices(text string) []float64 {
	var prices []float64
	words := strings.Fields(strings.ToLower(text))

	for i, word := range words {
		stripped := strings.TrimRight(word, ",.;)")
		trimmed := strings.TrimRight(strings.TrimRight(stripped, "c"), "¢")
		if price, err := strconv.ParseFloat(trimmed, 64); err == nil {
			if price > 0 && price < 100 &&
				(strings.HasSuffix(stripped, "c") || strings.HasSuffix(stripped, "¢")) {
				prices = append(prices, price)
				continue
			}
		}

		if (word == "bid" || word == "ask") && i+1 < len(words) {
			next := strings.TrimRight(words[i+1], ",.;)")
			if strings.HasSuffix(next, "c") || strings.HasSuffix(next, "¢") {
				continue // the suffix pattern above handles it
			}
			if price, err := strconv.ParseFloat(next, 64); err == nil && price > 0 && price < 100 {
				prices = append(prices, price)
			}
		}
	}
	return prices
}

// entrySentiment scores an entry from -1 (bearish) to +1 (bullish).
// Explicit metadata sentiment wins; otherwise keyword matches on tags
// are counted.
func entrySentiment(entry *domain.IntelEntry) float64 {
	if sentiment, ok := entry.MetaString("sentiment"); ok {
		switch sentiment {
		case "bullish", "positive":
			return 1
		case "bearish", "negative":
			return -1
		default:
			return 0
		}
	}

	var bull, bear float64
	for _, tag := range entry.Tags {
		tagLower := strings.ToLower(tag)
		for _, k := range bullishTagKeywords {
			if strings.Contains(tagLower, k) {
				bull++
				break
			}
		}
		for _, k := range bearishTagKeywords {
			if strings.Contains(tagLower, k) {
				bear++
				break
			}
		}
	}

	total := bull + bear
	if total == 0 {
		return 0
	}
	return (bull - bear) / total
}

func sentimentLabel(v float64) string {
	if v > 0 {
		return "bullish"
	}
	return "bearish"
}

func dedupeStrings(bands []bandEntry) []string {
	seen := make(map[string]struct{}, len(bands))
	out := make([]string, 0, len(bands))
	for _, b := range bands {
		if _, ok := seen[b.entryID]; ok {
			continue
		}
		seen[b.entryID] = struct{}{}
		out = append(out, b.entryID)
	}
	return out
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
