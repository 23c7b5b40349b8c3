package domain

import (
	"math"
	"strings"
	"time"
)

// Direction is a suggested stance on an opportunity. Sentiment
// strategies emit Bullish/Bearish; prediction-market strategies emit
// Yes/No. The two vocabularies map onto each other: Bullish
// corresponds to Yes and Bearish to No.
type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
	DirectionYes     Direction = "yes"
	DirectionNo      Direction = "no"
)

// AsBinary converts a sentiment direction to its prediction-market
// equivalent. Yes/No pass through unchanged.
func (d Direction) AsBinary() Direction {
	switch d {
	case DirectionBullish:
		return DirectionYes
	case DirectionBearish:
		return DirectionNo
	default:
		return d
	}
}

// AsSentiment converts a binary direction to its sentiment
// equivalent. Bullish/Bearish pass through unchanged.
func (d Direction) AsSentiment() Direction {
	switch d {
	case DirectionYes:
		return DirectionBullish
	case DirectionNo:
		return DirectionBearish
	default:
		return d
	}
}

// TradeSide maps an opportunity direction to the trade direction used
// when recording a position on the given exchange.
func (d Direction) TradeSide(exchange Exchange) TradeDirection {
	if exchange == ExchangeKalshi {
		if d.AsBinary() == DirectionNo {
			return TradeNo
		}
		return TradeYes
	}
	if d.AsSentiment() == DirectionBearish {
		return TradeShort
	}
	return TradeLong
}

// Opportunity is a trade signal emitted by a detection strategy.
// Strategies fill the detection fields; MarketPrice and
// SuggestedSizeCents are attached later by the enrichment stage and
// stay nil when no quote resolves.
type Opportunity struct {
	Strategy           string    `json:"strategy"`
	SignalType         string    `json:"signal_type"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Confidence         float64   `json:"confidence"`
	EdgeCents          *float64  `json:"edge_cents,omitempty"`
	MarketTicker       string    `json:"market_ticker,omitempty"`
	SuggestedDirection Direction `json:"suggested_direction,omitempty"`
	SuggestedAction    string    `json:"suggested_action,omitempty"`
	SupportingEntries  []string  `json:"supporting_entries"`
	Score              float64   `json:"score"`
	Liquidity          *float64  `json:"liquidity,omitempty"`
	MarketPrice        *float64  `json:"market_price,omitempty"`
	SuggestedSizeCents *int64    `json:"suggested_size_cents,omitempty"`
	DetectedAt         time.Time `json:"detected_at"`
}

// ComputeScore ranks an opportunity from its confidence, edge, and
// liquidity. The base is confidence times edge when an edge estimate
// exists, otherwise confidence scaled to the same cents range. The
// base is then damped by the square root of liquidity, clamped to
// [0, 1]; a missing liquidity estimate counts as full liquidity.
// The function is pure: equal inputs always produce equal scores.
func ComputeScore(confidence float64, edgeCents, liquidity *float64) float64 {
	base := confidence * 100
	if edgeCents != nil {
		base = confidence * *edgeCents
	}

	liq := 1.0
	if liquidity != nil {
		liq = *liquidity
	}
	liq = math.Min(math.Max(liq, 0), 1)

	return base * math.Sqrt(liq)
}

// Rescore recomputes and stores the opportunity's score from its
// current fields.
func (o *Opportunity) Rescore() {
	o.Score = ComputeScore(o.Confidence, o.EdgeCents, o.Liquidity)
}

// DetectionContext is the immutable snapshot handed to every
// strategy in a scan: the entry window plus currently open trades.
// Strategies must not mutate it.
type DetectionContext struct {
	Entries     []IntelEntry
	OpenTrades  []Trade
	WindowHours int
	Now         time.Time
}

// OpenTickers returns the set of tickers with an open position,
// uppercased for comparison against strategy ticker output.
func (c *DetectionContext) OpenTickers() map[string]struct{} {
	out := make(map[string]struct{}, len(c.OpenTrades))
	for _, t := range c.OpenTrades {
		out[strings.ToUpper(t.Ticker)] = struct{}{}
	}
	return out
}
