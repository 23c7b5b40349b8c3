package domain

import (
	"math"
	"testing"
)

func fptr(v float64) *float64 { return &v }

func TestComputeScore(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		edgeCents  *float64
		liquidity  *float64
		want       float64
	}{
		{"edge times confidence", 0.8, fptr(10), nil, 8},
		{"no edge falls back to confidence scale", 0.5, nil, nil, 50},
		{"liquidity damping", 0.8, fptr(10), fptr(0.25), 4},
		{"liquidity above one clamps", 0.8, fptr(10), fptr(3), 8},
		{"negative liquidity clamps to zero", 0.8, fptr(10), fptr(-1), 0},
		{"full liquidity is neutral", 0.6, fptr(20), fptr(1), 12},
		{"zero confidence", 0, fptr(50), nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeScore(tt.confidence, tt.edgeCents, tt.liquidity)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ComputeScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeScoreDeterministic(t *testing.T) {
	first := ComputeScore(0.73, fptr(12.5), fptr(0.6))
	for i := 0; i < 100; i++ {
		if got := ComputeScore(0.73, fptr(12.5), fptr(0.6)); got != first {
			t.Fatalf("score varied across calls: %v != %v", got, first)
		}
	}
}

func TestDirectionConversions(t *testing.T) {
	if DirectionBullish.AsBinary() != DirectionYes {
		t.Error("bullish should map to yes")
	}
	if DirectionBearish.AsBinary() != DirectionNo {
		t.Error("bearish should map to no")
	}
	if DirectionYes.AsSentiment() != DirectionBullish {
		t.Error("yes should map to bullish")
	}
	if DirectionNo.AsSentiment() != DirectionBearish {
		t.Error("no should map to bearish")
	}
	if DirectionYes.AsBinary() != DirectionYes {
		t.Error("yes should pass through AsBinary")
	}
}

func TestDirectionTradeSide(t *testing.T) {
	tests := []struct {
		direction Direction
		exchange  Exchange
		want      TradeDirection
	}{
		{DirectionBullish, ExchangeKalshi, TradeYes},
		{DirectionBearish, ExchangeKalshi, TradeNo},
		{DirectionYes, ExchangeKalshi, TradeYes},
		{DirectionNo, ExchangeKalshi, TradeNo},
		{DirectionBullish, ExchangeEquity, TradeLong},
		{DirectionBearish, ExchangeEquity, TradeShort},
		{DirectionYes, ExchangeEquity, TradeLong},
	}

	for _, tt := range tests {
		if got := tt.direction.TradeSide(tt.exchange); got != tt.want {
			t.Errorf("%s on %s = %s, want %s", tt.direction, tt.exchange, got, tt.want)
		}
	}
}

func TestNewConfidenceRange(t *testing.T) {
	if _, err := NewConfidence(-0.01); err == nil {
		t.Error("expected error for negative confidence")
	}
	if _, err := NewConfidence(1.01); err == nil {
		t.Error("expected error for confidence above one")
	}
	for _, v := range []float64{0, 0.5, 1} {
		c, err := NewConfidence(v)
		if err != nil {
			t.Errorf("NewConfidence(%v) returned error: %v", v, err)
		}
		if c.Value() != v {
			t.Errorf("Value() = %v, want %v", c.Value(), v)
		}
	}
}

func TestTradeResolveOnce(t *testing.T) {
	trade, err := NewTrade("KXBTC-25DEC31-T100", TradeYes, 10, 45, "band sum under 100")
	if err != nil {
		t.Fatalf("NewTrade: %v", err)
	}
	if trade.IsResolved() {
		t.Fatal("new trade should be open")
	}

	if err := trade.Resolve(OutcomeWin, 550, fptr(100)); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !trade.IsResolved() {
		t.Fatal("trade should be resolved")
	}
	if *trade.Outcome != OutcomeWin || *trade.PnLCents != 550 {
		t.Errorf("outcome = %v pnl = %v, want win/550", *trade.Outcome, *trade.PnLCents)
	}

	if err := trade.Resolve(OutcomeLoss, -450, nil); err == nil {
		t.Fatal("second Resolve should fail")
	}
	if *trade.Outcome != OutcomeWin {
		t.Error("outcome must not be revised by a failed re-resolve")
	}
}

func TestOpenTickersUppercases(t *testing.T) {
	// Trades built by NewTrade carry uppercase tickers, but rows read
	// back from storage are not guaranteed to.
	snap := DetectionContext{OpenTrades: []Trade{
		{Ticker: "nvda"},
		{Ticker: "KXFED-26SEP-T425"},
	}}

	got := snap.OpenTickers()
	if _, ok := got["NVDA"]; !ok {
		t.Error("expected NVDA in open ticker set")
	}
	if _, ok := got["KXFED-26SEP-T425"]; !ok {
		t.Error("expected KXFED-26SEP-T425 in open ticker set")
	}
	if _, ok := got["nvda"]; ok {
		t.Error("lowercase key must not appear in open ticker set")
	}
}

func TestHasTagIsCaseInsensitive(t *testing.T) {
	e := IntelEntry{Tags: []string{"KXHIGHNY", "yahoo-feed", "Bullish"}}

	for _, tag := range []string{"KXHIGHNY", "kxhighny", "YAHOO-FEED", "bullish"} {
		if !e.HasTag(tag) {
			t.Errorf("HasTag(%q) = false, want true", tag)
		}
	}
	if e.HasTag("kxfed") {
		t.Error("HasTag(\"kxfed\") = true, want false")
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{"BTC", "btc", " kalshi ", "", "btc"})
	want := []string{"BTC", "kalshi"}
	if len(got) != len(want) {
		t.Fatalf("NormalizeTags() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("NormalizeTags() = %v, want %v", got, want)
		}
	}
}
