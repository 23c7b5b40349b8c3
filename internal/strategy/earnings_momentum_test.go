package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/Kloudy-Sky/openintel/internal/domain"
)

func TestEarningsMomentumNeedsTwoSignals(t *testing.T) {
	s := NewEarningsMomentum(EarningsMomentumConfig{})

	single := []domain.IntelEntry{
		makeEntry("e1", "AAPL earnings beat", "strong revenue", []string{"AAPL"}, domain.SourceExternal),
	}
	opps, err := s.Detect(context.Background(), snapshot(single, nil))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(opps) != 0 {
		t.Fatalf("single entry must not produce momentum, got %d", len(opps))
	}

	pair := append(single,
		makeEntry("e2", "AAPL guidance raised after beat", "eps up", []string{"AAPL"}, domain.SourceExternal))
	opps, err = s.Detect(context.Background(), snapshot(pair, nil))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(opps) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(opps))
	}
	if opps[0].MarketTicker != "AAPL" {
		t.Errorf("ticker = %q, want AAPL", opps[0].MarketTicker)
	}
	if opps[0].SuggestedDirection != domain.DirectionBullish {
		t.Errorf("direction = %q, want bullish", opps[0].SuggestedDirection)
	}
}

func TestEarningsMomentumDirectionFollowsMajority(t *testing.T) {
	s := NewEarningsMomentum(EarningsMomentumConfig{})

	entries := []domain.IntelEntry{
		makeEntry("e1", "INTC earnings miss", "revenue weak, guidance lowered", []string{"INTC"}, domain.SourceExternal),
		makeEntry("e2", "INTC disappointing quarter", "eps miss, shares fell", []string{"INTC"}, domain.SourceExternal),
		makeEntry("e3", "INTC cut forecast", "q3 outlook weak", []string{"INTC"}, domain.SourceExternal),
	}

	opps, err := s.Detect(context.Background(), snapshot(entries, nil))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(opps) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(opps))
	}
	if opps[0].SuggestedDirection != domain.DirectionBearish {
		t.Errorf("direction = %q, want bearish", opps[0].SuggestedDirection)
	}
	if len(opps[0].SupportingEntries) != 3 {
		t.Errorf("supporting entries = %d, want 3", len(opps[0].SupportingEntries))
	}
}

func TestEarningsMomentumIgnoresNonEarningsEntries(t *testing.T) {
	s := NewEarningsMomentum(EarningsMomentumConfig{})

	entries := []domain.IntelEntry{
		makeEntry("e1", "AAPL launches new product", "design refresh", []string{"AAPL"}, domain.SourceExternal),
		makeEntry("e2", "AAPL store openings", "retail expansion", []string{"AAPL"}, domain.SourceExternal),
	}

	opps, err := s.Detect(context.Background(), snapshot(entries, nil))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(opps) != 0 {
		t.Fatalf("non-earnings entries must not qualify, got %d", len(opps))
	}
}

func TestEarningsMomentumRequiresSentiment(t *testing.T) {
	s := NewEarningsMomentum(EarningsMomentumConfig{})

	// Earnings-related but directionless: "earnings"/"revenue" alone
	// carry no bullish or bearish keyword.
	entries := []domain.IntelEntry{
		makeEntry("e1", "MSFT earnings preview", "revenue expectations", []string{"MSFT"}, domain.SourceExternal),
		makeEntry("e2", "MSFT earnings calendar", "q2 revenue date", []string{"MSFT"}, domain.SourceExternal),
	}

	opps, err := s.Detect(context.Background(), snapshot(entries, nil))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(opps) != 0 {
		t.Fatalf("zero-sentiment clusters must not qualify, got %d", len(opps))
	}
}

func TestEarningsMomentumDedupesEquivalentTickerTags(t *testing.T) {
	s := NewEarningsMomentum(EarningsMomentumConfig{})

	// One entry tagged "AAPL" and "aapl": contributes once, so the
	// two-signal minimum is not met by a single entry.
	entries := []domain.IntelEntry{
		{
			ID:         "e1",
			Category:   domain.CategoryMarket,
			Title:      "AAPL earnings beat",
			Body:       "strong revenue",
			Tags:       []string{"AAPL", "aapl"},
			Confidence: domain.MustConfidence(0.8),
			SourceType: domain.SourceExternal,
			CreatedAt:  testNow.Add(-time.Hour),
		},
	}

	opps, err := s.Detect(context.Background(), snapshot(entries, nil))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(opps) != 0 {
		t.Fatalf("equivalent tags on one entry must count once, got %d opportunities", len(opps))
	}
}

func TestEarningsMomentumLongTagsAreNotTickers(t *testing.T) {
	s := NewEarningsMomentum(EarningsMomentumConfig{})

	entries := []domain.IntelEntry{
		makeEntry("e1", "earnings beat everywhere", "strong", []string{"technology"}, domain.SourceExternal),
		makeEntry("e2", "another earnings beat", "strong", []string{"technology"}, domain.SourceExternal),
	}

	opps, err := s.Detect(context.Background(), snapshot(entries, nil))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(opps) != 0 {
		t.Fatalf("tags over 5 characters must not be tickers, got %d", len(opps))
	}
}
