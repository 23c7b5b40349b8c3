package strategy

import (
	"context"
	"strings"
	"testing"

	"github.com/Kloudy-Sky/openintel/internal/domain"
)

func TestConvergenceDetectsAlignedCluster(t *testing.T) {
	s := NewConvergence(ConvergenceConfig{})

	entries := []domain.IntelEntry{
		makeEntry("e1", "NVDA earnings beat, shares surge", "strong quarter", []string{"NVDA", "semis"}, domain.SourceExternal),
		makeEntry("e2", "NVDA rally continues", "momentum building, buy interest", []string{"NVDA", "semis"}, domain.SourceInternal),
		makeEntry("e3", "NVDA guidance raised", "positive upside ahead", []string{"NVDA", "semis"}, domain.SourceExternal),
		makeEntry("e4", "NVDA demand strong", "growth everywhere, higher", []string{"NVDA", "semis"}, domain.SourceInternal),
	}

	opps, err := s.Detect(context.Background(), snapshot(entries, nil))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(opps) == 0 {
		t.Fatal("expected at least one opportunity")
	}

	var nvda *domain.Opportunity
	for i := range opps {
		if opps[i].MarketTicker == "NVDA" {
			nvda = &opps[i]
		}
	}
	if nvda == nil {
		t.Fatalf("expected an NVDA-ticker opportunity, got %+v", opps)
	}
	if nvda.SuggestedDirection != domain.DirectionBullish {
		t.Errorf("direction = %q, want bullish", nvda.SuggestedDirection)
	}
	if nvda.Confidence < 0.4 {
		t.Errorf("confidence %v below emission floor", nvda.Confidence)
	}
}

func TestConvergenceBelowClusterSizeIsSilent(t *testing.T) {
	s := NewConvergence(ConvergenceConfig{})

	entries := []domain.IntelEntry{
		makeEntry("e1", "AMD beat", "surge", []string{"AMD"}, domain.SourceExternal),
		makeEntry("e2", "AMD rally", "strong", []string{"AMD"}, domain.SourceInternal),
	}

	opps, err := s.Detect(context.Background(), snapshot(entries, nil))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(opps) != 0 {
		t.Fatalf("two entries must not form a cluster, got %d opportunities", len(opps))
	}
}

func TestConvergenceMixedSignalsEmitNoDirection(t *testing.T) {
	s := NewConvergence(ConvergenceConfig{MinConfidence: 0.1})

	// Equal bullish and bearish hits: alignment 0, direction mixed.
	entries := []domain.IntelEntry{
		makeEntry("e1", "TSLA beat estimates", "", []string{"TSLA"}, domain.SourceExternal),
		makeEntry("e2", "TSLA miss on deliveries", "", []string{"TSLA"}, domain.SourceInternal),
		makeEntry("e3", "TSLA outlook", "no keywords here", []string{"TSLA"}, domain.SourceExternal),
	}

	opps, err := s.Detect(context.Background(), snapshot(entries, nil))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	for _, opp := range opps {
		if opp.SuggestedDirection != "" {
			t.Errorf("mixed cluster should carry no direction, got %q", opp.SuggestedDirection)
		}
		if !strings.Contains(opp.Title, "mixed") {
			t.Errorf("title %q should label alignment as mixed", opp.Title)
		}
	}
}

func TestConvergenceWarnsOnOpenPosition(t *testing.T) {
	s := NewConvergence(ConvergenceConfig{})

	entries := []domain.IntelEntry{
		makeEntry("e1", "COIN beat, surge", "strong growth", []string{"COIN"}, domain.SourceExternal),
		makeEntry("e2", "COIN rally", "momentum higher", []string{"COIN"}, domain.SourceInternal),
		makeEntry("e3", "COIN positive guidance raised", "buy", []string{"COIN"}, domain.SourceExternal),
		makeEntry("e4", "COIN volume gain", "upside continues", []string{"COIN"}, domain.SourceInternal),
	}
	trade, err := domain.NewTrade("COIN", domain.TradeLong, 5, 2500, "existing position")
	if err != nil {
		t.Fatalf("NewTrade: %v", err)
	}

	opps, err := s.Detect(context.Background(), snapshot(entries, []domain.Trade{*trade}))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(opps) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(opps))
	}
	if !strings.Contains(opps[0].SuggestedAction, "Already have position in COIN") {
		t.Errorf("action %q should warn about the open COIN position", opps[0].SuggestedAction)
	}
}

func TestConvergenceLowercaseTagsAreNotTickers(t *testing.T) {
	s := NewConvergence(ConvergenceConfig{})

	entries := []domain.IntelEntry{
		makeEntry("e1", "china beat expectations, surge", "growth", []string{"china"}, domain.SourceExternal),
		makeEntry("e2", "china rally", "strong momentum", []string{"china"}, domain.SourceInternal),
		makeEntry("e3", "china positive data", "upside", []string{"china"}, domain.SourceExternal),
		makeEntry("e4", "china boom continues", "gain higher", []string{"china"}, domain.SourceInternal),
	}

	opps, err := s.Detect(context.Background(), snapshot(entries, nil))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(opps) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(opps))
	}
	if opps[0].MarketTicker != "" {
		t.Errorf("lowercase topic must not become ticker %q", opps[0].MarketTicker)
	}
}

func TestConvergenceOutputIsDeterministic(t *testing.T) {
	s := NewConvergence(ConvergenceConfig{})

	entries := []domain.IntelEntry{
		makeEntry("e1", "NVDA beat, surge", "growth", []string{"NVDA", "semis", "chips"}, domain.SourceExternal),
		makeEntry("e2", "NVDA rally", "strong momentum", []string{"NVDA", "semis", "chips"}, domain.SourceInternal),
		makeEntry("e3", "NVDA positive guidance", "upside", []string{"NVDA", "semis", "chips"}, domain.SourceExternal),
		makeEntry("e4", "NVDA boom", "gain higher", []string{"NVDA", "semis", "chips"}, domain.SourceInternal),
	}
	snap := snapshot(entries, nil)

	first, err := s.Detect(context.Background(), snap)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := s.Detect(context.Background(), snap)
		if err != nil {
			t.Fatalf("Detect: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("result count varied: %d vs %d", len(again), len(first))
		}
		for j := range again {
			if again[j].Title != first[j].Title || again[j].Score != first[j].Score {
				t.Fatalf("result %d varied across runs: %q vs %q", j, again[j].Title, first[j].Title)
			}
		}
	}
}
