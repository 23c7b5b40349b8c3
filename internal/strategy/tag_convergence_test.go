package strategy

import (
	"context"
	"strings"
	"testing"

	"github.com/Kloudy-Sky/openintel/internal/domain"
)

func TestTagConvergenceRequiresSourceDiversity(t *testing.T) {
	s := NewTagConvergence(TagConvergenceConfig{})

	// Three entries on one tag, all from the same source type: no signal.
	entries := []domain.IntelEntry{
		makeEntry("e1", "NVDA supply update", "", []string{"nvda-supply"}, domain.SourceExternal),
		makeEntry("e2", "NVDA supply again", "", []string{"nvda-supply"}, domain.SourceExternal),
		makeEntry("e3", "NVDA supply third", "", []string{"nvda-supply"}, domain.SourceExternal),
	}

	opps, err := s.Detect(context.Background(), snapshot(entries, nil))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(opps) != 0 {
		t.Fatalf("expected no opportunities with a single source type, got %d", len(opps))
	}

	// A fourth entry from a different source type makes it qualify.
	entries = append(entries,
		makeEntry("e4", "NVDA supply internal note", "", []string{"nvda-supply"}, domain.SourceInternal))

	opps, err = s.Detect(context.Background(), snapshot(entries, nil))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(opps) != 1 {
		t.Fatalf("expected 1 opportunity with diversity 2, got %d", len(opps))
	}

	opp := opps[0]
	if opp.Strategy != "tag_convergence" {
		t.Errorf("strategy = %q", opp.Strategy)
	}
	if len(opp.SupportingEntries) != 4 {
		t.Errorf("supporting entries = %d, want 4", len(opp.SupportingEntries))
	}
	if opp.Confidence < 0.35 || opp.Confidence > 1 {
		t.Errorf("confidence %v out of range", opp.Confidence)
	}
	if !strings.Contains(opp.Title, "nvda-supply") {
		t.Errorf("title %q should name the tag", opp.Title)
	}
}

func TestTagConvergenceSkipsGenericTags(t *testing.T) {
	s := NewTagConvergence(TagConvergenceConfig{})

	entries := []domain.IntelEntry{
		makeEntry("e1", "a", "", []string{"market", "news"}, domain.SourceExternal),
		makeEntry("e2", "b", "", []string{"market", "news"}, domain.SourceInternal),
		makeEntry("e3", "c", "", []string{"market", "news"}, domain.SourceExternal),
		makeEntry("e4", "d", "", []string{"market", "news"}, domain.SourceInternal),
	}

	opps, err := s.Detect(context.Background(), snapshot(entries, nil))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(opps) != 0 {
		t.Fatalf("generic tags should never cluster, got %d opportunities", len(opps))
	}
}

func TestTagConvergenceSkipsShortTags(t *testing.T) {
	s := NewTagConvergence(TagConvergenceConfig{})

	entries := []domain.IntelEntry{
		makeEntry("e1", "a", "", []string{"x"}, domain.SourceExternal),
		makeEntry("e2", "b", "", []string{"x"}, domain.SourceInternal),
		makeEntry("e3", "c", "", []string{"x"}, domain.SourceExternal),
	}

	opps, err := s.Detect(context.Background(), snapshot(entries, nil))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(opps) != 0 {
		t.Fatalf("single-character tags should never cluster, got %d", len(opps))
	}
}

func TestTagConvergenceEmptyContext(t *testing.T) {
	s := NewTagConvergence(TagConvergenceConfig{})
	opps, err := s.Detect(context.Background(), snapshot(nil, nil))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(opps) != 0 {
		t.Fatalf("expected no opportunities for empty context, got %d", len(opps))
	}
}
