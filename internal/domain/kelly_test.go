package domain

import (
	"math"
	"testing"
)

func TestComputeKellyEvenOdds(t *testing.T) {
	// 60% estimate on a 50c contract: b = 1, full Kelly = 0.2.
	sizing := ComputeKelly(0.6, 50, 10_000, DefaultKellyConfig())
	if sizing == nil {
		t.Fatal("expected sizing, got nil")
	}

	if math.Abs(sizing.FullKellyFraction-0.2) > 1e-9 {
		t.Errorf("full kelly = %v, want 0.2", sizing.FullKellyFraction)
	}
	if math.Abs(sizing.AdjustedFraction-0.1) > 1e-9 {
		t.Errorf("adjusted fraction = %v, want 0.1", sizing.AdjustedFraction)
	}
	if sizing.SuggestedSizeCents != 1000 {
		t.Errorf("size = %d, want 1000", sizing.SuggestedSizeCents)
	}
	if sizing.BindingConstraint != BindingNone {
		t.Errorf("binding constraint = %q, want none", sizing.BindingConstraint)
	}
	if math.Abs(sizing.Edge-0.1) > 1e-9 {
		t.Errorf("edge = %v, want 0.1", sizing.Edge)
	}
	if math.Abs(sizing.ImpliedProbability-0.5) > 1e-9 {
		t.Errorf("implied probability = %v, want 0.5", sizing.ImpliedProbability)
	}
}

func TestComputeKellyInvalidInputs(t *testing.T) {
	cfg := DefaultKellyConfig()

	tests := []struct {
		name     string
		prob     float64
		price    float64
		bankroll int64
	}{
		{"zero probability", 0, 50, 10_000},
		{"probability one", 1, 50, 10_000},
		{"negative probability", -0.2, 50, 10_000},
		{"zero price", 0.6, 0, 10_000},
		{"price at 100", 0.6, 100, 10_000},
		{"negative price", 0.6, -5, 10_000},
		{"zero bankroll", 0.6, 50, 0},
		{"negative bankroll", 0.6, 50, -100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeKelly(tt.prob, tt.price, tt.bankroll, cfg); got != nil {
				t.Errorf("ComputeKelly(%v, %v, %d) = %+v, want nil",
					tt.prob, tt.price, tt.bankroll, got)
			}
		})
	}
}

func TestComputeKellyBelowMinEdge(t *testing.T) {
	// 2-point edge with a 5-point minimum: evaluated but declined.
	sizing := ComputeKelly(0.52, 50, 10_000, DefaultKellyConfig())
	if sizing == nil {
		t.Fatal("expected sizing, got nil")
	}

	if sizing.SuggestedSizeCents != 0 {
		t.Errorf("size = %d, want 0", sizing.SuggestedSizeCents)
	}
	if sizing.BindingConstraint != BindingBelowMinEdge {
		t.Errorf("binding constraint = %q, want %q", sizing.BindingConstraint, BindingBelowMinEdge)
	}
	if math.Abs(sizing.Edge-0.02) > 1e-9 {
		t.Errorf("edge = %v, want 0.02", sizing.Edge)
	}
}

func TestComputeKellyNegativeKelly(t *testing.T) {
	cfg := DefaultKellyConfig()
	cfg.MinEdge = 0

	// Zero edge passes the min-edge gate but full Kelly is zero.
	sizing := ComputeKelly(0.5, 50, 10_000, cfg)
	if sizing == nil {
		t.Fatal("expected sizing, got nil")
	}

	if sizing.SuggestedSizeCents != 0 {
		t.Errorf("size = %d, want 0", sizing.SuggestedSizeCents)
	}
	if sizing.BindingConstraint != BindingNegativeKelly {
		t.Errorf("binding constraint = %q, want %q", sizing.BindingConstraint, BindingNegativeKelly)
	}
}

func TestComputeKellyBankrollFractionCap(t *testing.T) {
	// 90% on a 10c contract: adjusted fraction ~0.444, clamped to 25%.
	sizing := ComputeKelly(0.9, 10, 4_000, DefaultKellyConfig())
	if sizing == nil {
		t.Fatal("expected sizing, got nil")
	}

	if sizing.BindingConstraint != BindingBankrollFraction {
		t.Errorf("binding constraint = %q, want %q", sizing.BindingConstraint, BindingBankrollFraction)
	}
	if sizing.SuggestedSizeCents != 1000 {
		t.Errorf("size = %d, want 1000 (25%% of bankroll)", sizing.SuggestedSizeCents)
	}
}

func TestComputeKellyPositionCapOverridesBankrollCap(t *testing.T) {
	// Large bankroll: the 25% cap still exceeds the absolute cap, so
	// the position cap applies last and is the one reported.
	sizing := ComputeKelly(0.9, 10, 100_000, DefaultKellyConfig())
	if sizing == nil {
		t.Fatal("expected sizing, got nil")
	}

	if sizing.BindingConstraint != BindingPositionCap {
		t.Errorf("binding constraint = %q, want %q", sizing.BindingConstraint, BindingPositionCap)
	}
	if sizing.SuggestedSizeCents != DefaultKellyConfig().MaxPositionCents {
		t.Errorf("size = %d, want %d", sizing.SuggestedSizeCents, DefaultKellyConfig().MaxPositionCents)
	}
}

func TestComputeKellyRoundsRawSize(t *testing.T) {
	// 60% on a 30c contract: full Kelly = 3/7, adjusted = 3/14, so a
	// $42.07 bankroll gives a raw stake of exactly 901.5c. The stake
	// is rounded to the nearest cent, not truncated.
	sizing := ComputeKelly(0.6, 30, 4_207, DefaultKellyConfig())
	if sizing == nil {
		t.Fatal("expected sizing, got nil")
	}

	if sizing.SuggestedSizeCents != 902 {
		t.Errorf("size = %d, want 902", sizing.SuggestedSizeCents)
	}
	if sizing.BindingConstraint != BindingNone {
		t.Errorf("binding constraint = %q, want none", sizing.BindingConstraint)
	}
}

func TestComputeKellyRoundingAtPositionCap(t *testing.T) {
	// Raw stake 2500.4c rounds down to the $25 cap exactly, so the
	// cap never engages and no binding constraint is reported.
	sizing := ComputeKelly(0.6, 50, 25_004, DefaultKellyConfig())
	if sizing == nil {
		t.Fatal("expected sizing, got nil")
	}

	if sizing.SuggestedSizeCents != DefaultKellyConfig().MaxPositionCents {
		t.Errorf("size = %d, want %d", sizing.SuggestedSizeCents, DefaultKellyConfig().MaxPositionCents)
	}
	if sizing.BindingConstraint != BindingNone {
		t.Errorf("binding constraint = %q, want none", sizing.BindingConstraint)
	}
}

func TestComputeKellyScalesWithBankroll(t *testing.T) {
	cfg := DefaultKellyConfig()
	cfg.MaxPositionCents = 1 << 40

	var prev int64
	for _, bankroll := range []int64{1_000, 5_000, 20_000, 100_000, 1_000_000} {
		sizing := ComputeKelly(0.6, 30, bankroll, cfg)
		if sizing == nil {
			t.Fatalf("expected sizing for bankroll %d, got nil", bankroll)
		}
		if sizing.SuggestedSizeCents < prev {
			t.Fatalf("size shrank from %d to %d as bankroll grew to %d",
				prev, sizing.SuggestedSizeCents, bankroll)
		}
		prev = sizing.SuggestedSizeCents
	}
}

func TestComputeKellySizeNeverExceedsCaps(t *testing.T) {
	cfg := DefaultKellyConfig()

	probs := []float64{0.1, 0.3, 0.55, 0.7, 0.85, 0.99}
	prices := []float64{1, 10, 35, 50, 65, 90, 99}
	bankrolls := []int64{100, 5_000, 50_000, 1_000_000}

	for _, p := range probs {
		for _, price := range prices {
			for _, bankroll := range bankrolls {
				sizing := ComputeKelly(p, price, bankroll, cfg)
				if sizing == nil {
					continue
				}
				if sizing.SuggestedSizeCents < 0 {
					t.Fatalf("negative size %d for p=%v price=%v bankroll=%d",
						sizing.SuggestedSizeCents, p, price, bankroll)
				}
				if sizing.SuggestedSizeCents > cfg.MaxPositionCents {
					t.Fatalf("size %d exceeds position cap for p=%v price=%v bankroll=%d",
						sizing.SuggestedSizeCents, p, price, bankroll)
				}
				if maxByBankroll := int64(math.Round(cfg.MaxBankrollFraction * float64(bankroll))); sizing.SuggestedSizeCents > maxByBankroll {
					t.Fatalf("size %d exceeds bankroll cap %d for p=%v price=%v bankroll=%d",
						sizing.SuggestedSizeCents, maxByBankroll, p, price, bankroll)
				}
			}
		}
	}
}
