package domain

import "math"

// KellyConfig controls position sizing. The zero value is not usable;
// start from DefaultKellyConfig and override fields as needed.
type KellyConfig struct {
	// Fraction scales the full Kelly stake down. Betting full Kelly
	// assumes the probability estimate is exact; half Kelly halves
	// volatility for a small growth cost. ComputeKelly trusts the
	// value as given; keep it in (0, 1], which config validation
	// enforces on the configured path.
	Fraction float64 `json:"fraction" toml:"fraction"`

	// MaxPositionCents is the absolute per-trade cap.
	MaxPositionCents int64 `json:"max_position_cents" toml:"max_position_cents"`

	// MinEdge is the minimum required gap between estimated and
	// implied probability. Below it the stake is zero.
	MinEdge float64 `json:"min_edge" toml:"min_edge"`

	// MaxBankrollFraction caps the stake as a share of bankroll.
	MaxBankrollFraction float64 `json:"max_bankroll_fraction" toml:"max_bankroll_fraction"`
}

// DefaultKellyConfig returns half-Kelly sizing with a $25 position
// cap, a 5-point minimum edge, and a 25% bankroll cap.
func DefaultKellyConfig() KellyConfig {
	return KellyConfig{
		Fraction:            0.5,
		MaxPositionCents:    2500,
		MinEdge:             0.05,
		MaxBankrollFraction: 0.25,
	}
}

// BindingConstraint names the rule that limited a Kelly stake. Empty
// means the unconstrained fractional Kelly stake applied.
type BindingConstraint string

const (
	BindingNone             BindingConstraint = ""
	BindingBelowMinEdge     BindingConstraint = "below_min_edge"
	BindingNegativeKelly    BindingConstraint = "negative_kelly"
	BindingBankrollFraction BindingConstraint = "max_bankroll_fraction"
	BindingPositionCap      BindingConstraint = "max_position_cents"
)

// KellySizing is the outcome of a sizing computation. A zero
// SuggestedSizeCents with a binding constraint set means the
// opportunity was evaluated and declined, which is distinct from not
// being sizable at all.
type KellySizing struct {
	FullKellyFraction    float64           `json:"full_kelly_fraction"`
	AdjustedFraction     float64           `json:"adjusted_fraction"`
	SuggestedSizeCents   int64             `json:"suggested_size_cents"`
	BindingConstraint    BindingConstraint `json:"binding_constraint,omitempty"`
	EstimatedProbability float64           `json:"estimated_probability"`
	ImpliedProbability   float64           `json:"implied_probability"`
	Edge                 float64           `json:"edge"`
}

// ComputeKelly sizes a binary-contract position from an estimated win
// probability, the contract price in cents, and the bankroll.
//
// For a contract costing price cents that pays 100, the net odds are
// b = (100-price)/price and the full Kelly fraction is
// (b*p - (1-p)) / b. The stake is scaled by cfg.Fraction, then capped
// by the bankroll fraction and the absolute position limits; when
// both caps bind, the tighter (later-applied) one is reported.
//
// Returns nil when the inputs are outside their valid ranges:
// probability must be in (0, 1) exclusive, price in (0, 100)
// exclusive, and bankroll positive. Out-of-range inputs mean the
// question is malformed, not that the answer is "bet nothing".
func ComputeKelly(probability, priceCents float64, bankrollCents int64, cfg KellyConfig) *KellySizing {
	if probability <= 0 || probability >= 1 {
		return nil
	}
	if priceCents <= 0 || priceCents >= 100 {
		return nil
	}
	if bankrollCents <= 0 {
		return nil
	}

	implied := priceCents / 100
	edge := probability - implied

	sizing := &KellySizing{
		EstimatedProbability: probability,
		ImpliedProbability:   implied,
		Edge:                 edge,
	}

	if edge < cfg.MinEdge {
		sizing.BindingConstraint = BindingBelowMinEdge
		return sizing
	}

	b := (100 - priceCents) / priceCents
	q := 1 - probability
	fullKelly := (b*probability - q) / b
	sizing.FullKellyFraction = fullKelly

	if fullKelly <= 0 {
		sizing.BindingConstraint = BindingNegativeKelly
		return sizing
	}

	adjusted := fullKelly * cfg.Fraction
	sizing.AdjustedFraction = adjusted

	size := int64(math.Round(adjusted * float64(bankrollCents)))

	if maxByBankroll := int64(math.Round(cfg.MaxBankrollFraction * float64(bankrollCents))); size > maxByBankroll {
		size = maxByBankroll
		sizing.BindingConstraint = BindingBankrollFraction
	}
	if size > cfg.MaxPositionCents {
		size = cfg.MaxPositionCents
		sizing.BindingConstraint = BindingPositionCap
	}

	sizing.SuggestedSizeCents = size
	return sizing
}
