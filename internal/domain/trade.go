package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TradeDirection is the side of a recorded trade. Prediction-market
// positions use Yes/No; equity positions use Long/Short.
type TradeDirection string

const (
	TradeYes   TradeDirection = "yes"
	TradeNo    TradeDirection = "no"
	TradeLong  TradeDirection = "long"
	TradeShort TradeDirection = "short"
)

// ParseTradeDirection maps a string to a TradeDirection.
func ParseTradeDirection(s string) (TradeDirection, error) {
	switch TradeDirection(strings.ToLower(strings.TrimSpace(s))) {
	case TradeYes:
		return TradeYes, nil
	case TradeNo:
		return TradeNo, nil
	case TradeLong:
		return TradeLong, nil
	case TradeShort:
		return TradeShort, nil
	default:
		return "", fmt.Errorf("domain: unknown trade direction %q: %w", s, ErrInvalidInput)
	}
}

// TradeOutcome records how a resolved trade ended.
type TradeOutcome string

const (
	OutcomeWin     TradeOutcome = "win"
	OutcomeLoss    TradeOutcome = "loss"
	OutcomeScratch TradeOutcome = "scratch"
)

// ParseTradeOutcome maps a string to a TradeOutcome.
func ParseTradeOutcome(s string) (TradeOutcome, error) {
	switch TradeOutcome(strings.ToLower(strings.TrimSpace(s))) {
	case OutcomeWin:
		return OutcomeWin, nil
	case OutcomeLoss:
		return OutcomeLoss, nil
	case OutcomeScratch:
		return OutcomeScratch, nil
	default:
		return "", fmt.Errorf("domain: unknown trade outcome %q: %w", s, ErrInvalidInput)
	}
}

// Trade is a recorded position. An open trade has no outcome; Resolve
// closes it exactly once.
type Trade struct {
	ID              string         `json:"id"`
	Ticker          string         `json:"ticker"`
	SeriesTicker    string         `json:"series_ticker,omitempty"`
	Direction       TradeDirection `json:"direction"`
	Contracts       int64          `json:"contracts"`
	EntryPriceCents float64        `json:"entry_price_cents"`
	ExitPriceCents  *float64       `json:"exit_price_cents,omitempty"`
	Thesis          string         `json:"thesis,omitempty"`
	Outcome         *TradeOutcome  `json:"outcome,omitempty"`
	PnLCents        *int64         `json:"pnl_cents,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	ResolvedAt      *time.Time     `json:"resolved_at,omitempty"`
}

// NewTrade builds an open trade with a fresh ID.
func NewTrade(ticker string, direction TradeDirection, contracts int64, entryPriceCents float64, thesis string) (*Trade, error) {
	if strings.TrimSpace(ticker) == "" {
		return nil, fmt.Errorf("domain: trade ticker is required: %w", ErrInvalidInput)
	}
	if contracts <= 0 {
		return nil, fmt.Errorf("domain: trade contracts must be positive: %w", ErrInvalidInput)
	}
	return &Trade{
		ID:              uuid.NewString(),
		Ticker:          strings.ToUpper(strings.TrimSpace(ticker)),
		Direction:       direction,
		Contracts:       contracts,
		EntryPriceCents: entryPriceCents,
		Thesis:          thesis,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// IsResolved reports whether the trade has been closed.
func (t *Trade) IsResolved() bool { return t.Outcome != nil }

// Resolve closes the trade with an outcome, realized PnL, and
// optional exit price. Resolving an already-resolved trade is an
// error; outcomes are never revised.
func (t *Trade) Resolve(outcome TradeOutcome, pnlCents int64, exitPriceCents *float64) error {
	if t.IsResolved() {
		return fmt.Errorf("domain: trade %s already resolved: %w", t.ID, ErrAlreadyResolved)
	}
	now := time.Now().UTC()
	t.Outcome = &outcome
	t.PnLCents = &pnlCents
	t.ExitPriceCents = exitPriceCents
	t.ResolvedAt = &now
	return nil
}
