package domain

import "context"

// Exchange identifies the venue a resolved market quote came from.
type Exchange string

const (
	ExchangeKalshi Exchange = "kalshi"
	ExchangeEquity Exchange = "equity"
)

// ResolvedMarket is a concrete quote for an opportunity's ticker:
// the tradeable contract, its current price in cents, and the venue.
// Equity quotes are scaled to cents so both venues share one unit.
type ResolvedMarket struct {
	ContractTicker string   `json:"contract_ticker"`
	PriceCents     float64  `json:"price_cents"`
	Exchange       Exchange `json:"exchange"`
	Description    string   `json:"description,omitempty"`
}

// MarketResolver maps an opportunity ticker to a live market quote.
// A nil result means no market could be resolved; resolution is
// best-effort and never fails the caller.
type MarketResolver interface {
	Resolve(ctx context.Context, ticker string) *ResolvedMarket
}
