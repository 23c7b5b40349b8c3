package domain

import (
	"context"
	"time"
)

// QueryFilter narrows an intel entry query. Zero-valued fields are
// ignored; Limit caps the result set, newest entries first.
type QueryFilter struct {
	Category   *Category
	Tag        string
	Since      *time.Time
	Actionable *bool
	Limit      int
}

// TradeFilter narrows a trade listing. Resolved selects only open
// (false) or only closed (true) trades when set.
type TradeFilter struct {
	Resolved *bool
	Since    *time.Time
	Limit    int
}

// IntelRepository stores and queries intel entries.
type IntelRepository interface {
	// Add persists a new entry.
	Add(ctx context.Context, entry *IntelEntry) error

	// AddDedup persists entry unless an entry with the same category
	// and title (compared case-insensitively) was stored within
	// window. Returns true when the entry was dropped as a duplicate.
	AddDedup(ctx context.Context, entry *IntelEntry, window time.Duration) (bool, error)

	// GetByID fetches a single entry, ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*IntelEntry, error)

	// Query returns entries matching the filter, newest first.
	Query(ctx context.Context, filter QueryFilter) ([]IntelEntry, error)
}

// TradeRepository stores and queries trades.
type TradeRepository interface {
	// Add persists a new trade.
	Add(ctx context.Context, trade *Trade) error

	// GetByID fetches a single trade, ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*Trade, error)

	// Resolve closes an open trade. ErrAlreadyResolved when the
	// trade has an outcome, ErrNotFound when it does not exist.
	Resolve(ctx context.Context, id string, outcome TradeOutcome, pnlCents int64, exitPriceCents *float64) error

	// List returns trades matching the filter, newest first.
	List(ctx context.Context, filter TradeFilter) ([]Trade, error)
}
