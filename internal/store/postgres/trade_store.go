package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kloudy-Sky/openintel/internal/domain"
)

// TradeStore implements domain.TradeRepository using PostgreSQL.
type TradeStore struct {
	pool *pgxpool.Pool
}

// NewTradeStore creates a TradeStore backed by the given connection pool.
func NewTradeStore(pool *pgxpool.Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

var _ domain.TradeRepository = (*TradeStore)(nil)

const tradeSelectCols = `id, ticker, series_ticker, direction, contracts,
	entry_price_cents, exit_price_cents, thesis, outcome, pnl_cents,
	created_at, resolved_at`

func scanTradeRow(row pgx.Row) (*domain.Trade, error) {
	var (
		t            domain.Trade
		seriesTicker *string
		outcome      *string
	)
	err := row.Scan(
		&t.ID, &t.Ticker, &seriesTicker, &t.Direction, &t.Contracts,
		&t.EntryPriceCents, &t.ExitPriceCents, &t.Thesis, &outcome,
		&t.PnLCents, &t.CreatedAt, &t.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	if seriesTicker != nil {
		t.SeriesTicker = *seriesTicker
	}
	if outcome != nil {
		parsed, err := domain.ParseTradeOutcome(*outcome)
		if err != nil {
			return nil, err
		}
		t.Outcome = &parsed
	}
	return &t, nil
}

// Add persists a new trade.
func (s *TradeStore) Add(ctx context.Context, trade *domain.Trade) error {
	var seriesTicker *string
	if trade.SeriesTicker != "" {
		seriesTicker = &trade.SeriesTicker
	}
	var outcome *string
	if trade.Outcome != nil {
		o := string(*trade.Outcome)
		outcome = &o
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO trades (
			id, ticker, series_ticker, direction, contracts,
			entry_price_cents, exit_price_cents, thesis, outcome, pnl_cents,
			created_at, resolved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		trade.ID, trade.Ticker, seriesTicker, trade.Direction, trade.Contracts,
		trade.EntryPriceCents, trade.ExitPriceCents, trade.Thesis, outcome,
		trade.PnLCents, trade.CreatedAt, trade.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: add trade: %w", err)
	}
	return nil
}

// GetByID fetches a single trade, domain.ErrNotFound when absent.
func (s *TradeStore) GetByID(ctx context.Context, id string) (*domain.Trade, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+tradeSelectCols+` FROM trades WHERE id = $1`, id)
	trade, err := scanTradeRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get trade: %w", err)
	}
	return trade, nil
}

// Resolve closes an open trade exactly once. The guard on outcome IS
// NULL makes concurrent resolutions race-safe: the second caller
// updates zero rows and learns why from a follow-up read.
func (s *TradeStore) Resolve(ctx context.Context, id string, outcome domain.TradeOutcome, pnlCents int64, exitPriceCents *float64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE trades
		SET outcome = $2, pnl_cents = $3, exit_price_cents = $4, resolved_at = $5
		WHERE id = $1 AND outcome IS NULL`,
		id, string(outcome), pnlCents, exitPriceCents, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("postgres: resolve trade: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM trades WHERE id = $1)", id).Scan(&exists); err != nil {
		return fmt.Errorf("postgres: resolve trade: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrAlreadyResolved
}

// List returns trades matching the filter, newest first.
func (s *TradeStore) List(ctx context.Context, filter domain.TradeFilter) ([]domain.Trade, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trades WHERE 1=1`
	var args []any
	argIdx := 1

	if filter.Resolved != nil {
		if *filter.Resolved {
			query += " AND outcome IS NOT NULL"
		} else {
			query += " AND outcome IS NULL"
		}
	}
	if filter.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *filter.Since)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		trade, err := scanTradeRow(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan trade: %w", err)
		}
		trades = append(trades, *trade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list trades: %w", err)
	}
	return trades, nil
}
