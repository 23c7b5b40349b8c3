package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kloudy-Sky/openintel/internal/domain"
)

// IntelStore implements domain.IntelRepository using PostgreSQL.
// Tags and metadata are stored as JSONB so feed payloads survive
// round trips without a schema change per feed.
type IntelStore struct {
	pool *pgxpool.Pool
}

// NewIntelStore creates an IntelStore backed by the given connection pool.
func NewIntelStore(pool *pgxpool.Pool) *IntelStore {
	return &IntelStore{pool: pool}
}

var _ domain.IntelRepository = (*IntelStore)(nil)

const intelSelectCols = `id, category, title, body, source, tags,
	confidence, actionable, source_type, metadata, created_at, updated_at`

func scanIntelRow(row pgx.Row) (*domain.IntelEntry, error) {
	var (
		e        domain.IntelEntry
		source   *string
		tags     []byte
		metadata []byte
	)
	err := row.Scan(
		&e.ID, &e.Category, &e.Title, &e.Body, &source, &tags,
		&e.Confidence, &e.Actionable, &e.SourceType, &metadata,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if source != nil {
		e.Source = *source
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &e.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return &e, nil
}

func intelInsertArgs(entry *domain.IntelEntry) ([]any, error) {
	tags, err := json.Marshal(entry.Tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	var metadata []byte
	if entry.Metadata != nil {
		metadata, err = json.Marshal(entry.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
	}
	var source *string
	if entry.Source != "" {
		source = &entry.Source
	}
	return []any{
		entry.ID, entry.Category, entry.Title, entry.Body, source, tags,
		entry.Confidence, entry.Actionable, entry.SourceType, metadata,
		entry.CreatedAt, entry.UpdatedAt,
	}, nil
}

const intelInsertSQL = `
	INSERT INTO intel_entries (
		id, category, title, body, source, tags,
		confidence, actionable, source_type, metadata, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// Add persists a new entry.
func (s *IntelStore) Add(ctx context.Context, entry *domain.IntelEntry) error {
	args, err := intelInsertArgs(entry)
	if err != nil {
		return fmt.Errorf("postgres: add intel entry: %w", err)
	}
	if _, err := s.pool.Exec(ctx, intelInsertSQL, args...); err != nil {
		return fmt.Errorf("postgres: add intel entry: %w", err)
	}
	return nil
}

// AddDedup persists entry unless a same-category entry with the same
// title (case-insensitive) exists within the window. Returns true when
// the entry was dropped as a duplicate.
func (s *IntelStore) AddDedup(ctx context.Context, entry *domain.IntelEntry, window time.Duration) (bool, error) {
	since := time.Now().UTC().Add(-window)

	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM intel_entries
			WHERE category = $1 AND LOWER(title) = LOWER($2) AND created_at >= $3
		)`, entry.Category, entry.Title, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: check duplicate intel entry: %w", err)
	}
	if exists {
		return true, nil
	}

	return false, s.Add(ctx, entry)
}

// GetByID fetches a single entry, domain.ErrNotFound when absent.
func (s *IntelStore) GetByID(ctx context.Context, id string) (*domain.IntelEntry, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+intelSelectCols+` FROM intel_entries WHERE id = $1`, id)
	entry, err := scanIntelRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get intel entry: %w", err)
	}
	return entry, nil
}

// Query returns entries matching the filter, newest first.
func (s *IntelStore) Query(ctx context.Context, filter domain.QueryFilter) ([]domain.IntelEntry, error) {
	query := `SELECT ` + intelSelectCols + ` FROM intel_entries WHERE 1=1`
	var args []any
	argIdx := 1

	if filter.Category != nil {
		query += fmt.Sprintf(" AND category = $%d", argIdx)
		args = append(args, *filter.Category)
		argIdx++
	}
	if filter.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *filter.Since)
		argIdx++
	}
	if filter.Tag != "" {
		// Tags match case-insensitively, mirroring IntelEntry.HasTag.
		query += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM jsonb_array_elements_text(tags) AS t
			WHERE LOWER(t) = LOWER($%d)
		)`, argIdx)
		args = append(args, filter.Tag)
		argIdx++
	}
	if filter.Actionable != nil {
		query += fmt.Sprintf(" AND actionable = $%d", argIdx)
		args = append(args, *filter.Actionable)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query intel entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.IntelEntry
	for rows.Next() {
		entry, err := scanIntelRow(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan intel entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: query intel entries: %w", err)
	}
	return entries, nil
}
