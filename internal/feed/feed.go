// Package feed ingests external market data into the intel store.
// Each feed turns raw upstream responses into intel entries; the
// Ingestor runs feeds, deduplicates, and reports what landed.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kloudy-Sky/openintel/internal/domain"
)

// dedupWindow is how far back the store is checked for duplicate
// titles before an entry is inserted.
const dedupWindow = 24 * time.Hour

// FetchOutput bundles a feed's entries with any partial errors. A
// feed that fails for one series but succeeds for another returns
// both the good entries and the error strings.
type FetchOutput struct {
	Entries     []domain.IntelEntry
	FetchErrors []string
}

// Feed produces intel entries from an external source.
type Feed interface {
	// Name is a human-readable identifier, e.g. "kalshi".
	Name() string

	// Fetch retrieves current data as entries ready to be stored.
	Fetch(ctx context.Context) (FetchOutput, error)
}

// Result reports what one ingestion run accomplished.
type Result struct {
	Ingested int      `json:"ingested"`
	Deduped  int      `json:"deduped"`
	Errors   []string `json:"errors,omitempty"`
}

// Ingestor runs a set of feeds and stores their entries. Feed
// failures are collected, never fatal: a dead upstream should not
// block the rest of the pipeline.
type Ingestor struct {
	feeds  []Feed
	repo   domain.IntelRepository
	logger *slog.Logger
}

// NewIngestor creates an Ingestor over the given feeds.
func NewIngestor(feeds []Feed, repo domain.IntelRepository, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		feeds:  feeds,
		repo:   repo,
		logger: logger.With(slog.String("component", "ingestor")),
	}
}

// Run fetches every feed once and stores all new entries, skipping
// recent duplicates.
func (in *Ingestor) Run(ctx context.Context) Result {
	var result Result

	for _, f := range in.feeds {
		output, err := f.Fetch(ctx)
		if err != nil {
			msg := fmt.Sprintf("%s: %s", f.Name(), err)
			in.logger.Warn("feed fetch failed", slog.String("feed", f.Name()), slog.String("error", err.Error()))
			result.Errors = append(result.Errors, msg)
			continue
		}
		for _, partial := range output.FetchErrors {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", f.Name(), partial))
		}

		for i := range output.Entries {
			entry := &output.Entries[i]
			deduped, err := in.repo.AddDedup(ctx, entry, dedupWindow)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %s: %s", f.Name(), entry.Title, err))
				continue
			}
			if deduped {
				result.Deduped++
			} else {
				result.Ingested++
			}
		}
	}

	in.logger.Info("ingestion complete",
		slog.Int("ingested", result.Ingested),
		slog.Int("deduped", result.Deduped),
		slog.Int("errors", len(result.Errors)))

	return result
}
