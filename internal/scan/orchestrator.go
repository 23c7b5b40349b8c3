// Package scan runs every registered detection strategy over one
// snapshot of recent intel and produces a ranked opportunity report.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Kloudy-Sky/openintel/internal/domain"
	"github.com/Kloudy-Sky/openintel/internal/strategy"
)

const (
	// defaultEntryLimit caps how many recent entries feed a scan.
	defaultEntryLimit = 500

	// openTradeLimit caps how many unresolved trades are loaded for
	// position-overlap checks.
	openTradeLimit = 100

	// defaultWindowHours is the lookback window for entries.
	defaultWindowHours = 48
)

// Options tunes a single scan run.
type Options struct {
	// WindowHours is the entry lookback window. Zero means the
	// 48-hour default.
	WindowHours int

	// EntryLimit caps fetched entries. Zero means the 500 default.
	EntryLimit int

	// MinScore drops opportunities scoring below it when set.
	MinScore *float64

	// ResultLimit truncates the ranked list when positive.
	ResultLimit int
}

// Report is the outcome of one scan: counters plus the ranked
// opportunity list.
type Report struct {
	ScannedAt          time.Time            `json:"scanned_at"`
	WindowHours        int                  `json:"window_hours"`
	EntriesScanned     int                  `json:"entries_scanned"`
	StrategiesRun      int                  `json:"strategies_run"`
	StrategiesFailed   int                  `json:"strategies_failed"`
	TotalOpportunities int                  `json:"total_opportunities"`
	Opportunities      []domain.Opportunity `json:"opportunities"`
}

// Orchestrator fetches the detection snapshot and fans it out to
// every registered strategy.
type Orchestrator struct {
	intel    domain.IntelRepository
	trades   domain.TradeRepository
	registry *strategy.Registry
	logger   *slog.Logger
}

// NewOrchestrator creates an orchestrator over the given repositories
// and strategy registry.
func NewOrchestrator(intel domain.IntelRepository, trades domain.TradeRepository, registry *strategy.Registry, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		intel:    intel,
		trades:   trades,
		registry: registry,
		logger:   logger.With(slog.String("component", "scan")),
	}
}

// Scan loads recent entries and open trades, runs every strategy
// concurrently over the snapshot, and returns the ranked report.
//
// Repository failures abort the scan. Strategy failures do not: a
// failing strategy is logged and counted, and the run continues with
// the output of its siblings.
func (o *Orchestrator) Scan(ctx context.Context, opts Options) (*Report, error) {
	window := opts.WindowHours
	if window <= 0 {
		window = defaultWindowHours
	}
	entryLimit := opts.EntryLimit
	if entryLimit <= 0 {
		entryLimit = defaultEntryLimit
	}

	since := time.Now().UTC().Add(-time.Duration(window) * time.Hour)
	entries, err := o.intel.Query(ctx, domain.QueryFilter{
		Since: &since,
		Limit: entryLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("scan: query entries: %w", err)
	}

	open := false
	trades, err := o.trades.List(ctx, domain.TradeFilter{
		Resolved: &open,
		Limit:    openTradeLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("scan: list open trades: %w", err)
	}

	snap := &domain.DetectionContext{
		Entries:     entries,
		OpenTrades:  trades,
		WindowHours: window,
		Now:         time.Now().UTC(),
	}

	strategies := o.registry.All()
	results := make([][]domain.Opportunity, len(strategies))
	failed := make([]bool, len(strategies))

	// Each strategy writes only to its own slot, so collection order
	// never depends on goroutine scheduling.
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range strategies {
		g.Go(func() error {
			opps, err := s.Detect(gctx, snap)
			if err != nil {
				o.logger.Warn("strategy failed",
					slog.String("strategy", s.Name()),
					slog.String("error", err.Error()))
				failed[i] = true
				return nil
			}
			results[i] = opps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan: run strategies: %w", err)
	}

	var opportunities []domain.Opportunity
	failures := 0
	for i := range strategies {
		if failed[i] {
			failures++
			continue
		}
		opportunities = append(opportunities, results[i]...)
	}

	if opts.MinScore != nil {
		kept := opportunities[:0]
		for _, opp := range opportunities {
			if opp.Score >= *opts.MinScore {
				kept = append(kept, opp)
			}
		}
		opportunities = kept
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		if opportunities[i].Score != opportunities[j].Score {
			return opportunities[i].Score > opportunities[j].Score
		}
		return opportunities[i].Title < opportunities[j].Title
	})

	if opts.ResultLimit > 0 && len(opportunities) > opts.ResultLimit {
		opportunities = opportunities[:opts.ResultLimit]
	}

	o.logger.Info("scan complete",
		slog.Int("entries", len(entries)),
		slog.Int("strategies", len(strategies)),
		slog.Int("failed", failures),
		slog.Int("opportunities", len(opportunities)))

	return &Report{
		ScannedAt:          snap.Now,
		WindowHours:        window,
		EntriesScanned:     len(entries),
		StrategiesRun:      len(strategies),
		StrategiesFailed:   failures,
		TotalOpportunities: len(opportunities),
		Opportunities:      opportunities,
	}, nil
}
