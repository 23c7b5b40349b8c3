package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Kloudy-Sky/openintel/internal/domain"
	"github.com/Kloudy-Sky/openintel/internal/executor"
	"github.com/Kloudy-Sky/openintel/internal/feed"
	"github.com/Kloudy-Sky/openintel/internal/platform/kalshi"
	"github.com/Kloudy-Sky/openintel/internal/resolver"
	"github.com/Kloudy-Sky/openintel/internal/scan"
	"github.com/Kloudy-Sky/openintel/internal/secrets"
	"github.com/Kloudy-Sky/openintel/internal/strategy"
)

// executeLockTTL bounds how long a crashed execute run can hold the
// bankroll lock.
const executeLockTTL = 5 * time.Minute

// ScanMode runs opportunity detection once and prints the report.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	orch, err := a.newOrchestrator(deps)
	if err != nil {
		return err
	}

	opts := scan.Options{
		WindowHours: a.cfg.Scan.WindowHours,
		EntryLimit:  a.cfg.Scan.EntryLimit,
		ResultLimit: a.cfg.Scan.ResultLimit,
	}
	if a.cfg.Scan.MinScore > 0 {
		opts.MinScore = &a.cfg.Scan.MinScore
	}

	report, err := orch.Scan(ctx, opts)
	if err != nil {
		return fmt.Errorf("app: scan: %w", err)
	}

	a.archiveScan(ctx, deps, report)
	if err := deps.Announcer.AnnounceScan(ctx, report); err != nil {
		a.logger.WarnContext(ctx, "scan announcement failed", slog.String("error", err.Error()))
	}

	return printJSON(report)
}

// ExecuteMode runs the full pipeline: ingest feeds, detect
// opportunities, resolve prices and sizing, and build the trade plan.
// Only dry-run planning is supported.
func (a *App) ExecuteMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting execute mode")

	if a.cfg.Executor.Mode == domain.ModeLive {
		return errors.New("app: live execution is not yet implemented; use dry_run mode to preview trade plans")
	}

	// One bankroll, one run at a time.
	if deps.Locks != nil {
		release, err := deps.Locks.Acquire(ctx, "execute", executeLockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				return fmt.Errorf("app: another execute run is in progress: %w", err)
			}
			return fmt.Errorf("app: acquire execute lock: %w", err)
		}
		defer release()
	}

	// Step 1: ingest feeds.
	ingestor := feed.NewIngestor(a.buildFeeds(deps), deps.Intel, a.logger)
	feedResult := ingestor.Run(ctx)

	// Step 2: detect opportunities over the full window; the planner
	// applies the score and confidence gates.
	orch, err := a.newOrchestrator(deps)
	if err != nil {
		return err
	}
	report, err := orch.Scan(ctx, scan.Options{
		WindowHours: a.cfg.Scan.WindowHours,
		EntryLimit:  a.cfg.Scan.EntryLimit,
	})
	if err != nil {
		return fmt.Errorf("app: scan: %w", err)
	}

	// Step 3: resolve market prices and attach Kelly sizing.
	res := resolver.NewIntelResolver(deps.Intel, deps.Quotes, resolver.Config{
		KalshiSeries: a.cfg.Kalshi.Series,
		Staleness:    a.cfg.Resolver.Staleness.Duration,
	}, a.logger)
	enricher := resolver.NewEnricher(res, a.cfg.Kelly, resolver.EnricherConfig{
		Concurrency:   a.cfg.Resolver.Concurrency,
		LookupTimeout: a.cfg.Resolver.LookupTimeout.Duration,
	}, a.logger)
	if err := enricher.Enrich(ctx, report.Opportunities, a.cfg.Executor.BankrollCents); err != nil {
		return fmt.Errorf("app: enrich: %w", err)
	}

	// Step 4: build the trade plan.
	planner := executor.NewPlanner(a.cfg.Executor, a.logger)
	result := planner.Plan(report.Opportunities, executor.FeedStats{
		Ingested: feedResult.Ingested,
		Errors:   feedResult.Errors,
	})

	a.archiveExecution(ctx, deps, result)
	if err := deps.Announcer.AnnounceExecution(ctx, result); err != nil {
		a.logger.WarnContext(ctx, "execution announcement failed", slog.String("error", err.Error()))
	}

	return printJSON(result)
}

// FeedMode ingests all configured feeds once and prints the result.
func (a *App) FeedMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting feed mode")

	ingestor := feed.NewIngestor(a.buildFeeds(deps), deps.Intel, a.logger)
	result := ingestor.Run(ctx)

	return printJSON(result)
}

// StreamMode runs the Kalshi ticker websocket into the quote cache
// until the context is cancelled.
func (a *App) StreamMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting stream mode")

	creds, err := secrets.LoadCredentials(secrets.Config{
		APIKeyID:       a.cfg.Kalshi.APIKeyID,
		PrivateKeyPath: a.cfg.Kalshi.PrivateKeyPath,
		EncryptedPath:  a.cfg.Kalshi.EncryptedCredsPath,
		Password:       a.cfg.Kalshi.CredsPassword,
	})
	if err != nil {
		return fmt.Errorf("app: kalshi credentials: %w", err)
	}

	client := kalshi.NewClient(a.cfg.Kalshi.BaseURL, creds.APIKeyID)
	if err := client.SetRSAPrivateKey([]byte(creds.PrivateKeyPEM)); err != nil {
		return fmt.Errorf("app: kalshi private key: %w", err)
	}

	wsURL, err := url.Parse(a.cfg.Kalshi.WSURL)
	if err != nil {
		return fmt.Errorf("app: parse ws url: %w", err)
	}
	// The handshake signature covers the websocket path, and a fresh
	// timestamp is needed on every reconnect.
	ws := kalshi.NewWSClient(a.cfg.Kalshi.WSURL, func() (http.Header, error) {
		return client.AuthHeaders("GET", wsURL.Path)
	})

	stream := feed.NewTickerStream(ws, deps.Quotes, a.cfg.Kalshi.StreamTickers, a.logger)
	return stream.Run(ctx)
}

// KellyMode runs a one-off sizing calculation from the flag-supplied
// request and prints the result.
func (a *App) KellyMode(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting kelly mode")

	if a.kelly == nil {
		return errors.New("app: kelly mode requires -probability, -price, and -bankroll flags")
	}

	sizing := domain.ComputeKelly(a.kelly.Probability, a.kelly.PriceCents, a.kelly.BankrollCents, a.cfg.Kelly)
	if sizing == nil {
		return errors.New("app: invalid inputs: probability must be in (0, 1), price in (0, 100), bankroll > 0")
	}

	return printJSON(sizing)
}

// newOrchestrator builds the scan orchestrator with every detection
// strategy registered under its default tuning.
func (a *App) newOrchestrator(deps *Dependencies) (*scan.Orchestrator, error) {
	registry := strategy.NewRegistry()
	all := []strategy.Strategy{
		strategy.NewTagConvergence(strategy.DefaultTagConvergenceConfig()),
		strategy.NewConvergence(strategy.DefaultConvergenceConfig()),
		strategy.NewCrossMarket(strategy.DefaultCrossMarketConfig()),
		strategy.NewEarningsMomentum(strategy.DefaultEarningsMomentumConfig()),
	}
	for _, s := range all {
		if err := registry.Register(s); err != nil {
			return nil, fmt.Errorf("app: register strategy: %w", err)
		}
	}
	return scan.NewOrchestrator(deps.Intel, deps.Trades, registry, a.logger), nil
}

// buildFeeds assembles the configured feeds. The Kalshi feed shares
// the distributed rate limiter when Redis is enabled.
func (a *App) buildFeeds(deps *Dependencies) []feed.Feed {
	feeds := []feed.Feed{
		feed.NewKalshiFeed(deps.Kalshi, a.cfg.Kalshi.Series, deps.Limiter, a.logger),
	}
	if len(a.cfg.Yahoo.Tickers) > 0 {
		feeds = append(feeds, feed.NewYahooFeed(a.cfg.Yahoo.Tickers, a.cfg.Yahoo.BaseURL, a.logger))
	}
	return feeds
}

func (a *App) archiveScan(ctx context.Context, deps *Dependencies, report *scan.Report) {
	if deps.Archiver == nil {
		return
	}
	path, err := deps.Archiver.ArchiveScan(ctx, report)
	if err != nil {
		a.logger.WarnContext(ctx, "scan archive failed", slog.String("error", err.Error()))
		return
	}
	a.logger.InfoContext(ctx, "scan archived", slog.String("path", path))
}

func (a *App) archiveExecution(ctx context.Context, deps *Dependencies, result *domain.ExecutionResult) {
	if deps.Archiver == nil {
		return
	}
	path, err := deps.Archiver.ArchiveExecution(ctx, result)
	if err != nil {
		a.logger.WarnContext(ctx, "execution archive failed", slog.String("error", err.Error()))
		return
	}
	a.logger.InfoContext(ctx, "execution archived", slog.String("path", path))
}

// printJSON writes v to stdout as indented JSON. Reports go to
// stdout; logs go to stderr, so output stays pipeable.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("app: marshal output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
