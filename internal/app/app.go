// Package app provides the top-level application lifecycle for
// openintel. It wires together all dependencies (stores, caches, blob
// storage, feeds, and notifications) and runs the selected operating
// mode.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Kloudy-Sky/openintel/internal/config"
)

// KellyRequest carries the inputs for a one-off sizing calculation in
// kelly mode. Probability and price come from CLI flags; the sizing
// parameters come from the [kelly] config section.
type KellyRequest struct {
	Probability   float64
	PriceCents    float64
	BankrollCents int64
}

// App is the root application object. It owns the configuration,
// logger, and a list of cleanup functions that are called in reverse
// order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	kelly   *KellyRequest
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// SetKellyRequest supplies the flag-derived inputs for kelly mode.
func (a *App) SetKellyRequest(req KellyRequest) {
	a.kelly = &req
}

// Run is the main entry point. It wires dependencies, dispatches the
// operating mode, and blocks until the mode returns or the context is
// cancelled.
func (a *App) Run(ctx context.Context) error {
	mode := strings.ToLower(a.cfg.Mode)

	a.logger.InfoContext(ctx, "starting",
		slog.String("mode", mode),
		slog.String("log_level", a.cfg.LogLevel),
	)

	// Kelly mode is a pure computation; skip all wiring.
	if mode == "kelly" {
		return a.KellyMode(ctx)
	}

	deps, cleanup, err := Wire(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	switch mode {
	case "scan":
		return a.ScanMode(ctx, deps)
	case "execute":
		return a.ExecuteMode(ctx, deps)
	case "feed":
		return a.FeedMode(ctx, deps)
	case "stream":
		return a.StreamMode(ctx, deps)
	default:
		return fmt.Errorf("app: unsupported mode %q", a.cfg.Mode)
	}
}

// Close tears down all resources in reverse registration order. It is
// safe to call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
