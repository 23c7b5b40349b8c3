// Package executor turns ranked opportunities into a trade plan under
// risk limits. Every rejected opportunity is recorded with the reason
// it was skipped, so a dry run explains itself.
package executor

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Kloudy-Sky/openintel/internal/domain"
)

// PlannerConfig holds the risk limits applied when building a plan.
type PlannerConfig struct {
	// MinScore drops opportunities below this composite score.
	MinScore float64 `toml:"min_score" json:"min_score"`

	// MinConfidence drops opportunities below this confidence.
	MinConfidence float64 `toml:"min_confidence" json:"min_confidence"`

	// MaxDailyCents caps the total size deployed in one run.
	MaxDailyCents int64 `toml:"max_daily_cents" json:"max_daily_cents"`

	// BankrollCents is the capital base reported with the plan.
	BankrollCents int64 `toml:"bankroll_cents" json:"bankroll_cents"`

	Mode domain.ExecutionMode `toml:"mode" json:"mode"`
}

// DefaultPlannerConfig mirrors the conservative dry-run defaults.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		MinScore:      0.3,
		MinConfidence: 0.5,
		MaxDailyCents: 10_000,
		BankrollCents: 100_000,
		Mode:          domain.ModeDryRun,
	}
}

// Validate reports every broken limit at once.
func (c PlannerConfig) Validate() error {
	var problems []string
	if c.BankrollCents <= 0 {
		problems = append(problems, "bankroll_cents must be > 0")
	}
	if c.MaxDailyCents <= 0 {
		problems = append(problems, "max_daily_cents must be > 0")
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		problems = append(problems, "min_confidence must be within [0, 1]")
	}
	if c.MinScore < 0 {
		problems = append(problems, "min_score must be >= 0")
	}
	if len(problems) > 0 {
		return fmt.Errorf("executor: invalid config: %v", problems)
	}
	return nil
}

// FeedStats carries ingestion results forward into the final report.
type FeedStats struct {
	Ingested int
	Errors   []string
}

// Planner applies score, confidence, sizing, and daily-cap gates to a
// ranked opportunity list.
type Planner struct {
	cfg    PlannerConfig
	logger *slog.Logger
}

func NewPlanner(cfg PlannerConfig, logger *slog.Logger) *Planner {
	return &Planner{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "executor")),
	}
}

// Plan walks opportunities in rank order and admits trades first come
// first served until the daily cap is hit. A trade is never resized to
// squeeze under the cap; it is skipped and later, smaller trades may
// still fit. Admitted trades are never revised once recorded.
func (p *Planner) Plan(opportunities []domain.Opportunity, feeds FeedStats) *domain.ExecutionResult {
	var (
		trades        []domain.TradePlan
		skipped       []domain.SkippedOpportunity
		dailyDeployed int64
	)

	skip := func(opp *domain.Opportunity, reason string) {
		skipped = append(skipped, domain.SkippedOpportunity{
			Title:      opp.Title,
			Confidence: opp.Confidence,
			Score:      opp.Score,
			Reason:     reason,
		})
	}

	for i := range opportunities {
		opp := &opportunities[i]

		if opp.Score < p.cfg.MinScore {
			skip(opp, fmt.Sprintf("Score %.2f < %.2f threshold", opp.Score, p.cfg.MinScore))
			continue
		}

		if opp.MarketTicker == "" {
			skip(opp, "No market ticker")
			continue
		}

		if opp.Confidence < p.cfg.MinConfidence {
			skip(opp, fmt.Sprintf("Confidence %.0f%% < %.0f%% threshold",
				opp.Confidence*100, p.cfg.MinConfidence*100))
			continue
		}

		if opp.SuggestedSizeCents == nil {
			skip(opp, "No Kelly sizing available (missing market price)")
			continue
		}
		size := *opp.SuggestedSizeCents

		if size == 0 {
			skip(opp, "Kelly sizing returned 0 (no edge)")
			continue
		}

		if dailyDeployed+size > p.cfg.MaxDailyCents {
			skip(opp, fmt.Sprintf("Daily limit: $%.2f deployed + $%.2f would exceed $%.2f cap",
				float64(dailyDeployed)/100, float64(size)/100, float64(p.cfg.MaxDailyCents)/100))
			continue
		}

		direction := domain.Direction("unknown")
		if opp.SuggestedDirection != "" {
			direction = opp.SuggestedDirection
		}

		action := opp.SuggestedAction
		if action == "" {
			var price float64
			if opp.MarketPrice != nil {
				price = *opp.MarketPrice
			}
			action = fmt.Sprintf("Buy %s @ %v¢", opp.MarketTicker, price)
		}

		trades = append(trades, domain.TradePlan{
			Ticker:      opp.MarketTicker,
			Direction:   direction,
			SizeCents:   size,
			Confidence:  opp.Confidence,
			Score:       opp.Score,
			EdgeCents:   opp.EdgeCents,
			Action:      action,
			Description: opp.Description,
		})
		dailyDeployed += size
	}

	result := &domain.ExecutionResult{
		Timestamp:            time.Now().UTC(),
		Mode:                 p.cfg.Mode,
		BankrollCents:        p.cfg.BankrollCents,
		FeedsIngested:        feeds.Ingested,
		FeedErrors:           feeds.Errors,
		OpportunitiesScanned: len(opportunities),
		TradesQualified:      len(trades),
		TradesSkipped:        len(skipped),
		TotalDeploymentCents: dailyDeployed,
		Trades:               trades,
		Skipped:              skipped,
	}

	p.logger.Info("trade plan built",
		slog.String("mode", string(p.cfg.Mode)),
		slog.Int("qualified", len(trades)),
		slog.Int("skipped", len(skipped)),
		slog.Int64("deployment_cents", dailyDeployed))

	return result
}
