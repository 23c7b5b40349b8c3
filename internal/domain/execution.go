package domain

import "time"

// ExecutionMode selects whether qualified plans are recorded as
// trades or only reported.
type ExecutionMode string

const (
	ModeDryRun ExecutionMode = "dry_run"
	ModeLive   ExecutionMode = "live"
)

// TradePlan is a fully sized, qualified intent to trade, produced by
// the execution planner from an enriched opportunity.
type TradePlan struct {
	Ticker      string    `json:"ticker"`
	Direction   Direction `json:"direction"`
	SizeCents   int64     `json:"size_cents"`
	Confidence  float64   `json:"confidence"`
	Score       float64   `json:"score"`
	EdgeCents   *float64  `json:"edge_cents,omitempty"`
	Action      string    `json:"action,omitempty"`
	Description string    `json:"description"`
}

// SkippedOpportunity records an opportunity the planner declined,
// with a human-readable reason.
type SkippedOpportunity struct {
	Title      string  `json:"title"`
	Confidence float64 `json:"confidence"`
	Score      float64 `json:"score"`
	Reason     string  `json:"reason"`
}

// ExecutionResult is the full report of one execution run: feed
// ingestion counts, scan totals, the qualified plans, and every skip
// with its reason.
type ExecutionResult struct {
	Timestamp            time.Time            `json:"timestamp"`
	Mode                 ExecutionMode        `json:"mode"`
	BankrollCents        int64                `json:"bankroll_cents"`
	FeedsIngested        int                  `json:"feeds_ingested"`
	FeedErrors           []string             `json:"feed_errors,omitempty"`
	OpportunitiesScanned int                  `json:"opportunities_scanned"`
	TradesQualified      int                  `json:"trades_qualified"`
	TradesSkipped        int                  `json:"trades_skipped"`
	TotalDeploymentCents int64                `json:"total_deployment_cents"`
	Trades               []TradePlan          `json:"trades"`
	Skipped              []SkippedOpportunity `json:"skipped"`
}
