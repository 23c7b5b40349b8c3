package executor

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kloudy-Sky/openintel/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sized(title, ticker string, confidence, score float64, sizeCents int64) domain.Opportunity {
	price := 50.0
	return domain.Opportunity{
		Title:              title,
		MarketTicker:       ticker,
		Confidence:         confidence,
		Score:              score,
		MarketPrice:        &price,
		SuggestedSizeCents: &sizeCents,
		SuggestedDirection: domain.DirectionYes,
	}
}

func TestPlanSkipReasons(t *testing.T) {
	cfg := DefaultPlannerConfig()
	p := NewPlanner(cfg, testLogger())

	unsized := domain.Opportunity{Title: "no price", MarketTicker: "KXFED", Confidence: 0.9, Score: 0.5}
	zero := sized("zero edge", "KXBTC", 0.9, 0.5, 0)

	result := p.Plan([]domain.Opportunity{
		{Title: "weak score", MarketTicker: "KXBTC", Confidence: 0.9, Score: 0.1},
		{Title: "no ticker", Confidence: 0.9, Score: 0.5},
		sized("timid", "KXBTC", 0.4, 0.5, 1000),
		unsized,
		zero,
	}, FeedStats{})

	require.Len(t, result.Skipped, 5)
	assert.Equal(t, "Score 0.10 < 0.30 threshold", result.Skipped[0].Reason)
	assert.Equal(t, "No market ticker", result.Skipped[1].Reason)
	assert.Equal(t, "Confidence 40% < 50% threshold", result.Skipped[2].Reason)
	assert.Equal(t, "No Kelly sizing available (missing market price)", result.Skipped[3].Reason)
	assert.Equal(t, "Kelly sizing returned 0 (no edge)", result.Skipped[4].Reason)
	assert.Zero(t, result.TradesQualified)
	assert.Zero(t, result.TotalDeploymentCents)
}

func TestPlanDailyCapSkipsNotResizes(t *testing.T) {
	cfg := DefaultPlannerConfig()
	cfg.MaxDailyCents = 5000
	p := NewPlanner(cfg, testLogger())

	result := p.Plan([]domain.Opportunity{
		sized("first", "KXBTC-A", 0.8, 0.9, 3000),
		sized("too big", "KXBTC-B", 0.8, 0.8, 2500),
		sized("still fits", "KXBTC-C", 0.8, 0.7, 2000),
	}, FeedStats{})

	require.Len(t, result.Trades, 2)
	assert.Equal(t, "KXBTC-A", result.Trades[0].Ticker)
	assert.Equal(t, "KXBTC-C", result.Trades[1].Ticker)
	assert.Equal(t, int64(5000), result.TotalDeploymentCents)

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "Daily limit: $30.00 deployed + $25.00 would exceed $50.00 cap",
		result.Skipped[0].Reason)
}

func TestPlanAdmitsInRankOrder(t *testing.T) {
	p := NewPlanner(DefaultPlannerConfig(), testLogger())

	opp := sized("ranked", "KXINXY-26SEP02", 0.75, 0.6, 1500)
	opp.SuggestedAction = "Buy all 4 bands in KXINXY"
	result := p.Plan([]domain.Opportunity{opp}, FeedStats{Ingested: 12})

	require.Len(t, result.Trades, 1)
	plan := result.Trades[0]
	assert.Equal(t, domain.DirectionYes, plan.Direction)
	assert.Equal(t, "Buy all 4 bands in KXINXY", plan.Action)
	assert.Equal(t, int64(1500), plan.SizeCents)
	assert.Equal(t, 12, result.FeedsIngested)
	assert.Equal(t, domain.ModeDryRun, result.Mode)
}

func TestPlanDefaultActionIncludesPrice(t *testing.T) {
	p := NewPlanner(DefaultPlannerConfig(), testLogger())

	opp := sized("plain", "KXBTC-26AUG30-B65000", 0.8, 0.6, 1000)
	opp.SuggestedDirection = ""
	result := p.Plan([]domain.Opportunity{opp}, FeedStats{})

	require.Len(t, result.Trades, 1)
	assert.Equal(t, "Buy KXBTC-26AUG30-B65000 @ 50¢", result.Trades[0].Action)
	assert.Equal(t, domain.Direction("unknown"), result.Trades[0].Direction)
}

func TestPlannerConfigValidate(t *testing.T) {
	cfg := PlannerConfig{MinScore: -1, MinConfidence: 2, MaxDailyCents: 0, BankrollCents: 0}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bankroll_cents")
	assert.Contains(t, err.Error(), "max_daily_cents")
	assert.Contains(t, err.Error(), "min_confidence")
	assert.Contains(t, err.Error(), "min_score")

	assert.NoError(t, DefaultPlannerConfig().Validate())
}
