package scan

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kloudy-Sky/openintel/internal/domain"
	"github.com/Kloudy-Sky/openintel/internal/strategy"
)

type fakeIntelRepo struct {
	entries []domain.IntelEntry
	err     error
}

func (f *fakeIntelRepo) Add(context.Context, *domain.IntelEntry) error { return nil }
func (f *fakeIntelRepo) AddDedup(context.Context, *domain.IntelEntry, time.Duration) (bool, error) {
	return false, nil
}
func (f *fakeIntelRepo) GetByID(context.Context, string) (*domain.IntelEntry, error) {
	return nil, domain.ErrNotFound
}
func (f *fakeIntelRepo) Query(context.Context, domain.QueryFilter) ([]domain.IntelEntry, error) {
	return f.entries, f.err
}

type fakeTradeRepo struct {
	trades []domain.Trade
	err    error
}

func (f *fakeTradeRepo) Add(context.Context, *domain.Trade) error { return nil }
func (f *fakeTradeRepo) GetByID(context.Context, string) (*domain.Trade, error) {
	return nil, domain.ErrNotFound
}
func (f *fakeTradeRepo) Resolve(context.Context, string, domain.TradeOutcome, int64, *float64) error {
	return nil
}
func (f *fakeTradeRepo) List(context.Context, domain.TradeFilter) ([]domain.Trade, error) {
	return f.trades, f.err
}

type stubStrategy struct {
	name string
	opps []domain.Opportunity
	err  error
}

func (s *stubStrategy) Name() string { return s.name }
func (s *stubStrategy) Detect(context.Context, *domain.DetectionContext) ([]domain.Opportunity, error) {
	return s.opps, s.err
}

func opp(title string, score float64) domain.Opportunity {
	return domain.Opportunity{
		Strategy:          "stub",
		SignalType:        "test",
		Title:             title,
		Confidence:        0.5,
		SupportingEntries: []string{"e1"},
		Score:             score,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOrchestrator(t *testing.T, strategies ...strategy.Strategy) *Orchestrator {
	t.Helper()
	reg := strategy.NewRegistry()
	for _, s := range strategies {
		require.NoError(t, reg.Register(s))
	}
	return NewOrchestrator(&fakeIntelRepo{}, &fakeTradeRepo{}, reg, testLogger())
}

func TestScanRanksByScoreThenTitle(t *testing.T) {
	o := newTestOrchestrator(t,
		&stubStrategy{name: "a", opps: []domain.Opportunity{opp("zeta", 10), opp("beta", 30)}},
		&stubStrategy{name: "b", opps: []domain.Opportunity{opp("alpha", 30), opp("omega", 50)}},
	)

	report, err := o.Scan(context.Background(), Options{})
	require.NoError(t, err)

	require.Len(t, report.Opportunities, 4)
	titles := make([]string, 0, 4)
	for _, op := range report.Opportunities {
		titles = append(titles, op.Title)
	}
	// 50 first, then the two 30s tie-broken by title, then 10.
	assert.Equal(t, []string{"omega", "alpha", "beta", "zeta"}, titles)
	assert.Equal(t, 2, report.StrategiesRun)
	assert.Equal(t, 0, report.StrategiesFailed)
	assert.Equal(t, 4, report.TotalOpportunities)
}

func TestScanOrderingIsReproducible(t *testing.T) {
	o := newTestOrchestrator(t,
		&stubStrategy{name: "a", opps: []domain.Opportunity{opp("n1", 5), opp("n2", 5), opp("n3", 5)}},
		&stubStrategy{name: "b", opps: []domain.Opportunity{opp("m1", 5), opp("m2", 7)}},
	)

	first, err := o.Scan(context.Background(), Options{})
	require.NoError(t, err)

	for i := 0; i < 25; i++ {
		again, err := o.Scan(context.Background(), Options{})
		require.NoError(t, err)
		require.Len(t, again.Opportunities, len(first.Opportunities))
		for j := range again.Opportunities {
			assert.Equal(t, first.Opportunities[j].Title, again.Opportunities[j].Title)
		}
	}
}

func TestScanStrategyFailureIsIsolated(t *testing.T) {
	o := newTestOrchestrator(t,
		&stubStrategy{name: "broken", err: errors.New("boom")},
		&stubStrategy{name: "healthy", opps: []domain.Opportunity{opp("signal", 12)}},
	)

	report, err := o.Scan(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.StrategiesFailed)
	assert.Equal(t, 2, report.StrategiesRun)
	require.Len(t, report.Opportunities, 1)
	assert.Equal(t, "signal", report.Opportunities[0].Title)
}

func TestScanRepositoryFailureAborts(t *testing.T) {
	reg := strategy.NewRegistry()
	require.NoError(t, reg.Register(&stubStrategy{name: "a"}))

	o := NewOrchestrator(&fakeIntelRepo{err: errors.New("db down")}, &fakeTradeRepo{}, reg, testLogger())
	_, err := o.Scan(context.Background(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query entries")

	o = NewOrchestrator(&fakeIntelRepo{}, &fakeTradeRepo{err: errors.New("db down")}, reg, testLogger())
	_, err = o.Scan(context.Background(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list open trades")
}

func TestScanMinScoreAndResultLimit(t *testing.T) {
	o := newTestOrchestrator(t,
		&stubStrategy{name: "a", opps: []domain.Opportunity{
			opp("low", 1), opp("mid", 10), opp("high", 100), opp("top", 200),
		}},
	)

	minScore := 5.0
	report, err := o.Scan(context.Background(), Options{MinScore: &minScore, ResultLimit: 2})
	require.NoError(t, err)

	require.Len(t, report.Opportunities, 2)
	assert.Equal(t, "top", report.Opportunities[0].Title)
	assert.Equal(t, "high", report.Opportunities[1].Title)
}
