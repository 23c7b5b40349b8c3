package strategy

import (
	"time"

	"github.com/Kloudy-Sky/openintel/internal/domain"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func makeEntry(id, title, body string, tags []string, sourceType domain.SourceType) domain.IntelEntry {
	return domain.IntelEntry{
		ID:         id,
		Category:   domain.CategoryMarket,
		Title:      title,
		Body:       body,
		Tags:       tags,
		Confidence: domain.MustConfidence(0.8),
		SourceType: sourceType,
		CreatedAt:  testNow.Add(-time.Hour),
		UpdatedAt:  testNow.Add(-time.Hour),
	}
}

func makeBandEntry(id, ticker, series string, midpoint float64, closeTime string) domain.IntelEntry {
	entry := makeEntry(id, ticker, "", []string{ticker, series, "kalshi-feed"}, domain.SourceExternal)
	entry.Confidence = domain.MustConfidence(0.9)
	entry.Metadata = map[string]any{
		"ticker":     ticker,
		"series":     series,
		"midpoint":   midpoint,
		"close_time": closeTime,
		"yes_bid":    midpoint - 0.5,
		"yes_ask":    midpoint + 0.5,
	}
	return entry
}

func snapshot(entries []domain.IntelEntry, trades []domain.Trade) *domain.DetectionContext {
	return &domain.DetectionContext{
		Entries:     entries,
		OpenTrades:  trades,
		WindowHours: 48,
		Now:         testNow,
	}
}
