// Package domain defines the core entities, value types, and port
// interfaces of the intelligence pipeline. It has no dependencies on
// storage, transport, or strategy packages.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category classifies an intel entry by subject area.
type Category string

const (
	CategoryMarket      Category = "market"
	CategoryNewsletter  Category = "newsletter"
	CategorySocial      Category = "social"
	CategoryTrading     Category = "trading"
	CategoryOpportunity Category = "opportunity"
	CategoryCompetitor  Category = "competitor"
	CategoryGeneral     Category = "general"
)

// ParseCategory maps a string to a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CategoryMarket, CategoryNewsletter, CategorySocial, CategoryTrading,
		CategoryOpportunity, CategoryCompetitor, CategoryGeneral:
		return c, nil
	default:
		return "", fmt.Errorf("domain: unknown category %q: %w", s, ErrInvalidInput)
	}
}

// SourceType separates externally gathered intelligence (newsletters,
// market data, social media) from internal operational entries (agent
// logs, heartbeat notes). Source diversity checks compare these
// values, so multiple feeds of the same kind count as one type.
type SourceType string

const (
	SourceExternal SourceType = "external"
	SourceInternal SourceType = "internal"
)

// ParseSourceType maps a string to a SourceType. Accepts the short
// forms "ext" and "int".
func ParseSourceType(s string) (SourceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "external", "ext":
		return SourceExternal, nil
	case "internal", "int":
		return SourceInternal, nil
	default:
		return "", fmt.Errorf("domain: unknown source type %q: %w", s, ErrInvalidInput)
	}
}

// Confidence is a probability-like weight in [0, 1]. Construct values
// through NewConfidence so the range is enforced at the boundary.
type Confidence float64

// NewConfidence validates v and returns it as a Confidence.
func NewConfidence(v float64) (Confidence, error) {
	if v < 0 || v > 1 {
		return 0, fmt.Errorf("domain: confidence %v outside [0, 1]: %w", v, ErrInvalidInput)
	}
	return Confidence(v), nil
}

// MustConfidence is NewConfidence for values known to be in range,
// such as literals in tests and feed constants. It panics on invalid
// input.
func MustConfidence(v float64) Confidence {
	c, err := NewConfidence(v)
	if err != nil {
		panic(err)
	}
	return c
}

// Value returns the underlying float.
func (c Confidence) Value() float64 { return float64(c) }

// IntelEntry is a single piece of gathered intelligence: a headline,
// a feed observation, a filing note. Entries are immutable once
// stored; strategies only ever read them.
type IntelEntry struct {
	ID         string         `json:"id"`
	Category   Category       `json:"category"`
	Title      string         `json:"title"`
	Body       string         `json:"body"`
	Source     string         `json:"source,omitempty"`
	Tags       []string       `json:"tags"`
	Confidence Confidence     `json:"confidence"`
	Actionable bool           `json:"actionable"`
	SourceType SourceType     `json:"source_type"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// NewIntelEntry builds an entry with a fresh ID and timestamps. Tags
// keep their original casing (uppercase tags mark ticker candidates)
// but are deduplicated case-insensitively.
func NewIntelEntry(category Category, title, body string, tags []string, confidence Confidence, sourceType SourceType) *IntelEntry {
	now := time.Now().UTC()
	return &IntelEntry{
		ID:         uuid.NewString(),
		Category:   category,
		Title:      title,
		Body:       body,
		Tags:       NormalizeTags(tags),
		Confidence: confidence,
		SourceType: sourceType,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NormalizeTags trims tags and deduplicates them case-insensitively,
// preserving first-seen order and casing. Casing is kept because
// fully-uppercase tags mark ticker candidates downstream.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// HasTag reports whether the entry carries the given tag. The tag is
// compared case-insensitively against the normalized tag set.
func (e *IntelEntry) HasTag(tag string) bool {
	tag = strings.ToLower(tag)
	for _, t := range e.Tags {
		if strings.ToLower(t) == tag {
			return true
		}
	}
	return false
}

// SearchableText returns the lowercased concatenation of title and
// body for keyword scans.
func (e *IntelEntry) SearchableText() string {
	return strings.ToLower(e.Title + " " + e.Body)
}

// AgeHours returns the entry age relative to now, in hours.
func (e *IntelEntry) AgeHours(now time.Time) float64 {
	return now.Sub(e.CreatedAt).Hours()
}

// MetaString looks up a string-valued metadata key. The second return
// is false when the key is absent or holds a non-string.
func (e *IntelEntry) MetaString(key string) (string, bool) {
	if e.Metadata == nil {
		return "", false
	}
	v, ok := e.Metadata[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// MetaFloat looks up a numeric metadata key. JSON decoding produces
// float64 for all numbers; int and int64 are accepted for values set
// directly in code.
func (e *IntelEntry) MetaFloat(key string) (float64, bool) {
	if e.Metadata == nil {
		return 0, false
	}
	switch v := e.Metadata[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
