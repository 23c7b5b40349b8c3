package strategy

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Kloudy-Sky/openintel/internal/domain"
)

// defaultSkipTags are generic tags too broad to signal convergence.
var defaultSkipTags = []string{
	"market", "signal", "update", "analysis", "news", "general", "trade",
}

// TagConvergenceConfig tunes the tag convergence detector. Tables are
// injected rather than package globals so tests can override them.
type TagConvergenceConfig struct {
	// SkipTags are excluded from clustering.
	SkipTags []string

	// MinClusterSize is the minimum entries sharing a tag.
	MinClusterSize int

	// MinSourceDiversity is the minimum distinct source types.
	MinSourceDiversity int

	// MinConfidence drops weak clusters after scoring.
	MinConfidence float64
}

// DefaultTagConvergenceConfig returns the standard thresholds:
// clusters of 3+, two source types, 0.35 confidence floor.
func DefaultTagConvergenceConfig() TagConvergenceConfig {
	return TagConvergenceConfig{
		SkipTags:           defaultSkipTags,
		MinClusterSize:     3,
		MinSourceDiversity: 2,
		MinConfidence:      0.35,
	}
}

// TagConvergence detects multiple entries from different source types
// converging on the same topic, measured by shared tags. Higher
// source diversity means higher confidence.
type TagConvergence struct {
	cfg  TagConvergenceConfig
	skip map[string]struct{}
}

// NewTagConvergence creates the strategy. Zero-valued thresholds in
// cfg fall back to the defaults.
func NewTagConvergence(cfg TagConvergenceConfig) *TagConvergence {
	def := DefaultTagConvergenceConfig()
	if cfg.SkipTags == nil {
		cfg.SkipTags = def.SkipTags
	}
	if cfg.MinClusterSize == 0 {
		cfg.MinClusterSize = def.MinClusterSize
	}
	if cfg.MinSourceDiversity == 0 {
		cfg.MinSourceDiversity = def.MinSourceDiversity
	}
	if cfg.MinConfidence == 0 {
		cfg.MinConfidence = def.MinConfidence
	}

	skip := make(map[string]struct{}, len(cfg.SkipTags))
	for _, t := range cfg.SkipTags {
		skip[strings.ToLower(t)] = struct{}{}
	}
	return &TagConvergence{cfg: cfg, skip: skip}
}

// Name implements Strategy.
func (s *TagConvergence) Name() string { return "tag_convergence" }

type tagClusterEntry struct {
	id         string
	sourceType domain.SourceType
}

// Detect implements Strategy.
func (s *TagConvergence) Detect(_ context.Context, snap *domain.DetectionContext) ([]domain.Opportunity, error) {
	clusters := make(map[string][]tagClusterEntry)

	for i := range snap.Entries {
		entry := &snap.Entries[i]
		for _, tag := range entry.Tags {
			tag = strings.ToLower(tag)
			if _, skip := s.skip[tag]; skip || len(tag) < 2 {
				continue
			}
			clusters[tag] = append(clusters[tag], tagClusterEntry{
				id:         entry.ID,
				sourceType: entry.SourceType,
			})
		}
	}

	// Iterate tags in sorted order so output is reproducible.
	tags := make([]string, 0, len(clusters))
	for tag := range clusters {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	var opportunities []domain.Opportunity

	for _, tag := range tags {
		members := clusters[tag]
		if len(members) < s.cfg.MinClusterSize {
			continue
		}

		sourceTypes := make(map[domain.SourceType]struct{})
		for _, m := range members {
			sourceTypes[m.sourceType] = struct{}{}
		}
		diversity := len(sourceTypes)
		if diversity < s.cfg.MinSourceDiversity {
			continue
		}

		base := minFloat(float64(len(members))/8.0, 0.8)
		confidence := minFloat(base*(1+0.15*float64(diversity-1)), 1.0)
		if confidence < s.cfg.MinConfidence {
			continue
		}

		supporting := make([]string, 0, len(members))
		for _, m := range members {
			supporting = append(supporting, m.id)
		}

		typeList := make([]string, 0, diversity)
		for st := range sourceTypes {
			typeList = append(typeList, string(st))
		}
		sort.Strings(typeList)

		opportunities = append(opportunities, domain.Opportunity{
			Strategy:   s.Name(),
			SignalType: "tag_convergence",
			Title: fmt.Sprintf("Convergence on '%s' — %d entries from %d source types",
				tag, len(members), diversity),
			Description: fmt.Sprintf(
				"Tag '%s' appears in %d entries across sources: %s. Multi-source convergence suggests higher signal reliability.",
				tag, len(members), strings.Join(typeList, ", ")),
			Confidence:        confidence,
			SuggestedAction:   fmt.Sprintf("Investigate '%s' for tradeable thesis", tag),
			SupportingEntries: supporting,
			Score:             domain.ComputeScore(confidence, nil, nil),
			DetectedAt:        snap.Now,
		})
	}

	return opportunities, nil
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
