package strategy

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Kloudy-Sky/openintel/internal/domain"
)

var defaultBullishWords = []string{
	"beat", "surge", "jump", "rally", "strong", "raised", "bullish", "soar",
	"boom", "gain", "growth", "positive", "upside", "momentum", "buy", "higher",
}

var defaultBearishWords = []string{
	"miss", "drop", "fell", "weak", "lowered", "disappointing", "cut",
	"bearish", "crash", "decline", "loss", "negative", "downside", "sell",
	"lower", "warning", "risk",
}

// defaultConvergenceSkipTags extends the generic denylist with broad
// finance terms that cluster everything with everything.
var defaultConvergenceSkipTags = []string{
	"market", "signal", "update", "analysis", "news", "general", "trade",
	"stock", "stocks", "economy", "finance", "investing", "investment",
}

// ConvergenceConfig tunes the directional convergence detector.
type ConvergenceConfig struct {
	SkipTags           []string
	BullishWords       []string
	BearishWords       []string
	MinClusterSize     int
	MinSourceDiversity int
	MinConfidence      float64

	// DecayPerHour is the exponential time-decay constant applied to
	// sentiment weights. 0.02/hr gives a half-life of about 35 hours.
	DecayPerHour float64
}

// DefaultConvergenceConfig returns the standard thresholds.
func DefaultConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		SkipTags:           defaultConvergenceSkipTags,
		BullishWords:       defaultBullishWords,
		BearishWords:       defaultBearishWords,
		MinClusterSize:     3,
		MinSourceDiversity: 2,
		MinConfidence:      0.4,
		DecayPerHour:       0.02,
	}
}

// Convergence detects cross-source convergence on shared topics with
// directional alignment. Unlike TagConvergence, which only counts
// co-occurrence, it weights sentiment by recency, scores
// bullish/bearish consensus, identifies tradeable tickers within
// clusters, and flags overlap with open positions.
type Convergence struct {
	cfg  ConvergenceConfig
	skip map[string]struct{}
}

// NewConvergence creates the strategy. Zero-valued thresholds in cfg
// fall back to the defaults.
func NewConvergence(cfg ConvergenceConfig) *Convergence {
	def := DefaultConvergenceConfig()
	if cfg.SkipTags == nil {
		cfg.SkipTags = def.SkipTags
	}
	if cfg.BullishWords == nil {
		cfg.BullishWords = def.BullishWords
	}
	if cfg.BearishWords == nil {
		cfg.BearishWords = def.BearishWords
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
	if cfg.DecayPerHour == 0 {
		cfg.DecayPerHour = def.DecayPerHour
	}

	skip := make(map[string]struct{}, len(cfg.SkipTags))
	for _, t := range cfg.SkipTags {
		skip[strings.ToLower(t)] = struct{}{}
	}
	return &Convergence{cfg: cfg, skip: skip}
}

// Name implements Strategy.
func (s *Convergence) Name() string { return "convergence" }

// convCluster accumulates entries that share a topic tag.
type convCluster struct {
	topic       string
	entryIDs    []string
	entrySet    map[string]struct{}
	sourceTypes map[domain.SourceType]struct{}
	sources     map[string]struct{}
	bullish     float64
	bearish     float64
	tickers     map[string]struct{}
	titles      []string
}

func newConvCluster(topic string) *convCluster {
	return &convCluster{
		topic:       topic,
		entrySet:    make(map[string]struct{}),
		sourceTypes: make(map[domain.SourceType]struct{}),
		sources:     make(map[string]struct{}),
		tickers:     make(map[string]struct{}),
	}
}

func (c *convCluster) alignment() float64 {
	total := c.bullish + c.bearish
	if total < 0.01 {
		return 0.5 // neutral, no directional signal
	}
	return math.Abs(c.bullish-c.bearish) / total
}

func (c *convCluster) dominantDirection() (domain.Direction, bool) {
	if c.bullish < 0.01 && c.bearish < 0.01 {
		return "", false
	}
	switch {
	case c.bullish > c.bearish:
		return domain.DirectionBullish, true
	case c.bearish > c.bullish:
		return domain.DirectionBearish, true
	default:
		return "", false // mixed signals
	}
}

func (c *convCluster) sortedTickers() []string {
	out := make([]string, 0, len(c.tickers))
	for t := range c.tickers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Detect implements Strategy.
func (s *Convergence) Detect(_ context.Context, snap *domain.DetectionContext) ([]domain.Opportunity, error) {
	clusters := make(map[string]*convCluster)

	for i := range snap.Entries {
		entry := &snap.Entries[i]
		text := entry.SearchableText()

		ageHours := math.Max(entry.AgeHours(snap.Now), 0)
		timeWeight := math.Exp(-s.cfg.DecayPerHour * ageHours)

		bullish := float64(countMatches(text, s.cfg.BullishWords)) * timeWeight
		bearish := float64(countMatches(text, s.cfg.BearishWords)) * timeWeight

		for _, tag := range entry.Tags {
			tagLower := strings.ToLower(tag)
			if _, skip := s.skip[tagLower]; skip || len(tagLower) < 2 {
				continue
			}

			cluster, ok := clusters[tagLower]
			if !ok {
				cluster = newConvCluster(tagLower)
				clusters[tagLower] = cluster
			}

			// One entry contributes to a cluster at most once.
			if _, seen := cluster.entrySet[entry.ID]; seen {
				continue
			}
			cluster.entrySet[entry.ID] = struct{}{}
			cluster.entryIDs = append(cluster.entryIDs, entry.ID)
			cluster.sourceTypes[entry.SourceType] = struct{}{}
			if entry.Source != "" {
				cluster.sources[entry.Source] = struct{}{}
			}
			cluster.bullish += bullish
			cluster.bearish += bearish
			cluster.titles = append(cluster.titles, entry.Title)

			// Only tags that were already uppercase count as tickers,
			// so "china" never becomes "CHINA".
			if isTickerTag(tag) {
				cluster.tickers[tag] = struct{}{}
			}
		}
	}

	activeTickers := snap.OpenTickers()

	topics := make([]string, 0, len(clusters))
	for topic := range clusters {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	var opportunities []domain.Opportunity

	for _, topic := range topics {
		cluster := clusters[topic]
		if len(cluster.entryIDs) < s.cfg.MinClusterSize {
			continue
		}
		diversity := len(cluster.sourceTypes)
		if diversity < s.cfg.MinSourceDiversity {
			continue
		}

		alignment := cluster.alignment()

		base := minFloat(float64(len(cluster.entryIDs))/10.0, 0.7)
		diversityBoost := 1 + 0.15*float64(diversity-1)
		alignmentFactor := 0.5 + 0.5*alignment
		confidence := minFloat(base*diversityBoost*alignmentFactor, 1.0)
		if confidence < s.cfg.MinConfidence {
			continue
		}

		direction, hasDirection := cluster.dominantDirection()
		directionLabel := "mixed"
		if hasDirection {
			directionLabel = string(direction)
		}

		sortedTickers := cluster.sortedTickers()
		primaryTicker := ""
		if len(sortedTickers) > 0 {
			primaryTicker = sortedTickers[0]
		}

		var actionParts []string
		for _, t := range sortedTickers {
			if _, held := activeTickers[t]; held {
				actionParts = append(actionParts, fmt.Sprintf("⚠️ Already have position in %s", t))
				break
			}
		}
		actionParts = append(actionParts, fmt.Sprintf(
			"Investigate '%s' — %s signals from %d sources",
			cluster.topic, directionLabel, diversity))

		typeList := make([]string, 0, diversity)
		for st := range cluster.sourceTypes {
			typeList = append(typeList, string(st))
		}
		sort.Strings(typeList)

		sampleTitles := cluster.titles
		if len(sampleTitles) > 3 {
			sampleTitles = sampleTitles[:3]
		}

		opp := domain.Opportunity{
			Strategy:   s.Name(),
			SignalType: "cross_intel_convergence",
			Title: fmt.Sprintf("Convergence: '%s' — %d entries, %d sources, %s alignment",
				cluster.topic, len(cluster.entryIDs), diversity, directionLabel),
			Description: fmt.Sprintf("%d entries from [%s] converge on '%s' (alignment: %.0f%%). Sample: %s",
				len(cluster.entryIDs), strings.Join(typeList, ", "), cluster.topic,
				alignment*100, strings.Join(sampleTitles, "; ")),
			Confidence:        confidence,
			MarketTicker:      primaryTicker,
			SuggestedAction:   strings.Join(actionParts, ". "),
			SupportingEntries: cluster.entryIDs,
			Score:             domain.ComputeScore(confidence, nil, nil),
			DetectedAt:        snap.Now,
		}
		if hasDirection {
			opp.SuggestedDirection = direction
		}
		opportunities = append(opportunities, opp)
	}

	return opportunities, nil
}

func countMatches(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}

// isTickerTag reports whether a raw tag looks like an equity ticker:
// non-empty, at most 5 characters, all ASCII uppercase letters.
func isTickerTag(tag string) bool {
	if tag == "" || len(tag) > 5 {
		return false
	}
	for _, c := range tag {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}
