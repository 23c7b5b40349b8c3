package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Kloudy-Sky/openintel/internal/domain"
	"github.com/Kloudy-Sky/openintel/internal/scan"
)

// Event types understood by the Notifier filter.
const (
	EventScanCompleted      = "scan_completed"
	EventExecutionCompleted = "execution_completed"
	EventOpportunity        = "opportunity"
)

// announceLimit caps how many opportunities one scan message lists.
const announceLimit = 5

// Announcer renders scan and execution results into operator-facing
// messages. Individual opportunity alerts are deduplicated so a
// dislocation that persists across scans announces once per window.
type Announcer struct {
	notifier *Notifier
	dedup    *Dedup
}

// NewAnnouncer creates an Announcer over the given notifier. A 6-hour
// dedup window covers the typical lifetime of a band-sum dislocation.
func NewAnnouncer(notifier *Notifier) *Announcer {
	return &Announcer{
		notifier: notifier,
		dedup:    NewDedup(6 * time.Hour),
	}
}

// AnnounceScan summarizes a completed scan: counters plus the top
// ranked opportunities.
func (a *Announcer) AnnounceScan(ctx context.Context, report *scan.Report) error {
	title := fmt.Sprintf("Scan: %d opportunities from %d entries",
		report.TotalOpportunities, report.EntriesScanned)

	var b strings.Builder
	fmt.Fprintf(&b, "Window: %dh, strategies: %d run / %d failed\n",
		report.WindowHours, report.StrategiesRun, report.StrategiesFailed)
	for i, opp := range report.Opportunities {
		if i == announceLimit {
			fmt.Fprintf(&b, "…and %d more", len(report.Opportunities)-announceLimit)
			break
		}
		fmt.Fprintf(&b, "%d. [%.2f] %s (%.0f%%)\n", i+1, opp.Score, opp.Title, opp.Confidence*100)
	}

	return a.notifier.Notify(ctx, EventScanCompleted, title, b.String())
}

// AnnounceExecution summarizes a completed execution run.
func (a *Announcer) AnnounceExecution(ctx context.Context, result *domain.ExecutionResult) error {
	title := fmt.Sprintf("Execution (%s): %d trades, $%.2f deployed",
		result.Mode, result.TradesQualified, float64(result.TotalDeploymentCents)/100)

	var b strings.Builder
	fmt.Fprintf(&b, "Scanned %d, skipped %d\n",
		result.OpportunitiesScanned, result.TradesSkipped)
	for _, plan := range result.Trades {
		fmt.Fprintf(&b, "• %s %s $%.2f — %s\n",
			plan.Ticker, plan.Direction, float64(plan.SizeCents)/100, plan.Action)
	}
	if len(result.FeedErrors) > 0 {
		fmt.Fprintf(&b, "Feed errors: %d", len(result.FeedErrors))
	}

	return a.notifier.Notify(ctx, EventExecutionCompleted, title, b.String())
}

// AnnounceOpportunity sends a single high-priority opportunity alert,
// suppressed when the same strategy/title pair fired recently.
func (a *Announcer) AnnounceOpportunity(ctx context.Context, opp *domain.Opportunity) error {
	key := opp.Strategy + "|" + opp.Title
	if a.dedup.IsDuplicate(key) {
		return nil
	}

	title := fmt.Sprintf("Opportunity: %s", opp.Title)
	message := fmt.Sprintf("%s\nScore %.2f, confidence %.0f%%",
		opp.Description, opp.Score, opp.Confidence*100)
	if opp.SuggestedAction != "" {
		message += "\n" + opp.SuggestedAction
	}

	return a.notifier.Notify(ctx, EventOpportunity, title, message)
}
