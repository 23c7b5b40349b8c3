// Package strategy contains the detection strategies that turn a
// snapshot of intel entries into trade opportunities, plus the
// registry that holds them.
package strategy

import (
	"context"

	"github.com/Kloudy-Sky/openintel/internal/domain"
)

// Strategy inspects a detection snapshot and emits zero or more
// opportunities. Detect must be a pure read of the snapshot: no
// mutation, no I/O, so strategies can run concurrently over the same
// context.
type Strategy interface {
	// Name returns a stable identifier used in logs, reports, and
	// opportunity attribution.
	Name() string

	// Detect scans the snapshot. Returning an empty slice means
	// nothing qualified; returning an error marks the strategy as
	// failed for this scan without affecting the others.
	Detect(ctx context.Context, snap *domain.DetectionContext) ([]domain.Opportunity, error)
}
