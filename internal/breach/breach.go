// Package breach flags anomalous access bursts from the audit trail.
// It is a fixed-threshold rate heuristic, not a statistical detector:
// no learning, no baseline adaptation. The thresholds are kept verbatim
// for behavioral parity with the system this replaces.
package breach

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/audit"
)

// Signal is the non-persisted judgement for one actor and window.
type Signal struct {
	IsBreach  bool            `json:"is_breach"`
	RiskLevel audit.RiskLevel `json:"risk_level"`
}

// Evaluate classifies a burst of resourceCount distinct resources
// accessed within window. Pure function; callable concurrently.
func Evaluate(resourceCount int, window time.Duration) Signal {
	switch {
	case resourceCount > 50 && window < 5*time.Minute:
		return Signal{IsBreach: true, RiskLevel: audit.RiskHigh}
	case resourceCount > 20 && window < 10*time.Minute:
		return Signal{IsBreach: false, RiskLevel: audit.RiskMedium}
	case resourceCount > 10 && window < 30*time.Minute:
		return Signal{IsBreach: false, RiskLevel: audit.RiskLow}
	default:
		return Signal{IsBreach: false, RiskLevel: audit.RiskLow}
	}
}

// Detector evaluates breach signals against the audit log and records a
// SECURITY_BREACH_DETECTED entry when one fires.
type Detector struct {
	store    audit.Store
	recorder *audit.Recorder
	logger   zerolog.Logger
	now      func() time.Time
}

// NewDetector creates a Detector.
func NewDetector(store audit.Store, recorder *audit.Recorder, logger zerolog.Logger) *Detector {
	return &Detector{
		store:    store,
		recorder: recorder,
		logger:   logger.With().Str("component", "breach-detector").Logger(),
		now:      time.Now,
	}
}

// WithClock returns a copy of the Detector using the given clock. Test seam.
func (d *Detector) WithClock(now func() time.Time) *Detector {
	clone := *d
	clone.now = now
	return &clone
}

// Check evaluates the supplied count and window for the actor, recording
// one audit entry describing the pattern if a breach is flagged. The
// recorded entry is a security event and is excluded from future scans,
// so a breach write can never amplify itself.
func (d *Detector) Check(ctx context.Context, actorID string, resourceCount int, window time.Duration) Signal {
	signal := Evaluate(resourceCount, window)
	if !signal.IsBreach {
		return signal
	}

	d.logger.Warn().
		Str("actor_id", actorID).
		Int("resource_count", resourceCount).
		Dur("window", window).
		Msg("access burst flagged as breach")

	d.recorder.Record(ctx, &audit.Entry{
		ActorID:      actorID,
		Action:       audit.ActionBreachDetected,
		ResourceType: "audit-logs",
		Success:      true,
		RiskLevel:    signal.RiskLevel,
		Details: map[string]any{
			"resource_count": resourceCount,
			"window_minutes": window.Minutes(),
			"pattern":        fmt.Sprintf("%d distinct resources in %s", resourceCount, window),
		},
	})

	return signal
}

// Scan derives the actor's distinct-resource count over the trailing
// window from the audit log, then runs Check. Only plain CRUD entries
// count toward the window; security event entries are skipped.
func (d *Detector) Scan(ctx context.Context, actorID string, window time.Duration) (Signal, error) {
	since := d.now().UTC().Add(-window)
	entries, _, err := d.store.Find(ctx, audit.Filter{ActorID: actorID, Since: &since}, 0, 0)
	if err != nil {
		return Signal{RiskLevel: audit.RiskLow}, fmt.Errorf("breach scan: %w", err)
	}

	seen := make(map[string]struct{})
	for _, e := range entries {
		if audit.IsSecurityEvent(e.Action) {
			continue
		}
		seen[e.ResourceType+"/"+e.ResourceID] = struct{}{}
	}

	return d.Check(ctx, actorID, len(seen), window), nil
}
