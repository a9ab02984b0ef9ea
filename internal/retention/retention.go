// Package retention decides whether aged records should be retained,
// archived, or deleted. It only classifies; the archival and deletion
// jobs that act on a decision live outside this service.
package retention

import (
	"time"
)

// LifecycleAction is the decision for a record given its age and type.
type LifecycleAction string

const (
	ActionRetain  LifecycleAction = "retain"
	ActionArchive LifecycleAction = "archive"
	ActionDelete  LifecycleAction = "delete"
)

// DefaultPeriodDays is the retention period applied to resource types
// without an explicit policy.
const DefaultPeriodDays = 365

// archiveWindowDays is how long before expiry a record becomes
// archive-eligible.
const archiveWindowDays = 365

// Decision is the classification result for one record.
type Decision struct {
	ResourceType  string          `json:"resource_type"`
	ShouldRetain  bool            `json:"should_retain"`
	DaysRemaining int             `json:"days_remaining"`
	Action        LifecycleAction `json:"action"`
}

// PeriodDays returns the retention period table, in days per resource
// type. The figures track HIPAA-style minimums (medical records 7y,
// audit logs 6y, imaging 10y) and are kept verbatim for parity with the
// system this replaces.
func PeriodDays() map[string]int {
	return map[string]int{
		"medical-records": 2555,
		"appointments":    1095,
		"audit-logs":      2190,
		"prescriptions":   1825,
		"lab-results":     2555,
		"imaging":         3650,
		"financial":       2555,
	}
}

// Classify decides the lifecycle action for a record of the given type
// created at createdAt, as of now. Pure calculation: archive when within
// the final year of its period, delete once the period has elapsed,
// retain otherwise. Unlisted types get the 365-day default.
func Classify(resourceType string, createdAt, now time.Time) Decision {
	period, ok := PeriodDays()[resourceType]
	if !ok {
		period = DefaultPeriodDays
	}

	ageDays := int(now.Sub(createdAt).Hours() / 24)
	remaining := period - ageDays

	decision := Decision{
		ResourceType:  resourceType,
		ShouldRetain:  remaining > 0,
		DaysRemaining: remaining,
	}

	switch {
	case remaining <= 0:
		decision.Action = ActionDelete
	case remaining <= archiveWindowDays:
		decision.Action = ActionArchive
	default:
		decision.Action = ActionRetain
	}

	return decision
}
