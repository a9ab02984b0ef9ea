package audit

import (
	"time"

	"github.com/google/uuid"
)

// RiskLevel is the coarse classification assigned to an entry at write time.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Event action codes recorded alongside the plain CRUD actions. Entries
// carrying one of these must include a structured Details payload
// documenting the before/after state or the event specifics.
const (
	ActionUserCreated      = "USER_CREATED"
	ActionRoleChanged      = "ROLE_CHANGED"
	ActionPaymentProcessed = "PAYMENT_PROCESSED"
	ActionIncidentReported = "SECURITY_INCIDENT_REPORTED"
	ActionBreachDetected   = "SECURITY_BREACH_DETECTED"
)

// IsSecurityEvent reports whether the action code is one of the security
// event codes. Breach scans skip these so a breach write can never feed
// its own triggering window.
func IsSecurityEvent(action string) bool {
	return action == ActionIncidentReported || action == ActionBreachDetected
}

// Entry is one immutable record of an access attempt, successful or not.
// The audit log owns entries exclusively: nothing updates or deletes one
// after Record; retention is an external lifecycle job.
type Entry struct {
	ID           uuid.UUID      `db:"id" json:"id"`
	ActorID      string         `db:"actor_id" json:"actor_id"`
	ActorRole    string         `db:"actor_role" json:"actor_role"`
	Action       string         `db:"action" json:"action"`
	ResourceType string         `db:"resource_type" json:"resource_type"`
	ResourceID   string         `db:"resource_id" json:"resource_id"`
	PatientID    string         `db:"patient_id" json:"patient_id,omitempty"`
	IPAddress    string         `db:"ip_address" json:"ip_address"`
	UserAgent    string         `db:"user_agent" json:"user_agent"`
	Success      bool           `db:"success" json:"success"`
	Details      map[string]any `db:"details" json:"details,omitempty"`
	RiskLevel    RiskLevel      `db:"risk_level" json:"risk_level"`
	SessionHash  string         `db:"session_hash" json:"session_hash"`
	Recorded     time.Time      `db:"recorded" json:"recorded"`
}
