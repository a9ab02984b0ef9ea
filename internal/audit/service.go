package audit

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SearchResult is one page of matching entries, newest first.
type SearchResult struct {
	Entries []*Entry `json:"entries"`
	Total   int      `json:"total"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
}

// Summary aggregates matching entries for compliance dashboards.
type Summary struct {
	TotalEntries   int            `json:"total_entries"`
	ByAction       map[string]int `json:"by_action"`
	ByResourceType map[string]int `json:"by_resource_type"`
	ByActor        map[string]int `json:"by_actor"`
	ByRiskLevel    map[string]int `json:"by_risk_level"`
	Failures       int            `json:"failures"`
	TimeRange      struct {
		First time.Time `json:"first"`
		Last  time.Time `json:"last"`
	} `json:"time_range"`
}

// IncidentReport is an operator-submitted security incident.
type IncidentReport struct {
	Description string `json:"description"`
	Severity    string `json:"severity"`
	PatientID   string `json:"patient_id,omitempty"`
}

// Service provides the operator-facing read side of the audit log plus
// incident reporting. All retrieval is read-only: nothing here can touch
// an entry after it is written.
type Service struct {
	store    Store
	recorder *Recorder
	logger   zerolog.Logger
}

// NewService creates an audit Service.
func NewService(store Store, recorder *Recorder, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		recorder: recorder,
		logger:   logger.With().Str("component", "audit-service").Logger(),
	}
}

// Query returns the page of entries matching the filter, newest first.
func (s *Service) Query(ctx context.Context, filter Filter, limit, offset int) (*SearchResult, error) {
	entries, total, err := s.store.Find(ctx, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("audit query: %w", err)
	}
	if entries == nil {
		entries = make([]*Entry, 0)
	}
	return &SearchResult{Entries: entries, Total: total, Limit: limit, Offset: offset}, nil
}

// Get returns a single entry by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return s.store.GetByID(ctx, id)
}

// Summarize computes aggregate statistics over all entries matching the
// filter.
func (s *Service) Summarize(ctx context.Context, filter Filter) (*Summary, error) {
	entries, _, err := s.store.Find(ctx, filter, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("audit summary: %w", err)
	}

	summary := &Summary{
		TotalEntries:   len(entries),
		ByAction:       make(map[string]int),
		ByResourceType: make(map[string]int),
		ByActor:        make(map[string]int),
		ByRiskLevel:    make(map[string]int),
	}

	for i, e := range entries {
		summary.ByAction[e.Action]++
		summary.ByResourceType[e.ResourceType]++
		summary.ByActor[e.ActorID]++
		summary.ByRiskLevel[string(e.RiskLevel)]++
		if !e.Success {
			summary.Failures++
		}

		if i == 0 {
			summary.TimeRange.First = e.Recorded
			summary.TimeRange.Last = e.Recorded
			continue
		}
		if e.Recorded.Before(summary.TimeRange.First) {
			summary.TimeRange.First = e.Recorded
		}
		if e.Recorded.After(summary.TimeRange.Last) {
			summary.TimeRange.Last = e.Recorded
		}
	}

	return summary, nil
}

// ExportCSV writes every matching entry as CSV.
func (s *Service) ExportCSV(ctx context.Context, filter Filter, w io.Writer) error {
	entries, _, err := s.store.Find(ctx, filter, 0, 0)
	if err != nil {
		return fmt.Errorf("audit export: %w", err)
	}

	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"ID", "Recorded", "ActorID", "ActorRole", "Action",
		"ResourceType", "ResourceID", "PatientID", "Success", "RiskLevel", "IPAddress", "SessionHash"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("audit export csv: write header: %w", err)
	}

	for _, e := range entries {
		record := []string{
			e.ID.String(),
			e.Recorded.Format(time.RFC3339),
			e.ActorID,
			e.ActorRole,
			e.Action,
			e.ResourceType,
			e.ResourceID,
			e.PatientID,
			fmt.Sprintf("%t", e.Success),
			string(e.RiskLevel),
			e.IPAddress,
			e.SessionHash,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("audit export csv: write record: %w", err)
		}
	}
	return nil
}

// ExportJSON writes every matching entry as an indented JSON array.
func (s *Service) ExportJSON(ctx context.Context, filter Filter, w io.Writer) error {
	entries, _, err := s.store.Find(ctx, filter, 0, 0)
	if err != nil {
		return fmt.Errorf("audit export: %w", err)
	}
	if entries == nil {
		entries = make([]*Entry, 0)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("audit export json: %w", err)
	}
	return nil
}

// ReportIncident records a SECURITY_INCIDENT_REPORTED entry carrying the
// report specifics in the details payload.
func (s *Service) ReportIncident(ctx context.Context, actorID, actorRole, ip string, report IncidentReport) {
	risk := RiskMedium
	if strings.EqualFold(report.Severity, "high") || strings.EqualFold(report.Severity, "critical") {
		risk = RiskHigh
	}

	s.recorder.Record(ctx, &Entry{
		ActorID:      actorID,
		ActorRole:    actorRole,
		Action:       ActionIncidentReported,
		ResourceType: "audit-logs",
		PatientID:    report.PatientID,
		IPAddress:    ip,
		Success:      true,
		RiskLevel:    risk,
		Details: map[string]any{
			"description": report.Description,
			"severity":    report.Severity,
		},
	})
}
