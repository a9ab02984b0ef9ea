package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const entryColumns = `id, actor_id, actor_role, action, resource_type, resource_id,
	patient_id, ip_address, user_agent, success, details, risk_level, session_hash, recorded`

type pgStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a Store backed by the audit_log table.
func NewPGStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) Insert(ctx context.Context, entry *Entry) error {
	details := entry.Details
	if details == nil {
		details = map[string]any{}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_log (
			id, actor_id, actor_role, action, resource_type, resource_id,
			patient_id, ip_address, user_agent, success, details,
			risk_level, session_hash, recorded
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		entry.ID, entry.ActorID, entry.ActorRole, entry.Action, entry.ResourceType, entry.ResourceID,
		entry.PatientID, entry.IPAddress, entry.UserAgent, entry.Success, details,
		entry.RiskLevel, entry.SessionHash, entry.Recorded,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *pgStore) Find(ctx context.Context, filter Filter, limit, offset int) ([]*Entry, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	idx := 1

	addClause := func(clause string, arg interface{}) {
		where += fmt.Sprintf(clause, idx)
		args = append(args, arg)
		idx++
	}

	if filter.ActorID != "" {
		addClause(` AND actor_id = $%d`, filter.ActorID)
	}
	if filter.Action != "" {
		addClause(` AND action = $%d`, filter.Action)
	}
	if filter.ResourceType != "" {
		addClause(` AND resource_type = $%d`, filter.ResourceType)
	}
	if filter.PatientID != "" {
		addClause(` AND patient_id = $%d`, filter.PatientID)
	}
	if filter.Success != nil {
		addClause(` AND success = $%d`, *filter.Success)
	}
	if filter.Since != nil {
		addClause(` AND recorded >= $%d`, *filter.Since)
	}
	if filter.Until != nil {
		addClause(` AND recorded <= $%d`, *filter.Until)
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_log`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	query := `SELECT ` + entryColumns + ` FROM audit_log` + where + ` ORDER BY recorded DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, idx)
		args = append(args, limit)
		idx++
	}
	query += fmt.Sprintf(` OFFSET $%d`, idx)
	args = append(args, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}
	return entries, total, rows.Err()
}

func (s *pgStore) GetByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	entry, err := scanEntry(s.pool.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM audit_log WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return entry, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var e Entry
	err := row.Scan(
		&e.ID, &e.ActorID, &e.ActorRole, &e.Action, &e.ResourceType, &e.ResourceID,
		&e.PatientID, &e.IPAddress, &e.UserAgent, &e.Success, &e.Details,
		&e.RiskLevel, &e.SessionHash, &e.Recorded,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
