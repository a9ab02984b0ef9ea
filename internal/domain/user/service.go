package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/access"
	"github.com/hms/hms/internal/audit"
)

var (
	// ErrForbidden means the generic access policy denied the operation.
	ErrForbidden = errors.New("operation not permitted for role")
	// ErrSuperAdminRequired means the role mutation touched super-admin
	// and the actor does not hold it.
	ErrSuperAdminRequired = errors.New("super-admin required for this role change")
	// ErrUnknownRole means the requested role is not an enumerated role.
	ErrUnknownRole = errors.New("unknown role")
)

// Actor identifies who is performing a user operation, for both the
// policy check and the audit trail.
type Actor struct {
	ID   string
	Role access.Role
	IP   string
}

// Service owns user lifecycle operations. User creation and every role
// change produce audit entries with a structured details payload; a
// denied role change is audited too, with Success=false.
type Service struct {
	repo     Repository
	checker  *access.Checker
	recorder *audit.Recorder
	logger   zerolog.Logger
}

// NewService creates a user Service.
func NewService(repo Repository, checker *access.Checker, recorder *audit.Recorder, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		checker:  checker,
		recorder: recorder,
		logger:   logger.With().Str("component", "user-service").Logger(),
	}
}

// Create registers a new user and records a USER_CREATED entry.
func (s *Service) Create(ctx context.Context, actor Actor, u *User) error {
	u.Email = strings.TrimSpace(strings.ToLower(u.Email))
	if u.Email == "" || u.Name == "" {
		return fmt.Errorf("email and name are required")
	}
	if !u.Role.Valid() {
		return ErrUnknownRole
	}
	// Granting super-admin at creation is a role mutation from nothing;
	// the same rule applies.
	if !access.CanChangeRole(actor.Role, u.Role, u.Role) {
		return ErrSuperAdminRequired
	}

	u.Active = true
	if err := s.repo.Create(ctx, u); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	s.recorder.Record(ctx, &audit.Entry{
		ActorID:      actor.ID,
		ActorRole:    string(actor.Role),
		Action:       audit.ActionUserCreated,
		ResourceType: string(access.ResourceUsers),
		ResourceID:   u.ID.String(),
		IPAddress:    actor.IP,
		Success:      true,
		Details: map[string]any{
			"email": u.Email,
			"role":  string(u.Role),
		},
	})
	return nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a page of users plus the total count.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// ChangeRole is the only path that mutates a user's role. The
// super-admin rule runs before the generic policy: touching super-admin
// in either direction requires the actor to hold it, regardless of what
// the policy table would otherwise allow.
func (s *Service) ChangeRole(ctx context.Context, actor Actor, targetID uuid.UUID, newRole access.Role) (*User, error) {
	if !newRole.Valid() {
		return nil, ErrUnknownRole
	}

	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if !access.CanChangeRole(actor.Role, target.Role, newRole) {
		s.auditRoleChange(ctx, actor, target, newRole, false, "super-admin required")
		return nil, ErrSuperAdminRequired
	}
	if !s.checker.Allowed(actor.Role, access.ResourceUsers, access.ActionUpdate) {
		s.auditRoleChange(ctx, actor, target, newRole, false, "policy denied")
		return nil, ErrForbidden
	}

	previous := target.Role
	if err := s.repo.UpdateRole(ctx, targetID, newRole); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	target.Role = newRole

	s.logger.Info().
		Str("actor_id", actor.ID).
		Str("target_id", targetID.String()).
		Str("previous_role", string(previous)).
		Str("new_role", string(newRole)).
		Msg("role changed")

	s.auditRoleChangeWithPrevious(ctx, actor, target, previous, newRole, true, "")
	return target, nil
}

// Deactivate disables a user without deleting the row.
func (s *Service) Deactivate(ctx context.Context, actor Actor, targetID uuid.UUID) error {
	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	// Deactivating a super-admin is a modification of a super-admin user.
	if target.Role == access.RoleSuperAdmin && actor.Role != access.RoleSuperAdmin {
		return ErrSuperAdminRequired
	}
	return s.repo.SetActive(ctx, targetID, false)
}

func (s *Service) auditRoleChange(ctx context.Context, actor Actor, target *User, requested access.Role, success bool, reason string) {
	s.auditRoleChangeWithPrevious(ctx, actor, target, target.Role, requested, success, reason)
}

func (s *Service) auditRoleChangeWithPrevious(ctx context.Context, actor Actor, target *User, previous, requested access.Role, success bool, reason string) {
	details := map[string]any{
		"target_id":      target.ID.String(),
		"previous_role":  string(previous),
		"requested_role": string(requested),
	}
	if reason != "" {
		details["denial_reason"] = reason
	}

	risk := audit.RiskLow
	if !success || requested == access.RoleSuperAdmin || previous == access.RoleSuperAdmin {
		risk = audit.RiskMedium
	}

	s.recorder.Record(ctx, &audit.Entry{
		ActorID:      actor.ID,
		ActorRole:    string(actor.Role),
		Action:       audit.ActionRoleChanged,
		ResourceType: string(access.ResourceUsers),
		ResourceID:   target.ID.String(),
		IPAddress:    actor.IP,
		Success:      success,
		RiskLevel:    risk,
		Details:      details,
	})
}
