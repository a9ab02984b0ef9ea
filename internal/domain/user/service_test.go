package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/access"
	"github.com/hms/hms/internal/audit"
)

// fakeRepo is an in-memory Repository for service tests.
type fakeRepo struct {
	users     map[uuid.UUID]*User
	createErr error
	updateErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[uuid.UUID]*User)}
}

func (r *fakeRepo) Create(_ context.Context, u *User) error {
	if r.createErr != nil {
		return r.createErr
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	clone := *u
	r.users[u.ID] = &clone
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) List(_ context.Context, limit, offset int) ([]*User, int, error) {
	var out []*User
	for _, u := range r.users {
		clone := *u
		out = append(out, &clone)
	}
	return out, len(out), nil
}

func (r *fakeRepo) UpdateRole(_ context.Context, id uuid.UUID, role access.Role) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Role = role
	return nil
}

func (r *fakeRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Active = active
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo, *audit.MemoryStore) {
	t.Helper()
	repo := newFakeRepo()
	store := audit.NewMemoryStore()
	recorder := audit.NewRecorder(store, zerolog.Nop())
	checker := access.NewChecker(access.DefaultPolicy(), zerolog.Nop())
	return NewService(repo, checker, recorder, zerolog.Nop()), repo, store
}

func seedUser(t *testing.T, repo *fakeRepo, role access.Role) *User {
	t.Helper()
	u := &User{Email: string(role) + "@hospital.test", Name: "Seed User", Role: role, Active: true}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestService_Create(t *testing.T) {
	svc, repo, store := newTestService(t)
	actor := Actor{ID: "admin-1", Role: access.RoleAdmin, IP: "10.0.0.1"}

	u := &User{Email: "  NEW.Doctor@Hospital.test ", Name: "New Doctor", Role: access.RoleDoctor}
	if err := svc.Create(context.Background(), actor, u); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if u.Email != "new.doctor@hospital.test" {
		t.Errorf("email not normalized: %s", u.Email)
	}
	if !u.Active {
		t.Error("new users must start active")
	}
	if _, err := repo.GetByID(context.Background(), u.ID); err != nil {
		t.Errorf("user not persisted: %v", err)
	}

	entries, _, _ := store.Find(context.Background(), audit.Filter{Action: audit.ActionUserCreated}, 0, 0)
	if len(entries) != 1 {
		t.Fatalf("expected 1 USER_CREATED entry, got %d", len(entries))
	}
	if entries[0].Details["role"] != string(access.RoleDoctor) {
		t.Errorf("audited role = %v, want doctor", entries[0].Details["role"])
	}
}

func TestService_CreateValidation(t *testing.T) {
	svc, _, store := newTestService(t)
	actor := Actor{ID: "admin-1", Role: access.RoleAdmin}

	tests := []struct {
		name string
		user *User
	}{
		{"missing email", &User{Name: "X", Role: access.RoleNurse}},
		{"missing name", &User{Email: "x@y.test", Role: access.RoleNurse}},
		{"unknown role", &User{Email: "x@y.test", Name: "X", Role: access.Role("janitor")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.Create(context.Background(), actor, tt.user); err == nil {
				t.Error("expected error")
			}
		})
	}

	if store.Len() != 0 {
		t.Errorf("rejected creations must not be audited as USER_CREATED, got %d entries", store.Len())
	}
}

func TestService_CreateSuperAdminRequiresSuperAdmin(t *testing.T) {
	svc, _, _ := newTestService(t)

	u := &User{Email: "x@y.test", Name: "X", Role: access.RoleSuperAdmin}
	err := svc.Create(context.Background(), Actor{ID: "admin-1", Role: access.RoleAdmin}, u)
	if !errors.Is(err, ErrSuperAdminRequired) {
		t.Errorf("error = %v, want ErrSuperAdminRequired", err)
	}

	u2 := &User{Email: "z@y.test", Name: "Z", Role: access.RoleSuperAdmin}
	if err := svc.Create(context.Background(), Actor{ID: "root-1", Role: access.RoleSuperAdmin}, u2); err != nil {
		t.Errorf("super-admin creating super-admin should succeed, got %v", err)
	}
}

func TestService_ChangeRole(t *testing.T) {
	svc, repo, store := newTestService(t)
	target := seedUser(t, repo, access.RoleNurse)
	actor := Actor{ID: "root-1", Role: access.RoleSuperAdmin, IP: "10.0.0.2"}

	updated, err := svc.ChangeRole(context.Background(), actor, target.ID, access.RoleDoctor)
	if err != nil {
		t.Fatalf("ChangeRole() error: %v", err)
	}
	if updated.Role != access.RoleDoctor {
		t.Errorf("returned role = %s, want doctor", updated.Role)
	}

	persisted, _ := repo.GetByID(context.Background(), target.ID)
	if persisted.Role != access.RoleDoctor {
		t.Errorf("persisted role = %s, want doctor", persisted.Role)
	}

	entries, _, _ := store.Find(context.Background(), audit.Filter{Action: audit.ActionRoleChanged}, 0, 0)
	if len(entries) != 1 {
		t.Fatalf("expected 1 ROLE_CHANGED entry, got %d", len(entries))
	}
	e := entries[0]
	if !e.Success {
		t.Error("successful change must audit Success=true")
	}
	if e.Details["previous_role"] != string(access.RoleNurse) {
		t.Errorf("previous_role = %v, want nurse", e.Details["previous_role"])
	}
	if e.Details["requested_role"] != string(access.RoleDoctor) {
		t.Errorf("requested_role = %v, want doctor", e.Details["requested_role"])
	}
}

func TestService_ChangeRoleSuperAdminRule(t *testing.T) {
	tests := []struct {
		name      string
		actorRole access.Role
		current   access.Role
		requested access.Role
		wantErr   error
	}{
		{"admin grants super-admin", access.RoleAdmin, access.RoleNurse, access.RoleSuperAdmin, ErrSuperAdminRequired},
		{"admin demotes super-admin", access.RoleAdmin, access.RoleSuperAdmin, access.RoleNurse, ErrSuperAdminRequired},
		{"doctor changes any role", access.RoleDoctor, access.RoleNurse, access.RoleFrontDesk, ErrForbidden},
		{"super-admin grants super-admin", access.RoleSuperAdmin, access.RoleNurse, access.RoleSuperAdmin, nil},
		{"super-admin demotes super-admin", access.RoleSuperAdmin, access.RoleSuperAdmin, access.RoleAdmin, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, store := newTestService(t)
			target := seedUser(t, repo, tt.current)
			actor := Actor{ID: "actor-1", Role: tt.actorRole}

			_, err := svc.ChangeRole(context.Background(), actor, target.ID, tt.requested)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}

			entries, _, _ := store.Find(context.Background(), audit.Filter{Action: audit.ActionRoleChanged}, 0, 0)
			if len(entries) != 1 {
				t.Fatalf("every role change attempt must be audited, got %d entries", len(entries))
			}
			if entries[0].Success != (tt.wantErr == nil) {
				t.Errorf("audited Success = %v, want %v", entries[0].Success, tt.wantErr == nil)
			}
			if tt.wantErr != nil {
				if entries[0].Details["denial_reason"] == nil {
					t.Error("denied change must carry a denial_reason")
				}
				persisted, _ := repo.GetByID(context.Background(), target.ID)
				if persisted.Role != tt.current {
					t.Errorf("denied change mutated role to %s", persisted.Role)
				}
			}
		})
	}
}

func TestService_ChangeRoleUnknownRole(t *testing.T) {
	svc, repo, store := newTestService(t)
	target := seedUser(t, repo, access.RoleNurse)

	_, err := svc.ChangeRole(context.Background(),
		Actor{ID: "root-1", Role: access.RoleSuperAdmin}, target.ID, access.Role("wizard"))
	if !errors.Is(err, ErrUnknownRole) {
		t.Errorf("error = %v, want ErrUnknownRole", err)
	}
	if store.Len() != 0 {
		t.Error("malformed requests are rejected before the audit trail")
	}
}

func TestService_ChangeRoleTargetNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ChangeRole(context.Background(),
		Actor{ID: "root-1", Role: access.RoleSuperAdmin}, uuid.New(), access.RoleDoctor)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestService_Deactivate(t *testing.T) {
	svc, repo, _ := newTestService(t)
	target := seedUser(t, repo, access.RoleNurse)

	if err := svc.Deactivate(context.Background(), Actor{ID: "admin-1", Role: access.RoleAdmin}, target.ID); err != nil {
		t.Fatalf("Deactivate() error: %v", err)
	}
	persisted, _ := repo.GetByID(context.Background(), target.ID)
	if persisted.Active {
		t.Error("expected user deactivated")
	}
}

func TestService_DeactivateSuperAdminProtected(t *testing.T) {
	svc, repo, _ := newTestService(t)
	target := seedUser(t, repo, access.RoleSuperAdmin)

	err := svc.Deactivate(context.Background(), Actor{ID: "admin-1", Role: access.RoleAdmin}, target.ID)
	if !errors.Is(err, ErrSuperAdminRequired) {
		t.Errorf("error = %v, want ErrSuperAdminRequired", err)
	}
	persisted, _ := repo.GetByID(context.Background(), target.ID)
	if !persisted.Active {
		t.Error("denied deactivation must not disable the account")
	}
}
