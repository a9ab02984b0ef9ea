package user

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/access"
)

// ErrNotFound is returned when a user lookup matches nothing.
var ErrNotFound = errors.New("user not found")

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role access.Role) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}
