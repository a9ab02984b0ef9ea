package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/access"
)

// User maps to the users table. A user holds exactly one active role;
// the only way it changes is through Service.ChangeRole.
type User struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	Email     string      `db:"email" json:"email"`
	Name      string      `db:"name" json:"name"`
	Role      access.Role `db:"role" json:"role"`
	Active    bool        `db:"active" json:"active"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}
