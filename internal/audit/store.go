package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an entry lookup matches nothing.
var ErrNotFound = errors.New("audit entry not found")

// Filter narrows a Find call. Zero-valued fields are wildcards; set
// fields must all match.
type Filter struct {
	ActorID      string
	Action       string
	ResourceType string
	PatientID    string
	Success      *bool
	Since        *time.Time
	Until        *time.Time
}

// Store is the persistence collaborator for audit entries. Insert must be
// safe under concurrent writers (the relational store's insert atomicity
// is sufficient; no in-process locking is implied). Find returns matching
// entries newest first plus the total match count.
type Store interface {
	Insert(ctx context.Context, entry *Entry) error
	Find(ctx context.Context, filter Filter, limit, offset int) ([]*Entry, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
}
