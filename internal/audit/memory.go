package audit

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by tests and development mode.
// Entries are copied on the way in and out so callers can never mutate a
// stored record.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make([]Entry, 0)}
}

func (s *MemoryStore) Insert(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, copyEntry(*entry))
	return nil
}

func (s *MemoryStore) Find(_ context.Context, filter Filter, limit, offset int) ([]*Entry, int, error) {
	s.mu.RLock()
	var matched []Entry
	for _, e := range s.entries {
		if matchEntry(e, filter) {
			matched = append(matched, copyEntry(e))
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Recorded.After(matched[j].Recorded)
	})

	total := len(matched)
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	page := make([]*Entry, 0, end-offset)
	for i := offset; i < end; i++ {
		e := matched[i]
		page = append(page, &e)
	}
	return page, total, nil
}

func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			out := copyEntry(e)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func matchEntry(e Entry, f Filter) bool {
	if f.ActorID != "" && e.ActorID != f.ActorID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.ResourceType != "" && e.ResourceType != f.ResourceType {
		return false
	}
	if f.PatientID != "" && e.PatientID != f.PatientID {
		return false
	}
	if f.Success != nil && e.Success != *f.Success {
		return false
	}
	if f.Since != nil && e.Recorded.Before(*f.Since) {
		return false
	}
	if f.Until != nil && e.Recorded.After(*f.Until) {
		return false
	}
	return true
}

func copyEntry(e Entry) Entry {
	if e.Details != nil {
		details := make(map[string]any, len(e.Details))
		for k, v := range e.Details {
			details[k] = v
		}
		e.Details = details
	}
	return e
}
