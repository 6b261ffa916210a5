package console

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps the most recent entries in a bounded buffer. It is
// used when no database is configured.
type MemoryRepository struct {
	mu      sync.Mutex
	entries []Entry
	max     int
}

func NewMemoryRepository(capacity int) *MemoryRepository {
	if capacity < 1 {
		capacity = 500
	}
	return &MemoryRepository{max: capacity}
}

func (r *MemoryRepository) Append(_ context.Context, e *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.ID = uuid.New()
	e.CreatedAt = time.Now().UTC()
	r.entries = append(r.entries, *e)
	if len(r.entries) > r.max {
		r.entries = r.entries[len(r.entries)-r.max:]
	}
	return nil
}

func (r *MemoryRepository) Clear(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.entries {
		if r.entries[i].ID == id {
			now := time.Now().UTC()
			r.entries[i].InProgress = false
			r.entries[i].ClearedAt = &now
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepository) List(_ context.Context, filter ListFilter) (*ListResult, error) {
	filter.normalize()
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []Entry
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if filter.Level != nil && e.Level != *filter.Level {
			continue
		}
		matched = append(matched, e)
	}

	start := (filter.Page - 1) * filter.Limit
	end := start + filter.Limit
	page := []Entry{}
	if start < len(matched) {
		if end > len(matched) {
			end = len(matched)
		}
		page = append(page, matched[start:end]...)
	}
	return &ListResult{Entries: page, Total: len(matched), Page: filter.Page, Limit: filter.Limit}, nil
}
