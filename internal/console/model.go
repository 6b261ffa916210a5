package console

import (
	"time"

	"github.com/google/uuid"
)

// Level is the kind of console notification.
type Level string

const (
	LevelInfo     Level = "info"
	LevelError    Level = "error"
	LevelProgress Level = "progress"
)

// Entry represents a row in the console_entries table.
type Entry struct {
	ID         uuid.UUID
	Level      Level
	Message    string
	InProgress bool
	CreatedAt  time.Time
	ClearedAt  *time.Time
}

// ListFilter holds optional filters and pagination for listing entries.
type ListFilter struct {
	Level *Level
	Page  int // default 1
	Limit int // default 50
}

// ListResult holds the result of a paginated list query.
type ListResult struct {
	Entries []Entry
	Total   int
	Page    int
	Limit   int
}

func (f *ListFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
}
