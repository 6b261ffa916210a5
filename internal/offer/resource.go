package offer

import "fmt"

// Kind distinguishes database-level from collection-level resources.
type Kind string

const (
	KindDatabase   Kind = "database"
	KindCollection Kind = "collection"
)

// Resource identifies the database or collection an offer belongs to.
type Resource struct {
	DatabaseID   string
	CollectionID string
	// ResourceID is the backend-assigned stable id (_rid), when known.
	ResourceID string
}

// Kind returns KindCollection when a collection id is set.
func (r Resource) Kind() Kind {
	if r.CollectionID != "" {
		return KindCollection
	}
	return KindDatabase
}

// String returns a human-readable label used in console messages.
func (r Resource) String() string {
	if r.CollectionID != "" {
		return fmt.Sprintf("collection %s", r.CollectionID)
	}
	return fmt.Sprintf("database %s", r.DatabaseID)
}
