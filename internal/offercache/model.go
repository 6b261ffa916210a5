package offercache

import (
	"time"

	"github.com/google/uuid"

	"github.com/Azure/cosmos-explorer-sub003/internal/account"
	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
)

// Entry represents a row in the offers table: the last canonical offer seen
// for a database or collection.
type Entry struct {
	ID                  uuid.UUID
	AccountName         string
	APIType             string
	DatabaseID          string
	CollectionID        string // empty for database-level offers
	OfferID             string
	Mode                string
	Throughput          int
	MinimumThroughput   *int
	OfferReplacePending bool
	ThroughputBuckets   []offer.ThroughputBucket
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewEntry builds a cache entry from a canonical offer.
func NewEntry(acct account.Context, res offer.Resource, o *offer.Offer) *Entry {
	e := &Entry{
		AccountName:  acct.AccountName,
		APIType:      string(acct.APIType),
		DatabaseID:   res.DatabaseID,
		CollectionID: res.CollectionID,
		Mode:         string(offer.ModeNone),
	}
	if o == nil {
		return e
	}
	e.OfferID = o.ID
	e.Mode = string(o.Mode)
	e.Throughput = o.Throughput()
	if o.MinimumThroughput != nil {
		v := *o.MinimumThroughput
		e.MinimumThroughput = &v
	}
	e.OfferReplacePending = o.OfferReplacePending
	e.ThroughputBuckets = offer.CloneBuckets(o.ThroughputBuckets)
	return e
}

// Resource returns the resource identity the entry belongs to.
func (e *Entry) Resource() offer.Resource {
	return offer.Resource{DatabaseID: e.DatabaseID, CollectionID: e.CollectionID}
}

// ListFilter holds optional filters and pagination for listing entries.
type ListFilter struct {
	AccountName *string
	DatabaseID  *string
	Pending     *bool
	Page        int // default 1
	Limit       int // default 20
}

// ListResult holds the result of a paginated list query.
type ListResult struct {
	Entries []Entry
	Total   int
	Page    int
	Limit   int
}
