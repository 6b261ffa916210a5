package throughput

import (
	"context"
	"sort"

	"github.com/Azure/cosmos-explorer-sub003/internal/account"
	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
)

// Family is the set of management-plane calls for one API type.
type Family interface {
	// GetThroughput reads the throughput settings of a database or collection.
	GetThroughput(ctx context.Context, acct account.Context, res offer.Resource) (*offer.Offer, error)

	// UpdateThroughput writes a new throughput. It returns nil when the
	// response carries no resource.
	UpdateThroughput(ctx context.Context, acct account.Context, res offer.Resource, update offer.Update) (*offer.Offer, error)

	MigrateToAutoscale(ctx context.Context, acct account.Context, res offer.Resource) error
	MigrateToManualThroughput(ctx context.Context, acct account.Context, res offer.Resource) error

	// GetDatabase returns nil when the database exists.
	GetDatabase(ctx context.Context, acct account.Context, databaseID string) error
	CreateUpdateDatabase(ctx context.Context, acct account.Context, req offer.DatabaseRequest) error

	// GetCollection returns nil when the collection exists.
	GetCollection(ctx context.Context, acct account.Context, res offer.Resource) error
	CreateUpdateCollection(ctx context.Context, acct account.Context, req offer.CollectionRequest) error
}

// Registry maps API types to their management-plane families.
type Registry struct {
	families map[account.APIType]Family
}

// NewRegistry creates an empty family registry.
func NewRegistry() *Registry {
	return &Registry{
		families: make(map[account.APIType]Family),
	}
}

// Register adds a family under the given API type.
func (r *Registry) Register(api account.APIType, f Family) {
	r.families[api] = f
}

// Get returns the family registered for the API type.
// Returns false if the API type is not registered.
func (r *Registry) Get(api account.APIType) (Family, bool) {
	f, ok := r.families[api]
	return f, ok
}

// Names returns the registered API types, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.families))
	for api := range r.families {
		names = append(names, string(api))
	}
	sort.Strings(names)
	return names
}
