package arm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Azure/cosmos-explorer-sub003/internal/account"
	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
)

// Family issues throughput calls for one API type. Segment names select the
// resource provider paths.
type Family struct {
	client     *Client
	api        account.APIType
	database   string
	collection string
}

// NewFamilies returns one family per API type, all sharing the client.
func NewFamilies(c *Client) map[account.APIType]*Family {
	return map[account.APIType]*Family{
		account.APISQL:       {client: c, api: account.APISQL, database: "sqlDatabases", collection: "containers"},
		account.APIMongo:     {client: c, api: account.APIMongo, database: "mongodbDatabases", collection: "collections"},
		account.APICassandra: {client: c, api: account.APICassandra, database: "cassandraKeyspaces", collection: "tables"},
		account.APIGremlin:   {client: c, api: account.APIGremlin, database: "gremlinDatabases", collection: "graphs"},
		account.APITables:    {client: c, api: account.APITables, collection: "tables"},
	}
}

func (f *Family) API() account.APIType { return f.api }

func accountPath(acct account.Context) string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.DocumentDB/databaseAccounts/%s",
		url.PathEscape(acct.SubscriptionID), url.PathEscape(acct.ResourceGroup), url.PathEscape(acct.AccountName))
}

func (f *Family) databasePath(acct account.Context, databaseID string) (string, error) {
	if f.database == "" {
		return "", fmt.Errorf("%w: %s accounts have no databases", ErrUnsupported, f.api)
	}
	return accountPath(acct) + "/" + f.database + "/" + url.PathEscape(databaseID), nil
}

// ResourcePath returns the management path of a database or collection.
func (f *Family) ResourcePath(acct account.Context, res offer.Resource) (string, error) {
	if res.Kind() == offer.KindCollection {
		if f.database == "" {
			return accountPath(acct) + "/" + f.collection + "/" + url.PathEscape(res.CollectionID), nil
		}
		db, err := f.databasePath(acct, res.DatabaseID)
		if err != nil {
			return "", err
		}
		return db + "/" + f.collection + "/" + url.PathEscape(res.CollectionID), nil
	}
	return f.databasePath(acct, res.DatabaseID)
}

func (f *Family) throughputPath(acct account.Context, res offer.Resource) (string, error) {
	p, err := f.ResourcePath(acct, res)
	if err != nil {
		return "", err
	}
	return p + "/throughputSettings/default", nil
}

func (f *Family) GetThroughput(ctx context.Context, acct account.Context, res offer.Resource) (*offer.Offer, error) {
	path, err := f.throughputPath(acct, res)
	if err != nil {
		return nil, err
	}
	var settings ThroughputSettings
	if err := f.client.Do(ctx, http.MethodGet, path, nil, &settings); err != nil {
		return nil, err
	}
	return settings.Offer(), nil
}

func (f *Family) UpdateThroughput(ctx context.Context, acct account.Context, res offer.Resource, update offer.Update) (*offer.Offer, error) {
	path, err := f.throughputPath(acct, res)
	if err != nil {
		return nil, err
	}
	var settings ThroughputSettings
	if err := f.client.Do(ctx, http.MethodPut, path, updateBody(update), &settings); err != nil {
		return nil, err
	}
	return settings.Offer(), nil
}

func (f *Family) MigrateToAutoscale(ctx context.Context, acct account.Context, res offer.Resource) error {
	return f.migrate(ctx, acct, res, "migrateToAutoscale")
}

func (f *Family) MigrateToManualThroughput(ctx context.Context, acct account.Context, res offer.Resource) error {
	return f.migrate(ctx, acct, res, "migrateToManualThroughput")
}

func (f *Family) migrate(ctx context.Context, acct account.Context, res offer.Resource, action string) error {
	path, err := f.throughputPath(acct, res)
	if err != nil {
		return err
	}
	return f.client.Do(ctx, http.MethodPost, path+"/"+action, nil, nil)
}

func (f *Family) GetDatabase(ctx context.Context, acct account.Context, databaseID string) error {
	path, err := f.databasePath(acct, databaseID)
	if err != nil {
		return err
	}
	return f.client.Do(ctx, http.MethodGet, path, nil, nil)
}

func (f *Family) CreateUpdateDatabase(ctx context.Context, acct account.Context, req offer.DatabaseRequest) error {
	path, err := f.databasePath(acct, req.DatabaseID)
	if err != nil {
		return err
	}
	var body createBody
	body.Properties.Resource.ID = req.DatabaseID
	body.Properties.Options = createOptions(req.Provisioning)
	return f.client.Do(ctx, http.MethodPut, path, body, nil)
}

func (f *Family) GetCollection(ctx context.Context, acct account.Context, res offer.Resource) error {
	path, err := f.ResourcePath(acct, res)
	if err != nil {
		return err
	}
	return f.client.Do(ctx, http.MethodGet, path, nil, nil)
}

// CreateUpdateCollection creates a container, collection, table or graph.
// Each API only receives the resource properties it understands.
func (f *Family) CreateUpdateCollection(ctx context.Context, acct account.Context, req offer.CollectionRequest) error {
	path, err := f.ResourcePath(acct, req.Resource())
	if err != nil {
		return err
	}
	var body createCollectionBody
	body.Properties.Resource = f.collectionResource(req)
	body.Properties.Options = createOptions(req.CollectionProvisioning())
	return f.client.Do(ctx, http.MethodPut, path, body, nil)
}

func (f *Family) collectionResource(req offer.CollectionRequest) collectionResource {
	res := collectionResource{ID: req.CollectionID}
	switch f.api {
	case account.APISQL:
		res.PartitionKey = req.PartitionKey
		res.AnalyticalStorageTTL = req.AnalyticalStorageTTL
	case account.APIMongo:
		res.AnalyticalStorageTTL = req.AnalyticalStorageTTL
		if req.PartitionKey != nil && len(req.PartitionKey.Paths) > 0 {
			res.ShardKey = map[string]string{req.PartitionKey.Paths[0]: "Hash"}
		}
		if req.MongoWildcardIndex {
			res.Indexes = wildcardIndexes
		}
	case account.APICassandra:
		res.AnalyticalStorageTTL = req.AnalyticalStorageTTL
	case account.APIGremlin:
		res.PartitionKey = req.PartitionKey
	}
	return res
}
