package throughput_test

import (
	"context"
	"sync"

	"github.com/Azure/cosmos-explorer-sub003/internal/account"
	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
	"github.com/Azure/cosmos-explorer-sub003/internal/offercache"
	"github.com/Azure/cosmos-explorer-sub003/internal/sdk"
)

// mockFamily implements throughput.Family for testing.
type mockFamily struct {
	getThroughputFn    func(ctx context.Context, acct account.Context, res offer.Resource) (*offer.Offer, error)
	updateThroughputFn func(ctx context.Context, acct account.Context, res offer.Resource, update offer.Update) (*offer.Offer, error)
	toAutoscaleFn      func(ctx context.Context, acct account.Context, res offer.Resource) error
	toManualFn         func(ctx context.Context, acct account.Context, res offer.Resource) error
	getDatabaseFn      func(ctx context.Context, acct account.Context, databaseID string) error
	createDatabaseFn   func(ctx context.Context, acct account.Context, req offer.DatabaseRequest) error
	getCollectionFn    func(ctx context.Context, acct account.Context, res offer.Resource) error
	createCollectionFn func(ctx context.Context, acct account.Context, req offer.CollectionRequest) error

	calls []string
}

func (m *mockFamily) GetThroughput(ctx context.Context, acct account.Context, res offer.Resource) (*offer.Offer, error) {
	m.calls = append(m.calls, "get")
	if m.getThroughputFn != nil {
		return m.getThroughputFn(ctx, acct, res)
	}
	return nil, nil
}

func (m *mockFamily) UpdateThroughput(ctx context.Context, acct account.Context, res offer.Resource, update offer.Update) (*offer.Offer, error) {
	m.calls = append(m.calls, "update")
	if m.updateThroughputFn != nil {
		return m.updateThroughputFn(ctx, acct, res, update)
	}
	return nil, nil
}

func (m *mockFamily) MigrateToAutoscale(ctx context.Context, acct account.Context, res offer.Resource) error {
	m.calls = append(m.calls, "migrateToAutoscale")
	if m.toAutoscaleFn != nil {
		return m.toAutoscaleFn(ctx, acct, res)
	}
	return nil
}

func (m *mockFamily) MigrateToManualThroughput(ctx context.Context, acct account.Context, res offer.Resource) error {
	m.calls = append(m.calls, "migrateToManual")
	if m.toManualFn != nil {
		return m.toManualFn(ctx, acct, res)
	}
	return nil
}

func (m *mockFamily) GetDatabase(ctx context.Context, acct account.Context, databaseID string) error {
	m.calls = append(m.calls, "getDatabase")
	if m.getDatabaseFn != nil {
		return m.getDatabaseFn(ctx, acct, databaseID)
	}
	return nil
}

func (m *mockFamily) CreateUpdateDatabase(ctx context.Context, acct account.Context, req offer.DatabaseRequest) error {
	m.calls = append(m.calls, "createDatabase")
	if m.createDatabaseFn != nil {
		return m.createDatabaseFn(ctx, acct, req)
	}
	return nil
}

func (m *mockFamily) GetCollection(ctx context.Context, acct account.Context, res offer.Resource) error {
	m.calls = append(m.calls, "getCollection")
	if m.getCollectionFn != nil {
		return m.getCollectionFn(ctx, acct, res)
	}
	return nil
}

func (m *mockFamily) CreateUpdateCollection(ctx context.Context, acct account.Context, req offer.CollectionRequest) error {
	m.calls = append(m.calls, "createCollection")
	if m.createCollectionFn != nil {
		return m.createCollectionFn(ctx, acct, req)
	}
	return nil
}

// mockOfferClient implements throughput.OfferClient for testing.
type mockOfferClient struct {
	readOfferFn        func(ctx context.Context, acct account.Context, res offer.Resource, offerID string) (*offer.Offer, error)
	replaceOfferFn     func(ctx context.Context, acct account.Context, current *offer.Offer, update offer.Update, opts sdk.ReplaceOptions) (*offer.Offer, error)
	readDatabaseFn     func(ctx context.Context, acct account.Context, databaseID string) error
	createDatabaseFn   func(ctx context.Context, acct account.Context, req offer.DatabaseRequest) error
	readCollectionFn   func(ctx context.Context, acct account.Context, res offer.Resource) error
	createCollectionFn func(ctx context.Context, acct account.Context, req offer.CollectionRequest) error

	calls []string
}

func (m *mockOfferClient) ReadOffer(ctx context.Context, acct account.Context, res offer.Resource, offerID string) (*offer.Offer, error) {
	m.calls = append(m.calls, "read")
	if m.readOfferFn != nil {
		return m.readOfferFn(ctx, acct, res, offerID)
	}
	return nil, nil
}

func (m *mockOfferClient) ReplaceOffer(ctx context.Context, acct account.Context, current *offer.Offer, update offer.Update, opts sdk.ReplaceOptions) (*offer.Offer, error) {
	m.calls = append(m.calls, "replace")
	if m.replaceOfferFn != nil {
		return m.replaceOfferFn(ctx, acct, current, update, opts)
	}
	return nil, nil
}

func (m *mockOfferClient) ReadDatabase(ctx context.Context, acct account.Context, databaseID string) error {
	m.calls = append(m.calls, "readDatabase")
	if m.readDatabaseFn != nil {
		return m.readDatabaseFn(ctx, acct, databaseID)
	}
	return nil
}

func (m *mockOfferClient) CreateDatabase(ctx context.Context, acct account.Context, req offer.DatabaseRequest) error {
	m.calls = append(m.calls, "createDatabase")
	if m.createDatabaseFn != nil {
		return m.createDatabaseFn(ctx, acct, req)
	}
	return nil
}

func (m *mockOfferClient) ReadCollection(ctx context.Context, acct account.Context, res offer.Resource) error {
	m.calls = append(m.calls, "readCollection")
	if m.readCollectionFn != nil {
		return m.readCollectionFn(ctx, acct, res)
	}
	return nil
}

func (m *mockOfferClient) CreateCollection(ctx context.Context, acct account.Context, req offer.CollectionRequest) error {
	m.calls = append(m.calls, "createCollection")
	if m.createCollectionFn != nil {
		return m.createCollectionFn(ctx, acct, req)
	}
	return nil
}

// recordingConsole captures console messages.
type recordingConsole struct {
	mu       sync.Mutex
	infos    []string
	errors   []string
	progress []string
	cleared  int
}

func (c *recordingConsole) Info(_ context.Context, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.infos = append(c.infos, msg)
}

func (c *recordingConsole) Error(_ context.Context, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, msg)
}

func (c *recordingConsole) Progress(_ context.Context, msg string) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.progress = append(c.progress, msg)
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.cleared++
	}
}

// mockStore implements throughput.OfferStore for testing.
type mockStore struct {
	upsertFn func(ctx context.Context, e *offercache.Entry) error
	entries  []*offercache.Entry
}

func (m *mockStore) Upsert(ctx context.Context, e *offercache.Entry) error {
	m.entries = append(m.entries, e)
	if m.upsertFn != nil {
		return m.upsertFn(ctx, e)
	}
	return nil
}
