package throughput

import (
	"context"
	"fmt"

	"github.com/Azure/cosmos-explorer-sub003/internal/account"
	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
)

// Creator creates databases and collections with optional throughput.
type Creator struct {
	families *Registry
	sdk      OfferClient
	console  Console
}

// NewCreator creates a database creator. sdkClient may be nil when every
// account uses the management API.
func NewCreator(families *Registry, sdkClient OfferClient, console Console) *Creator {
	if families == nil {
		families = NewRegistry()
	}
	if console == nil {
		console = nopConsole{}
	}
	return &Creator{families: families, sdk: sdkClient, console: console}
}

// CreateDatabase creates req.DatabaseID. The database is read first; only a
// not-found answer lets the create proceed.
func (c *Creator) CreateDatabase(ctx context.Context, acct account.Context, req offer.DatabaseRequest) error {
	if req.DatabaseID == "" {
		return fmt.Errorf("%w: database id is required", offer.ErrInvalidOffer)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	done := c.console.Progress(ctx, fmt.Sprintf("Creating database %s", req.DatabaseID))
	defer done()

	err := c.create(ctx, acct, req)
	if err != nil {
		c.console.Error(ctx, fmt.Sprintf("Error while creating database %s: %v", req.DatabaseID, err))
		return fmt.Errorf("creating database %s: %w", req.DatabaseID, err)
	}
	c.console.Info(ctx, fmt.Sprintf("Successfully created database %s", req.DatabaseID))
	return nil
}

func (c *Creator) create(ctx context.Context, acct account.Context, req offer.DatabaseRequest) error {
	if Select(acct, offer.KindDatabase) == BackendManagementAPI {
		family, ok := c.families.Get(acct.APIType)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnsupportedAPI, acct.APIType)
		}
		if err := checkAbsent(family.GetDatabase(ctx, acct, req.DatabaseID), ErrDatabaseExists); err != nil {
			return err
		}
		return family.CreateUpdateDatabase(ctx, acct, req)
	}

	if c.sdk == nil {
		return fmt.Errorf("%w: %s", ErrBackendUnavailable, BackendSDK)
	}
	if err := checkAbsent(c.sdk.ReadDatabase(ctx, acct, req.DatabaseID), ErrDatabaseExists); err != nil {
		return err
	}
	return c.sdk.CreateDatabase(ctx, acct, req)
}

// CreateCollection creates req.CollectionID, first creating its database when
// req.CreateNewDatabase is set. Both resources are read before they are
// created; an existing one aborts the request.
func (c *Creator) CreateCollection(ctx context.Context, acct account.Context, req offer.CollectionRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	done := c.console.Progress(ctx, fmt.Sprintf("Creating a new container %s for database %s", req.CollectionID, req.DatabaseID))
	defer done()

	err := c.createCollection(ctx, acct, req)
	if err != nil {
		c.console.Error(ctx, fmt.Sprintf("Error while creating container %s: %v", req.CollectionID, err))
		return fmt.Errorf("creating container %s: %w", req.CollectionID, err)
	}
	c.console.Info(ctx, fmt.Sprintf("Successfully created container %s", req.CollectionID))
	return nil
}

func (c *Creator) createCollection(ctx context.Context, acct account.Context, req offer.CollectionRequest) error {
	if req.CreateNewDatabase {
		if err := c.create(ctx, acct, req.DatabaseRequest()); err != nil {
			return err
		}
	}

	if Select(acct, offer.KindCollection) == BackendManagementAPI {
		family, ok := c.families.Get(acct.APIType)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnsupportedAPI, acct.APIType)
		}
		if err := checkAbsent(family.GetCollection(ctx, acct, req.Resource()), ErrCollectionExists); err != nil {
			return err
		}
		return family.CreateUpdateCollection(ctx, acct, req)
	}

	if c.sdk == nil {
		return fmt.Errorf("%w: %s", ErrBackendUnavailable, BackendSDK)
	}
	if err := checkAbsent(c.sdk.ReadCollection(ctx, acct, req.Resource()), ErrCollectionExists); err != nil {
		return err
	}
	return c.sdk.CreateCollection(ctx, acct, req)
}

// checkAbsent turns a successful pre-read into exists.
func checkAbsent(readErr, exists error) error {
	switch {
	case readErr == nil:
		return exists
	case IsNotFound(readErr):
		return nil
	}
	return readErr
}
