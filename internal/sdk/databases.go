package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Azure/cosmos-explorer-sub003/internal/account"
	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
)

// ReadDatabase returns nil when the database exists.
func (c *Client) ReadDatabase(ctx context.Context, _ account.Context, databaseID string) error {
	link := databaseLink(databaseID)
	_, err := c.do(ctx, request{method: http.MethodGet, path: link, resourceType: "dbs", resourceID: link})
	return err
}

// CreateDatabase creates a database with optional shared throughput.
func (c *Client) CreateDatabase(ctx context.Context, _ account.Context, req offer.DatabaseRequest) error {
	headers, err := provisioningHeaders(req.Provisioning)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, request{
		method:       http.MethodPost,
		path:         "dbs",
		resourceType: "dbs",
		headers:      headers,
		body:         map[string]string{"id": req.DatabaseID},
	})
	return err
}

// ReadCollection returns nil when the collection exists.
func (c *Client) ReadCollection(ctx context.Context, _ account.Context, res offer.Resource) error {
	link := collectionLink(res.DatabaseID, res.CollectionID)
	_, err := c.do(ctx, request{method: http.MethodGet, path: link, resourceType: "colls", resourceID: link})
	return err
}

type collectionBody struct {
	ID                   string              `json:"id"`
	PartitionKey         *offer.PartitionKey `json:"partitionKey,omitempty"`
	AnalyticalStorageTTL *int                `json:"analyticalStorageTtl,omitempty"`
}

// CreateCollection creates a collection in an existing database. Dedicated
// throughput travels in the offer headers.
func (c *Client) CreateCollection(ctx context.Context, _ account.Context, req offer.CollectionRequest) error {
	headers, err := provisioningHeaders(req.CollectionProvisioning())
	if err != nil {
		return err
	}
	parent := databaseLink(req.DatabaseID)
	_, err = c.do(ctx, request{
		method:       http.MethodPost,
		path:         parent + "/colls",
		resourceType: "colls",
		resourceID:   parent,
		headers:      headers,
		body: collectionBody{
			ID:                   req.CollectionID,
			PartitionKey:         req.PartitionKey,
			AnalyticalStorageTTL: req.AnalyticalStorageTTL,
		},
	})
	return err
}

func provisioningHeaders(p offer.Provisioning) (map[string]string, error) {
	headers := map[string]string{}
	switch {
	case p.AutoscaleMaxThroughput != nil:
		raw, err := json.Marshal(autopilotSettings{MaxThroughput: *p.AutoscaleMaxThroughput})
		if err != nil {
			return nil, fmt.Errorf("encoding autoscale settings: %w", err)
		}
		headers[HeaderOfferAutopilotSettings] = string(raw)
	case p.ManualThroughput != nil:
		headers[HeaderOfferThroughput] = strconv.Itoa(*p.ManualThroughput)
	}
	return headers, nil
}

func collectionLink(databaseID, collectionID string) string {
	return databaseLink(databaseID) + "/colls/" + url.PathEscape(collectionID)
}
