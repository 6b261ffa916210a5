package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Azure/cosmos-explorer-sub003/internal/account"
	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
)

// ReplaceOptions selects a provisioning-mode migration on replace. At most one
// may be set.
type ReplaceOptions struct {
	MigrateToAutoscale bool
	MigrateToManual    bool
}

type offerDefinition struct {
	ID              string       `json:"id"`
	ResourceID      string       `json:"_rid,omitempty"`
	Self            string       `json:"_self,omitempty"`
	OfferVersion    string       `json:"offerVersion,omitempty"`
	OfferType       string       `json:"offerType,omitempty"`
	Resource        string       `json:"resource,omitempty"`
	OfferResourceID string       `json:"offerResourceId,omitempty"`
	Content         offerContent `json:"content"`
}

type offerContent struct {
	OfferThroughput                     *int                     `json:"offerThroughput,omitempty"`
	OfferIsRUPerMinuteThroughputEnabled *bool                    `json:"offerIsRUPerMinuteThroughputEnabled,omitempty"`
	OfferAutopilotSettings              *autopilotSettings       `json:"offerAutopilotSettings,omitempty"`
	CollectionThroughputInfo            *throughputInfo          `json:"collectionThroughputInfo,omitempty"`
	ThroughputBuckets                   []offer.ThroughputBucket `json:"throughputBuckets,omitempty"`
}

type autopilotSettings struct {
	MaxThroughput int `json:"maxThroughput"`
}

type throughputInfo struct {
	MinimumRUForCollection *int `json:"minimumRUForCollection,omitempty"`
}

type offerList struct {
	Offers []offerDefinition `json:"Offers"`
}

type resourceBody struct {
	ID         string `json:"id"`
	ResourceID string `json:"_rid"`
}

func (d *offerDefinition) toOffer(replacePending bool) *offer.Offer {
	o := &offer.Offer{
		ID:                  d.ID,
		ThroughputBuckets:   offer.CloneBuckets(d.Content.ThroughputBuckets),
		OfferReplacePending: replacePending,
		Definition: &offer.Definition{
			ResourceID:      d.ResourceID,
			Self:            d.Self,
			OfferVersion:    d.OfferVersion,
			OfferType:       d.OfferType,
			Resource:        d.Resource,
			OfferResourceID: d.OfferResourceID,
		},
	}
	if info := d.Content.CollectionThroughputInfo; info != nil && info.MinimumRUForCollection != nil {
		v := *info.MinimumRUForCollection
		o.MinimumThroughput = &v
	}
	switch {
	case d.Content.OfferAutopilotSettings != nil && d.Content.OfferAutopilotSettings.MaxThroughput > 0:
		v := d.Content.OfferAutopilotSettings.MaxThroughput
		o.Mode = offer.ModeAutoscale
		o.AutoscaleMaxThroughput = &v
	case d.Content.OfferThroughput != nil:
		v := *d.Content.OfferThroughput
		o.Mode = offer.ModeManual
		o.ManualThroughput = &v
	default:
		o.Mode = offer.ModeNone
	}
	return o
}

// ReadOffer reads the offer of a resource. With an empty offerID the offer is
// looked up by the resource's _rid. It returns nil when the resource has no
// dedicated offer.
func (c *Client) ReadOffer(ctx context.Context, _ account.Context, res offer.Resource, offerID string) (*offer.Offer, error) {
	if offerID == "" {
		id, err := c.findOfferID(ctx, res)
		if err != nil {
			return nil, err
		}
		if id == "" {
			return nil, nil
		}
		offerID = id
	}
	return c.readOfferByID(ctx, offerID)
}

func (c *Client) readOfferByID(ctx context.Context, offerID string) (*offer.Offer, error) {
	resp, err := c.do(ctx, request{
		method:       http.MethodGet,
		path:         "offers/" + url.PathEscape(offerID),
		resourceType: "offers",
		resourceID:   strings.ToLower(offerID),
		headers:      map[string]string{HeaderPopulateThroughputInfo: "true"},
	})
	if err != nil {
		return nil, err
	}
	var def offerDefinition
	if err := json.Unmarshal(resp.body, &def); err != nil {
		return nil, fmt.Errorf("decoding offer %s: %w", offerID, err)
	}
	return def.toOffer(resp.header.Get(HeaderOfferReplacePending) == "true"), nil
}

func (c *Client) findOfferID(ctx context.Context, res offer.Resource) (string, error) {
	rid := res.ResourceID
	if rid == "" {
		var err error
		if rid, err = c.resourceRID(ctx, res); err != nil {
			return "", err
		}
	}

	// The offer feed is paged; follow the continuation token until it runs out.
	continuation := ""
	for {
		req := request{method: http.MethodGet, path: "offers", resourceType: "offers"}
		if continuation != "" {
			req.headers = map[string]string{HeaderContinuation: continuation}
		}
		resp, err := c.do(ctx, req)
		if err != nil {
			return "", err
		}
		var list offerList
		if err := json.Unmarshal(resp.body, &list); err != nil {
			return "", fmt.Errorf("decoding offer list: %w", err)
		}
		for _, def := range list.Offers {
			if def.OfferResourceID == rid {
				return def.ID, nil
			}
		}
		continuation = resp.header.Get(HeaderContinuation)
		if continuation == "" {
			return "", nil
		}
	}
}

func (c *Client) resourceRID(ctx context.Context, res offer.Resource) (string, error) {
	link, resourceType := databaseLink(res.DatabaseID), "dbs"
	if res.Kind() == offer.KindCollection {
		link, resourceType = collectionLink(res.DatabaseID, res.CollectionID), "colls"
	}
	resp, err := c.do(ctx, request{method: http.MethodGet, path: link, resourceType: resourceType, resourceID: link})
	if err != nil {
		return "", err
	}
	var body resourceBody
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return "", fmt.Errorf("decoding %s: %w", res, err)
	}
	return body.ResourceID, nil
}

// ReplaceOffer writes a new throughput onto current. A migration clears the
// autopilot settings or sets them to the zero sentinel, and ignores update.
func (c *Client) ReplaceOffer(ctx context.Context, _ account.Context, current *offer.Offer, update offer.Update, opts ReplaceOptions) (*offer.Offer, error) {
	if current == nil || current.ID == "" {
		return nil, fmt.Errorf("%w: replace needs the current offer", offer.ErrInvalidOffer)
	}
	if opts.MigrateToAutoscale && opts.MigrateToManual {
		return nil, fmt.Errorf("%w: conflicting migrations", offer.ErrInvalidOffer)
	}

	ruPerMinute := false
	def := offerDefinition{
		ID:      current.ID,
		Content: offerContent{OfferIsRUPerMinuteThroughputEnabled: &ruPerMinute},
	}
	if d := current.Definition; d != nil {
		def.ResourceID = d.ResourceID
		def.Self = d.Self
		def.OfferVersion = d.OfferVersion
		def.OfferType = d.OfferType
		def.Resource = d.Resource
		def.OfferResourceID = d.OfferResourceID
	}

	headers := map[string]string{}
	switch {
	case opts.MigrateToAutoscale:
		headers[HeaderMigrateToAutopilot] = "true"
		def.Content.OfferThroughput = current.ManualThroughput
	case opts.MigrateToManual:
		headers[HeaderMigrateToManual] = "true"
		def.Content.OfferAutopilotSettings = &autopilotSettings{MaxThroughput: 0}
	case update.AutoscaleMaxThroughput != nil:
		def.Content.OfferAutopilotSettings = &autopilotSettings{MaxThroughput: *update.AutoscaleMaxThroughput}
		def.Content.ThroughputBuckets = offer.FilterBuckets(update.ThroughputBuckets)
	default:
		def.Content.OfferThroughput = update.ManualThroughput
		def.Content.ThroughputBuckets = offer.FilterBuckets(update.ThroughputBuckets)
	}

	resp, err := c.do(ctx, request{
		method:       http.MethodPut,
		path:         "offers/" + url.PathEscape(current.ID),
		resourceType: "offers",
		resourceID:   strings.ToLower(current.ID),
		headers:      headers,
		body:         def,
	})
	if err != nil {
		return nil, err
	}
	var out offerDefinition
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return nil, fmt.Errorf("decoding replaced offer: %w", err)
	}
	return out.toOffer(resp.header.Get(HeaderOfferReplacePending) == "true"), nil
}

func databaseLink(id string) string {
	return "dbs/" + url.PathEscape(id)
}
