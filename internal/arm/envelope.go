package arm

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
)

// ThroughputSettings is the throughputSettings/default resource.
type ThroughputSettings struct {
	ID         string                        `json:"id,omitempty"`
	Name       string                        `json:"name,omitempty"`
	Properties *ThroughputSettingsProperties `json:"properties,omitempty"`
}

type ThroughputSettingsProperties struct {
	Resource *ThroughputResource `json:"resource,omitempty"`
}

type ThroughputResource struct {
	Throughput          *int                     `json:"throughput,omitempty"`
	AutoscaleSettings   *AutoscaleSettings       `json:"autoscaleSettings,omitempty"`
	MinimumThroughput   *looseInt                `json:"minimumThroughput,omitempty"`
	OfferReplacePending *looseBool               `json:"offerReplacePending,omitempty"`
	ThroughputBuckets   []offer.ThroughputBucket `json:"throughputBuckets,omitempty"`
}

type AutoscaleSettings struct {
	MaxThroughput int `json:"maxThroughput"`
}

// CreateOptions carries shared throughput on a create request.
type CreateOptions struct {
	Throughput        *int               `json:"throughput,omitempty"`
	AutoscaleSettings *AutoscaleSettings `json:"autoscaleSettings,omitempty"`
}

type createResource struct {
	ID string `json:"id"`
}

type createBody struct {
	Properties struct {
		Resource createResource `json:"resource"`
		Options  *CreateOptions `json:"options,omitempty"`
	} `json:"properties"`
}

type mongoIndexKey struct {
	Keys []string `json:"keys"`
}

type mongoIndex struct {
	Key mongoIndexKey `json:"key"`
}

// wildcardIndexes index every field of a Mongo collection.
var wildcardIndexes = []mongoIndex{
	{Key: mongoIndexKey{Keys: []string{"$**"}}},
	{Key: mongoIndexKey{Keys: []string{"_id"}}},
}

type collectionResource struct {
	ID                   string              `json:"id"`
	PartitionKey         *offer.PartitionKey `json:"partitionKey,omitempty"`
	AnalyticalStorageTTL *int                `json:"analyticalStorageTtl,omitempty"`
	ShardKey             map[string]string   `json:"shardKey,omitempty"`
	Indexes              []mongoIndex        `json:"indexes,omitempty"`
}

type createCollectionBody struct {
	Properties struct {
		Resource collectionResource `json:"resource"`
		Options  *CreateOptions     `json:"options,omitempty"`
	} `json:"properties"`
}

// updateBody builds a PUT body from an update. Buckets at 100% are dropped.
func updateBody(u offer.Update) ThroughputSettings {
	res := &ThroughputResource{ThroughputBuckets: offer.FilterBuckets(u.ThroughputBuckets)}
	if u.AutoscaleMaxThroughput != nil {
		res.AutoscaleSettings = &AutoscaleSettings{MaxThroughput: *u.AutoscaleMaxThroughput}
	} else {
		res.Throughput = u.ManualThroughput
	}
	return ThroughputSettings{Properties: &ThroughputSettingsProperties{Resource: res}}
}

func createOptions(p offer.Provisioning) *CreateOptions {
	switch {
	case p.AutoscaleMaxThroughput != nil:
		return &CreateOptions{AutoscaleSettings: &AutoscaleSettings{MaxThroughput: *p.AutoscaleMaxThroughput}}
	case p.ManualThroughput != nil:
		return &CreateOptions{Throughput: p.ManualThroughput}
	}
	return nil
}

// Offer converts the envelope into an offer. It returns nil when the response
// carries no resource.
func (s *ThroughputSettings) Offer() *offer.Offer {
	if s == nil || s.Properties == nil || s.Properties.Resource == nil {
		return nil
	}
	r := s.Properties.Resource
	o := &offer.Offer{
		ID:                s.Name,
		ThroughputBuckets: offer.CloneBuckets(r.ThroughputBuckets),
	}
	if r.MinimumThroughput != nil {
		v := int(*r.MinimumThroughput)
		o.MinimumThroughput = &v
	}
	if r.OfferReplacePending != nil {
		o.OfferReplacePending = bool(*r.OfferReplacePending)
	}
	switch {
	case r.AutoscaleSettings != nil:
		v := r.AutoscaleSettings.MaxThroughput
		o.Mode = offer.ModeAutoscale
		o.AutoscaleMaxThroughput = &v
	case r.Throughput != nil:
		v := *r.Throughput
		o.Mode = offer.ModeManual
		o.ManualThroughput = &v
	default:
		o.Mode = offer.ModeNone
	}
	return o
}

// looseInt accepts a JSON number or a numeric string.
type looseInt int

func (n *looseInt) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	v, err := strconv.Atoi(string(b))
	if err != nil {
		return err
	}
	*n = looseInt(v)
	return nil
}

func (n looseInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(n))
}

// looseBool accepts a JSON bool or the strings "true" and "false".
type looseBool bool

func (v *looseBool) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(b), `"`))
	*v = looseBool(s == "true")
	return nil
}

func (v looseBool) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(v))
}
