package offer

import "fmt"

// Provisioning is a throughput request: at most one of the two values is set.
type Provisioning struct {
	ManualThroughput       *int `json:"manualThroughput,omitempty"`
	AutoscaleMaxThroughput *int `json:"autoscaleMaxThroughput,omitempty"`
}

// IsSet reports whether any throughput is requested.
func (p Provisioning) IsSet() bool {
	return p.ManualThroughput != nil || p.AutoscaleMaxThroughput != nil
}

// Validate rejects requests carrying both values or a value outside the
// allowed range of its mode.
func (p Provisioning) Validate() error {
	if p.ManualThroughput != nil && p.AutoscaleMaxThroughput != nil {
		return fmt.Errorf("%w: manual and autoscale throughput are mutually exclusive", ErrInvalidOffer)
	}
	if p.ManualThroughput != nil && *p.ManualThroughput <= 0 {
		return fmt.Errorf("%w: manual throughput must be positive", ErrInvalidOffer)
	}
	if p.ManualThroughput != nil && *p.ManualThroughput > MaxThroughput {
		return fmt.Errorf("%w: manual throughput %d exceeds %d", ErrInvalidOffer, *p.ManualThroughput, MaxThroughput)
	}
	if p.AutoscaleMaxThroughput != nil && !IsValidAutoscaleThroughput(*p.AutoscaleMaxThroughput) {
		return fmt.Errorf("%w: autoscale max throughput %d is not allowed", ErrInvalidOffer, *p.AutoscaleMaxThroughput)
	}
	return nil
}

// Update is the body of a plain throughput write.
type Update struct {
	Provisioning
	ThroughputBuckets []ThroughputBucket `json:"throughputBuckets,omitempty"`
}

// DatabaseRequest describes a database to create, with optional shared throughput.
type DatabaseRequest struct {
	DatabaseID string `json:"databaseId"`
	Provisioning
}

// PartitionKey is the partition key definition of a new collection.
type PartitionKey struct {
	Paths   []string `json:"paths"`
	Kind    string   `json:"kind,omitempty"`
	Version int      `json:"version,omitempty"`
}

// CollectionRequest describes a collection to create. With
// DatabaseLevelThroughput the provisioning goes to a new shared database and
// the collection itself gets none.
type CollectionRequest struct {
	DatabaseID              string        `json:"databaseId"`
	CollectionID            string        `json:"collectionId"`
	PartitionKey            *PartitionKey `json:"partitionKey,omitempty"`
	AnalyticalStorageTTL    *int          `json:"analyticalStorageTtl,omitempty"`
	CreateNewDatabase       bool          `json:"createNewDatabase,omitempty"`
	DatabaseLevelThroughput bool          `json:"databaseLevelThroughput,omitempty"`
	MongoWildcardIndex      bool          `json:"createMongoWildcardIndexOnAllFields,omitempty"`
	Provisioning
}

// Resource returns the identity of the collection.
func (r CollectionRequest) Resource() Resource {
	return Resource{DatabaseID: r.DatabaseID, CollectionID: r.CollectionID}
}

// CollectionProvisioning is the throughput set on the collection itself.
func (r CollectionRequest) CollectionProvisioning() Provisioning {
	if r.DatabaseLevelThroughput {
		return Provisioning{}
	}
	return r.Provisioning
}

// DatabaseRequest is the database created alongside the collection when
// CreateNewDatabase is set.
func (r CollectionRequest) DatabaseRequest() DatabaseRequest {
	req := DatabaseRequest{DatabaseID: r.DatabaseID}
	if r.DatabaseLevelThroughput {
		req.Provisioning = r.Provisioning
	}
	return req
}

// Validate checks the identity and the provisioning of the request.
func (r CollectionRequest) Validate() error {
	if r.DatabaseID == "" || r.CollectionID == "" {
		return fmt.Errorf("%w: database and collection ids are required", ErrInvalidOffer)
	}
	if r.DatabaseLevelThroughput && !r.CreateNewDatabase {
		return fmt.Errorf("%w: database level throughput needs a new database", ErrInvalidOffer)
	}
	if r.PartitionKey != nil && len(r.PartitionKey.Paths) == 0 {
		return fmt.Errorf("%w: partition key needs a path", ErrInvalidOffer)
	}
	return r.Provisioning.Validate()
}
