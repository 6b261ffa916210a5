package validation

import (
	"fmt"
	"strings"

	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
)

// ResourceRequest mirrors the resource identity of offer requests.
type ResourceRequest struct {
	DatabaseID   string
	CollectionID string
}

// ValidateResource validates a database id and an optional collection id.
func ValidateResource(req ResourceRequest) []FieldError {
	errs := validateResourceID("databaseId", req.DatabaseID, true)
	return append(errs, validateResourceID("collectionId", req.CollectionID, false)...)
}

// UpdateOfferRequest mirrors the fields needed for offer update validation.
type UpdateOfferRequest struct {
	ResourceRequest
	ManualThroughput       *int
	AutoscaleMaxThroughput *int
	ThroughputBuckets      []offer.ThroughputBucket
	MigrateToAutoscale     bool
	MigrateToManual        bool
}

// ValidateUpdateOfferRequest validates an explicit offer update.
func ValidateUpdateOfferRequest(req UpdateOfferRequest) []FieldError {
	errs := ValidateResource(req.ResourceRequest)

	if req.MigrateToAutoscale && req.MigrateToManual {
		errs = append(errs, FieldError{Field: "migrateToManual", Message: "migrateToAutoscale and migrateToManual are mutually exclusive"})
		return errs
	}
	if req.MigrateToAutoscale || req.MigrateToManual {
		return errs
	}

	errs = append(errs, validateProvisioning(req.ManualThroughput, req.AutoscaleMaxThroughput, true)...)
	errs = append(errs, ValidateBuckets(req.ThroughputBuckets)...)
	return errs
}

// CreateDatabaseRequest mirrors the fields needed for database creation.
type CreateDatabaseRequest struct {
	DatabaseID             string
	ManualThroughput       *int
	AutoscaleMaxThroughput *int
}

// ValidateCreateDatabaseRequest validates a database creation request.
// Shared throughput is optional.
func ValidateCreateDatabaseRequest(req CreateDatabaseRequest) []FieldError {
	errs := validateResourceID("databaseId", req.DatabaseID, true)
	return append(errs, validateProvisioning(req.ManualThroughput, req.AutoscaleMaxThroughput, false)...)
}

// CreateCollectionRequest mirrors the fields needed for collection creation.
type CreateCollectionRequest struct {
	ResourceRequest
	PartitionKeyPaths       []string
	CreateNewDatabase       bool
	DatabaseLevelThroughput bool
	ManualThroughput        *int
	AutoscaleMaxThroughput  *int
}

// ValidateCreateCollectionRequest validates a collection creation request.
// Throughput is optional; shared throughput needs a new database.
func ValidateCreateCollectionRequest(req CreateCollectionRequest) []FieldError {
	errs := validateResourceID("databaseId", req.DatabaseID, true)
	errs = append(errs, validateResourceID("collectionId", req.CollectionID, true)...)

	for i, p := range req.PartitionKeyPaths {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, FieldError{Field: fmt.Sprintf("partitionKey.paths[%d]", i), Message: "partition key path must start with /"})
		}
	}
	if req.DatabaseLevelThroughput && !req.CreateNewDatabase {
		errs = append(errs, FieldError{Field: "databaseLevelThroughput", Message: "databaseLevelThroughput requires createNewDatabase"})
	}
	return append(errs, validateProvisioning(req.ManualThroughput, req.AutoscaleMaxThroughput, false)...)
}

// ValidateBuckets checks percentages and id uniqueness.
func ValidateBuckets(buckets []offer.ThroughputBucket) []FieldError {
	var errs []FieldError
	seen := make(map[int]bool, len(buckets))
	for i, b := range buckets {
		field := fmt.Sprintf("throughputBuckets[%d]", i)
		if b.MaxThroughputPercentage < 1 || b.MaxThroughputPercentage > 100 {
			errs = append(errs, FieldError{Field: field, Message: "maxThroughputPercentage must be between 1 and 100"})
		}
		if seen[b.ID] {
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("duplicate bucket id %d", b.ID)})
		}
		seen[b.ID] = true
	}
	return errs
}

func validateProvisioning(manual, autoscale *int, required bool) []FieldError {
	switch {
	case manual != nil && autoscale != nil:
		return []FieldError{{Field: "autoscaleMaxThroughput", Message: "manualThroughput and autoscaleMaxThroughput are mutually exclusive"}}
	case manual != nil:
		if *manual <= 0 {
			return []FieldError{{Field: "manualThroughput", Message: "manualThroughput must be positive"}}
		}
		if *manual > offer.MaxThroughput {
			return []FieldError{{Field: "manualThroughput", Message: fmt.Sprintf("manualThroughput must be at most %d", offer.MaxThroughput)}}
		}
	case autoscale != nil:
		if !offer.IsValidAutoscaleThroughput(*autoscale) {
			return []FieldError{{Field: "autoscaleMaxThroughput", Message: fmt.Sprintf("autoscaleMaxThroughput must be a multiple of %d up to %d", offer.MinAutoscaleThroughput, offer.MaxThroughput)}}
		}
	case required:
		return []FieldError{{Field: "manualThroughput", Message: "manualThroughput or autoscaleMaxThroughput is required"}}
	}
	return nil
}
