package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Azure/cosmos-explorer-sub003/internal/account"
	"github.com/Azure/cosmos-explorer-sub003/internal/api/middleware"
	"github.com/Azure/cosmos-explorer-sub003/internal/api/response"
	"github.com/Azure/cosmos-explorer-sub003/internal/api/validation"
	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
)

// CollectionCreator creates collections, optionally inside a new database.
type CollectionCreator interface {
	CreateCollection(ctx context.Context, acct account.Context, req offer.CollectionRequest) error
}

// ResourceCreator creates databases and collections.
type ResourceCreator interface {
	DatabaseCreator
	CollectionCreator
}

type createCollectionRequest struct {
	DatabaseID              string              `json:"databaseId"`
	CollectionID            string              `json:"collectionId"`
	PartitionKey            *offer.PartitionKey `json:"partitionKey"`
	AnalyticalStorageTTL    *int                `json:"analyticalStorageTtl"`
	CreateNewDatabase       bool                `json:"createNewDatabase"`
	DatabaseLevelThroughput bool                `json:"databaseLevelThroughput"`
	MongoWildcardIndex      bool                `json:"createMongoWildcardIndexOnAllFields"`
	ManualThroughput        *int                `json:"manualThroughput"`
	AutoscaleMaxThroughput  *int                `json:"autoscaleMaxThroughput"`
}

type collectionResponse struct {
	DatabaseID             string `json:"databaseId"`
	CollectionID           string `json:"collectionId"`
	DatabaseCreated        bool   `json:"databaseCreated"`
	SharedThroughput       bool   `json:"sharedThroughput"`
	ManualThroughput       *int   `json:"manualThroughput,omitempty"`
	AutoscaleMaxThroughput *int   `json:"autoscaleMaxThroughput,omitempty"`
}

// CollectionHandler handles the /collections endpoint.
type CollectionHandler struct {
	creator CollectionCreator
	acct    account.Context
}

// NewCollectionHandler creates a new CollectionHandler.
func NewCollectionHandler(creator CollectionCreator, acct account.Context) *CollectionHandler {
	return &CollectionHandler{creator: creator, acct: acct}
}

// Create handles POST /collections.
func (h *CollectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidJSON, "Request body must be valid JSON", requestID)
		return
	}

	req.DatabaseID = strings.TrimSpace(req.DatabaseID)
	req.CollectionID = strings.TrimSpace(req.CollectionID)
	v := validation.CreateCollectionRequest{
		ResourceRequest:         validation.ResourceRequest{DatabaseID: req.DatabaseID, CollectionID: req.CollectionID},
		CreateNewDatabase:       req.CreateNewDatabase,
		DatabaseLevelThroughput: req.DatabaseLevelThroughput,
		ManualThroughput:        req.ManualThroughput,
		AutoscaleMaxThroughput:  req.AutoscaleMaxThroughput,
	}
	if req.PartitionKey != nil {
		v.PartitionKeyPaths = req.PartitionKey.Paths
	}
	if fieldErrors := validation.ValidateCreateCollectionRequest(v); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	ctx := middleware.WithResource(r.Context(), req.DatabaseID, req.CollectionID)
	err := h.creator.CreateCollection(ctx, h.acct, offer.CollectionRequest{
		DatabaseID:              req.DatabaseID,
		CollectionID:            req.CollectionID,
		PartitionKey:            req.PartitionKey,
		AnalyticalStorageTTL:    req.AnalyticalStorageTTL,
		CreateNewDatabase:       req.CreateNewDatabase,
		DatabaseLevelThroughput: req.DatabaseLevelThroughput,
		MongoWildcardIndex:      req.MongoWildcardIndex,
		Provisioning: offer.Provisioning{
			ManualThroughput:       req.ManualThroughput,
			AutoscaleMaxThroughput: req.AutoscaleMaxThroughput,
		},
	})
	if err != nil {
		writeEngineError(w, err, "create collection", requestID)
		return
	}

	response.Success(w, http.StatusCreated, collectionResponse{
		DatabaseID:             req.DatabaseID,
		CollectionID:           req.CollectionID,
		DatabaseCreated:        req.CreateNewDatabase,
		SharedThroughput:       req.DatabaseLevelThroughput,
		ManualThroughput:       req.ManualThroughput,
		AutoscaleMaxThroughput: req.AutoscaleMaxThroughput,
	}, requestID)
}
