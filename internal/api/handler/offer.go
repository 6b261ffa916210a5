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
	"github.com/Azure/cosmos-explorer-sub003/internal/settings"
	"github.com/Azure/cosmos-explorer-sub003/internal/throughput"
)

// OfferEngine reads, writes and commits offers.
type OfferEngine interface {
	ReadOffer(ctx context.Context, acct account.Context, res offer.Resource, offerID string) (*offer.Offer, error)
	UpdateOffer(ctx context.Context, acct account.Context, p throughput.UpdateOfferParams) (*offer.Offer, error)
	Commit(ctx context.Context, acct account.Context, res offer.Resource, tracker *settings.Tracker) (*offer.Offer, error)
}

type updateOfferRequest struct {
	DatabaseID             string                   `json:"databaseId"`
	CollectionID           string                   `json:"collectionId"`
	OfferID                string                   `json:"offerId"`
	ManualThroughput       *int                     `json:"manualThroughput"`
	AutoscaleMaxThroughput *int                     `json:"autoscaleMaxThroughput"`
	ThroughputBuckets      []offer.ThroughputBucket `json:"throughputBuckets"`
	MigrateToAutoscale     bool                     `json:"migrateToAutoscale"`
	MigrateToManual        bool                     `json:"migrateToManual"`
}

// OfferHandler handles the /offers endpoints.
type OfferHandler struct {
	engine OfferEngine
	acct   account.Context
}

// NewOfferHandler creates a new OfferHandler for one account.
func NewOfferHandler(engine OfferEngine, acct account.Context) *OfferHandler {
	return &OfferHandler{engine: engine, acct: acct}
}

// Get handles GET /offers.
func (h *OfferHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	q := r.URL.Query()
	res := offer.Resource{
		DatabaseID:   strings.TrimSpace(q.Get("databaseId")),
		CollectionID: strings.TrimSpace(q.Get("collectionId")),
	}
	fieldErrors := validation.ValidateResource(validation.ResourceRequest{DatabaseID: res.DatabaseID, CollectionID: res.CollectionID})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	ctx := middleware.WithResource(r.Context(), res.DatabaseID, res.CollectionID)
	o, err := h.engine.ReadOffer(ctx, h.acct, res, q.Get("offerId"))
	if err != nil {
		writeEngineError(w, err, "read offer", requestID)
		return
	}

	response.Success(w, http.StatusOK, toOfferResponse(o), requestID)
}

// Update handles PUT /offers.
func (h *OfferHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updateOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidJSON, "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateUpdateOfferRequest(validation.UpdateOfferRequest{
		ResourceRequest:        validation.ResourceRequest{DatabaseID: req.DatabaseID, CollectionID: req.CollectionID},
		ManualThroughput:       req.ManualThroughput,
		AutoscaleMaxThroughput: req.AutoscaleMaxThroughput,
		ThroughputBuckets:      req.ThroughputBuckets,
		MigrateToAutoscale:     req.MigrateToAutoscale,
		MigrateToManual:        req.MigrateToManual,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	res := offer.Resource{DatabaseID: req.DatabaseID, CollectionID: req.CollectionID}
	ctx := middleware.WithResource(r.Context(), res.DatabaseID, res.CollectionID)
	current, err := h.engine.ReadOffer(ctx, h.acct, res, req.OfferID)
	if err != nil {
		writeEngineError(w, err, "read offer", requestID)
		return
	}
	if current.Mode == offer.ModeNone {
		response.Err(w, http.StatusNotFound, response.CodeNotFound, "Resource has no dedicated offer", requestID)
		return
	}

	updated, err := h.engine.UpdateOffer(ctx, h.acct, throughput.UpdateOfferParams{
		Resource:               res,
		CurrentOffer:           current,
		ManualThroughput:       req.ManualThroughput,
		AutoscaleMaxThroughput: req.AutoscaleMaxThroughput,
		ThroughputBuckets:      req.ThroughputBuckets,
		MigrateToAutoscale:     req.MigrateToAutoscale,
		MigrateToManual:        req.MigrateToManual,
	})
	if err != nil {
		writeEngineError(w, err, "update offer", requestID)
		return
	}

	response.Success(w, http.StatusOK, toOfferResponse(updated), requestID)
}
