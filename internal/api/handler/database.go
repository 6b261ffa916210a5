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

// DatabaseCreator creates databases with optional shared throughput.
type DatabaseCreator interface {
	CreateDatabase(ctx context.Context, acct account.Context, req offer.DatabaseRequest) error
}

type createDatabaseRequest struct {
	DatabaseID             string `json:"databaseId"`
	ManualThroughput       *int   `json:"manualThroughput"`
	AutoscaleMaxThroughput *int   `json:"autoscaleMaxThroughput"`
}

type databaseResponse struct {
	DatabaseID             string `json:"databaseId"`
	ManualThroughput       *int   `json:"manualThroughput,omitempty"`
	AutoscaleMaxThroughput *int   `json:"autoscaleMaxThroughput,omitempty"`
}

// DatabaseHandler handles the /databases endpoint.
type DatabaseHandler struct {
	creator DatabaseCreator
	acct    account.Context
}

// NewDatabaseHandler creates a new DatabaseHandler.
func NewDatabaseHandler(creator DatabaseCreator, acct account.Context) *DatabaseHandler {
	return &DatabaseHandler{creator: creator, acct: acct}
}

// Create handles POST /databases.
func (h *DatabaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createDatabaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidJSON, "Request body must be valid JSON", requestID)
		return
	}

	req.DatabaseID = strings.TrimSpace(req.DatabaseID)
	fieldErrors := validation.ValidateCreateDatabaseRequest(validation.CreateDatabaseRequest{
		DatabaseID:             req.DatabaseID,
		ManualThroughput:       req.ManualThroughput,
		AutoscaleMaxThroughput: req.AutoscaleMaxThroughput,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	err := h.creator.CreateDatabase(middleware.WithResource(r.Context(), req.DatabaseID, ""), h.acct, offer.DatabaseRequest{
		DatabaseID: req.DatabaseID,
		Provisioning: offer.Provisioning{
			ManualThroughput:       req.ManualThroughput,
			AutoscaleMaxThroughput: req.AutoscaleMaxThroughput,
		},
	})
	if err != nil {
		writeEngineError(w, err, "create database", requestID)
		return
	}

	response.Success(w, http.StatusCreated, databaseResponse(req), requestID)
}
