package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Azure/cosmos-explorer-sub003/internal/api/response"
	"github.com/Azure/cosmos-explorer-sub003/internal/arm"
	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
	"github.com/Azure/cosmos-explorer-sub003/internal/sdk"
	"github.com/Azure/cosmos-explorer-sub003/internal/settings"
	"github.com/Azure/cosmos-explorer-sub003/internal/throughput"
)

// writeEngineError maps a throughput engine error to an envelope response.
func writeEngineError(w http.ResponseWriter, err error, action, requestID string) {
	status, code, message := http.StatusInternalServerError, response.CodeInternal, "Failed to "+action

	var armErr *arm.Error
	var sdkErr *sdk.Error
	switch {
	case errors.Is(err, settings.ErrNotSaveable):
		status, code, message = http.StatusConflict, response.CodeNotSaveable, "Settings have no saveable changes"
	case errors.Is(err, settings.ErrCommitInProgress):
		status, code, message = http.StatusConflict, response.CodeCommitInProgress, "A save is already in progress"
	case errors.Is(err, throughput.ErrReplacePending):
		status, code, message = http.StatusConflict, response.CodeReplacePending, "A previous throughput change is still being applied"
	case errors.Is(err, throughput.ErrDatabaseExists):
		status, code, message = http.StatusConflict, response.CodeConflict, "Database already exists"
	case errors.Is(err, throughput.ErrCollectionExists):
		status, code, message = http.StatusConflict, response.CodeConflict, "Collection already exists"
	case errors.Is(err, offer.ErrInvalidOffer),
		errors.Is(err, throughput.ErrConflictingMigration),
		errors.Is(err, throughput.ErrNoThroughput):
		status, code, message = http.StatusBadRequest, response.CodeValidation, err.Error()
	case errors.Is(err, throughput.ErrNoOffer), throughput.IsNotFound(err):
		status, code, message = http.StatusNotFound, response.CodeNotFound, "Resource or offer not found"
	case throughput.IsThrottled(err):
		status, code, message = http.StatusTooManyRequests, response.CodeThrottled, "Request rate is too large"
	case errors.Is(err, throughput.ErrUnsupportedAPI),
		errors.Is(err, throughput.ErrBackendUnavailable),
		errors.Is(err, arm.ErrUnsupported):
		status, code, message = http.StatusServiceUnavailable, response.CodeBackendUnavailable, err.Error()
	case errors.As(err, &armErr), errors.As(err, &sdkErr):
		status, code, message = http.StatusBadGateway, response.CodeBackendError, err.Error()
	}

	if status >= http.StatusInternalServerError {
		slog.Error("failed to "+action, "error", err, "requestId", requestID)
	}
	response.Err(w, status, code, message, requestID)
}
