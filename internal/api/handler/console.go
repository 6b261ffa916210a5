package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Azure/cosmos-explorer-sub003/internal/api/middleware"
	"github.com/Azure/cosmos-explorer-sub003/internal/api/response"
	"github.com/Azure/cosmos-explorer-sub003/internal/api/validation"
	"github.com/Azure/cosmos-explorer-sub003/internal/console"
)

// ConsoleReader lists recent console entries.
type ConsoleReader interface {
	Recent(ctx context.Context, filter console.ListFilter) (*console.ListResult, error)
}

type consoleEntryResponse struct {
	ID         string  `json:"id"`
	Level      string  `json:"level"`
	Message    string  `json:"message"`
	InProgress bool    `json:"inProgress"`
	CreatedAt  string  `json:"createdAt"`
	ClearedAt  *string `json:"clearedAt,omitempty"`
}

// ConsoleHandler handles GET /console.
type ConsoleHandler struct {
	reader ConsoleReader
}

// NewConsoleHandler creates a new ConsoleHandler.
func NewConsoleHandler(reader ConsoleReader) *ConsoleHandler {
	return &ConsoleHandler{reader: reader}
}

// List handles GET /console.
func (h *ConsoleHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	q := r.URL.Query()
	var filter console.ListFilter
	var fieldErrors []validation.FieldError

	if v := q.Get("level"); v != "" {
		level := console.Level(v)
		switch level {
		case console.LevelInfo, console.LevelError, console.LevelProgress:
			filter.Level = &level
		default:
			fieldErrors = append(fieldErrors, validation.FieldError{Field: "level", Message: "level must be one of: info, error, progress"})
		}
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			fieldErrors = append(fieldErrors, validation.FieldError{Field: "page", Message: "page must be a positive integer"})
		}
		filter.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			fieldErrors = append(fieldErrors, validation.FieldError{Field: "limit", Message: "limit must be a positive integer"})
		}
		filter.Limit = n
	}
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	result, err := h.reader.Recent(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list console entries", "error", err)
		response.Err(w, http.StatusInternalServerError, response.CodeInternal, "Failed to list console entries", requestID)
		return
	}

	items := make([]consoleEntryResponse, 0, len(result.Entries))
	for i := range result.Entries {
		e := &result.Entries[i]
		item := consoleEntryResponse{
			ID:         e.ID.String(),
			Level:      string(e.Level),
			Message:    e.Message,
			InProgress: e.InProgress,
			CreatedAt:  e.CreatedAt.UTC().Format(timeFormat),
		}
		if e.ClearedAt != nil {
			cleared := e.ClearedAt.UTC().Format(timeFormat)
			item.ClearedAt = &cleared
		}
		items = append(items, item)
	}

	response.SuccessList(w, http.StatusOK, items, result.Total, result.Page, result.Limit, requestID)
}
