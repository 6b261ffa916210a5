package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Azure/cosmos-explorer-sub003/internal/account"
	"github.com/Azure/cosmos-explorer-sub003/internal/api/middleware"
	"github.com/Azure/cosmos-explorer-sub003/internal/api/response"
	"github.com/Azure/cosmos-explorer-sub003/internal/api/validation"
	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
	"github.com/Azure/cosmos-explorer-sub003/internal/settings"
)

type openSessionRequest struct {
	DatabaseID    string `json:"databaseId"`
	CollectionID  string `json:"collectionId"`
	OfferID       string `json:"offerId"`
	ThroughputCap int    `json:"throughputCap"`
	TotalUsed     int    `json:"totalUsed"`
}

type sessionResponse struct {
	ID           string         `json:"id"`
	DatabaseID   string         `json:"databaseId"`
	CollectionID string         `json:"collectionId,omitempty"`
	CreatedAt    string         `json:"createdAt"`
	Offer        *offerResponse `json:"offer"`
	State        settings.State `json:"state"`
}

// SettingsHandler serves settings sessions: a server-side baseline/draft
// tracker per open settings view.
type SettingsHandler struct {
	engine OfferEngine
	store  *settings.Store
	acct   account.Context
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(engine OfferEngine, store *settings.Store, acct account.Context) *SettingsHandler {
	return &SettingsHandler{engine: engine, store: store, acct: acct}
}

// Open handles POST /settings.
func (h *SettingsHandler) Open(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req openSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidJSON, "Request body must be valid JSON", requestID)
		return
	}

	req.DatabaseID = strings.TrimSpace(req.DatabaseID)
	req.CollectionID = strings.TrimSpace(req.CollectionID)
	fieldErrors := validation.ValidateResource(validation.ResourceRequest{DatabaseID: req.DatabaseID, CollectionID: req.CollectionID})
	if req.ThroughputCap < 0 {
		fieldErrors = append(fieldErrors, validation.FieldError{Field: "throughputCap", Message: "throughputCap must not be negative"})
	}
	if req.TotalUsed < 0 {
		fieldErrors = append(fieldErrors, validation.FieldError{Field: "totalUsed", Message: "totalUsed must not be negative"})
	}
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	res := offer.Resource{DatabaseID: req.DatabaseID, CollectionID: req.CollectionID}
	o, err := h.engine.ReadOffer(middleware.WithResource(r.Context(), res.DatabaseID, res.CollectionID), h.acct, res, req.OfferID)
	if err != nil {
		writeEngineError(w, err, "read offer", requestID)
		return
	}

	tracker := settings.NewTracker(settings.Limits{
		ThroughputCap: req.ThroughputCap,
		TotalUsed:     req.TotalUsed,
		RegionCount:   h.acct.Regions(),
	})
	tracker.SetBaseline(o)
	sess := h.store.Open(res, tracker)

	slog.Info("settings session opened", "session", sess.ID, "database", res.DatabaseID, "collection", res.CollectionID)
	response.Success(w, http.StatusCreated, toSessionResponse(sess), requestID)
}

// Get handles GET /settings/{id}.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	sess, ok := h.session(w, r, requestID)
	if !ok {
		return
	}

	response.Success(w, http.StatusOK, toSessionResponse(sess), requestID)
}

// Change handles PATCH /settings/{id}. The body maps field names to new draft
// values; every value is decoded before any is applied.
func (h *SettingsHandler) Change(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	sess, ok := h.session(w, r, requestID)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidJSON, "Request body must be valid JSON", requestID)
		return
	}

	changes, fieldErrors := decodeChanges(raw)
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	for _, field := range settings.Fields {
		v, ok := changes[field]
		if !ok {
			continue
		}
		if err := sess.Tracker.OnFieldChange(field, v); err != nil {
			response.Err(w, http.StatusBadRequest, response.CodeValidation, err.Error(), requestID)
			return
		}
	}

	response.Success(w, http.StatusOK, toSessionResponse(sess), requestID)
}

// Discard handles POST /settings/{id}/discard.
func (h *SettingsHandler) Discard(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	sess, ok := h.session(w, r, requestID)
	if !ok {
		return
	}

	sess.Tracker.Discard()
	response.Success(w, http.StatusOK, toSessionResponse(sess), requestID)
}

// Save handles POST /settings/{id}/save.
func (h *SettingsHandler) Save(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	sess, ok := h.session(w, r, requestID)
	if !ok {
		return
	}

	ctx := middleware.WithResource(r.Context(), sess.Resource.DatabaseID, sess.Resource.CollectionID)
	if _, err := h.engine.Commit(ctx, h.acct, sess.Resource, sess.Tracker); err != nil {
		writeEngineError(w, err, "save settings", requestID)
		return
	}

	response.Success(w, http.StatusOK, toSessionResponse(sess), requestID)
}

// Refresh handles POST /settings/{id}/refresh. It re-reads the offer and
// replaces the baseline, dropping any draft changes.
func (h *SettingsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	sess, ok := h.session(w, r, requestID)
	if !ok {
		return
	}
	if sess.Tracker.State().Executing {
		response.Err(w, http.StatusConflict, response.CodeCommitInProgress, "A save is already in progress", requestID)
		return
	}

	offerID := ""
	if current := sess.Tracker.Offer(); current != nil {
		offerID = current.ID
	}
	o, err := h.engine.ReadOffer(r.Context(), h.acct, sess.Resource, offerID)
	if err != nil {
		writeEngineError(w, err, "refresh offer", requestID)
		return
	}
	sess.Tracker.SetBaseline(o)

	response.Success(w, http.StatusOK, toSessionResponse(sess), requestID)
}

// Close handles DELETE /settings/{id}.
func (h *SettingsHandler) Close(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidID, "id must be a valid UUID", requestID)
		return
	}
	if err := h.store.Close(id); err != nil {
		response.Err(w, http.StatusNotFound, response.CodeNotFound, "Settings session not found", requestID)
		return
	}

	response.NoContent(w)
}

func (h *SettingsHandler) session(w http.ResponseWriter, r *http.Request, requestID string) (*settings.Session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidID, "id must be a valid UUID", requestID)
		return nil, false
	}
	sess, err := h.store.Get(id)
	if err != nil {
		if errors.Is(err, settings.ErrSessionNotFound) {
			response.Err(w, http.StatusNotFound, response.CodeNotFound, "Settings session not found", requestID)
			return nil, false
		}
		response.Err(w, http.StatusInternalServerError, response.CodeInternal, "Failed to load settings session", requestID)
		return nil, false
	}
	return sess, true
}

func decodeChanges(raw map[string]json.RawMessage) (map[settings.Field]any, []validation.FieldError) {
	changes := make(map[settings.Field]any, len(raw))
	var errs []validation.FieldError

	for name, value := range raw {
		field := settings.Field(name)
		switch field {
		case settings.FieldAutoscale:
			var v bool
			if err := json.Unmarshal(value, &v); err != nil {
				errs = append(errs, validation.FieldError{Field: name, Message: name + " must be a boolean"})
				continue
			}
			changes[field] = v
		case settings.FieldManualThroughput, settings.FieldAutoscaleMaxThroughput:
			var v int
			if err := json.Unmarshal(value, &v); err != nil {
				errs = append(errs, validation.FieldError{Field: name, Message: name + " must be an integer"})
				continue
			}
			changes[field] = v
		case settings.FieldThroughputBuckets:
			var v []offer.ThroughputBucket
			if err := json.Unmarshal(value, &v); err != nil {
				errs = append(errs, validation.FieldError{Field: name, Message: name + " must be a list of buckets"})
				continue
			}
			changes[field] = v
		default:
			errs = append(errs, validation.FieldError{Field: name, Message: "unknown field"})
		}
	}
	sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return changes, errs
}

func toSessionResponse(sess *settings.Session) sessionResponse {
	return sessionResponse{
		ID:           sess.ID.String(),
		DatabaseID:   sess.Resource.DatabaseID,
		CollectionID: sess.Resource.CollectionID,
		CreatedAt:    sess.CreatedAt.UTC().Format(timeFormat),
		Offer:        toOfferResponse(sess.Tracker.Offer()),
		State:        sess.Tracker.State(),
	}
}
