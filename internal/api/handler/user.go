package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Azure/cosmos-explorer-sub003/internal/api/middleware"
	"github.com/Azure/cosmos-explorer-sub003/internal/api/response"
	"github.com/Azure/cosmos-explorer-sub003/internal/api/validation"
	"github.com/Azure/cosmos-explorer-sub003/internal/auth"
)

// KeyGenerator issues new API keys.
type KeyGenerator interface {
	GenerateKey() (rawKey, prefix, hash string, err error)
}

type createUserRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type userResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Role         string  `json:"role"`
	ApiKeyPrefix string  `json:"apiKeyPrefix"`
	IsSuperuser  bool    `json:"isSuperuser"`
	CreatedAt    string  `json:"createdAt"`
	RevokedAt    *string `json:"revokedAt,omitempty"`
}

type userWithKeyResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	ApiKey    string `json:"apiKey"`
	CreatedAt string `json:"createdAt"`
}

// UserHandler handles user CRUD endpoints.
type UserHandler struct {
	keys     KeyGenerator
	userRepo auth.UserRepository
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(keys KeyGenerator, userRepo auth.UserRepository) *UserHandler {
	return &UserHandler{
		keys:     keys,
		userRepo: userRepo,
	}
}

// Create handles POST /users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidJSON, "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateCreateUserRequest(validation.CreateUserRequest{
		Name: req.Name,
		Role: req.Role,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	req.Name = strings.TrimSpace(req.Name)

	rawKey, prefix, hash, err := h.keys.GenerateKey()
	if err != nil {
		slog.Error("failed to generate API key", "error", err)
		response.Err(w, http.StatusInternalServerError, response.CodeInternal, "Failed to create user", requestID)
		return
	}

	u := &auth.User{
		Name:         req.Name,
		Role:         req.Role,
		ApiKeyPrefix: prefix,
		ApiKeyHash:   hash,
	}

	if err := h.userRepo.Create(r.Context(), u); err != nil {
		slog.Error("failed to create user", "error", err)
		response.Err(w, http.StatusInternalServerError, response.CodeInternal, "Failed to create user", requestID)
		return
	}

	response.Success(w, http.StatusCreated, userWithKeyResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Role:      u.Role,
		ApiKey:    rawKey,
		CreatedAt: u.CreatedAt.UTC().Format(timeFormat),
	}, requestID)
}

// List handles GET /users. The role and active query parameters narrow the
// result.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	q := r.URL.Query()
	filter := auth.UserFilter{Role: q.Get("role")}
	var fieldErrors []validation.FieldError
	if filter.Role != "" && !auth.ValidRole(filter.Role) {
		fieldErrors = append(fieldErrors, validation.FieldError{Field: "role", Message: "role must be reader or operator"})
	}
	if raw := q.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			fieldErrors = append(fieldErrors, validation.FieldError{Field: "active", Message: "active must be a boolean"})
		}
		filter.ActiveOnly = active
	}
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	users, err := h.userRepo.List(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		response.Err(w, http.StatusInternalServerError, response.CodeInternal, "Failed to list users", requestID)
		return
	}

	items := make([]userResponse, 0, len(users))
	for i := range users {
		u := &users[i]
		resp := userResponse{
			ID:           u.ID.String(),
			Name:         u.Name,
			Role:         u.Role,
			ApiKeyPrefix: u.ApiKeyPrefix,
			IsSuperuser:  u.IsSuperuser,
			CreatedAt:    u.CreatedAt.UTC().Format(timeFormat),
		}
		if u.RevokedAt != nil {
			revoked := u.RevokedAt.UTC().Format(timeFormat)
			resp.RevokedAt = &revoked
		}
		items = append(items, resp)
	}

	response.SuccessList(w, http.StatusOK, items, len(items), 1, len(items), requestID)
}

// Delete handles DELETE /users/{id} (soft-revoke).
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidID, "id must be a valid UUID", requestID)
		return
	}

	u, err := h.userRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			response.Err(w, http.StatusNotFound, response.CodeNotFound, "User not found", requestID)
			return
		}
		slog.Error("failed to get user", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, response.CodeInternal, "Failed to revoke user", requestID)
		return
	}

	if u.IsSuperuser {
		response.Err(w, http.StatusForbidden, response.CodeForbidden, "Cannot revoke the superuser", requestID)
		return
	}

	if err := h.userRepo.Revoke(r.Context(), id); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			response.Err(w, http.StatusNotFound, response.CodeNotFound, "User not found", requestID)
			return
		}
		// Revoking twice is a no-op.
		if errors.Is(err, auth.ErrUserRevoked) {
			response.NoContent(w)
			return
		}
		slog.Error("failed to revoke user", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, response.CodeInternal, "Failed to revoke user", requestID)
		return
	}

	response.NoContent(w)
}
