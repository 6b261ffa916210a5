package handler_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azure/cosmos-explorer-sub003/internal/api/handler"
	"github.com/Azure/cosmos-explorer-sub003/internal/auth"
)

func sampleUser(id uuid.UUID, role string, isSuperuser bool) *auth.User {
	return &auth.User{
		ID:           id,
		Name:         "alice",
		Role:         role,
		IsSuperuser:  isSuperuser,
		ApiKeyPrefix: "cdbx_abc",
		ApiKeyHash:   "$2a$12$fakehash",
		CreatedAt:    time.Now().UTC(),
	}
}

// ===== POST /users =====

func TestUserCreate_Success(t *testing.T) {
	t.Parallel()

	var created *auth.User
	userRepo := &mockUserRepo{
		createFn: func(_ context.Context, u *auth.User) error {
			u.ID = uuid.New()
			u.CreatedAt = time.Now().UTC()
			created = u
			return nil
		},
	}
	// A real service with a low bcrypt cost.
	h := handler.NewUserHandler(auth.NewService(userRepo, 4), userRepo)

	body := mustJSON(t, map[string]string{"name": " alice ", "role": auth.RoleOperator})
	req, w := makeChiRequest(http.MethodPost, "/users", body, nil)
	h.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := parseEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "alice", data["name"])
	assert.Equal(t, "operator", data["role"])
	apiKey := data["apiKey"].(string)
	assert.True(t, strings.HasPrefix(apiKey, auth.KeyPrefix))

	require.NotNil(t, created)
	assert.Equal(t, auth.RoleOperator, created.Role)
	assert.False(t, created.IsSuperuser)
	assert.NotEqual(t, apiKey, created.ApiKeyHash)
}

func TestUserCreate_Validation(t *testing.T) {
	t.Parallel()

	userRepo := &mockUserRepo{}
	h := handler.NewUserHandler(auth.NewService(userRepo, 4), userRepo)

	for _, body := range []map[string]string{
		{"role": "reader"},
		{"name": "bob"},
		{"name": "bob", "role": "admin"},
	} {
		req, w := makeChiRequest(http.MethodPost, "/users", mustJSON(t, body), nil)
		h.Create(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
	}
}

func TestUserCreate_RepoError(t *testing.T) {
	t.Parallel()

	userRepo := &mockUserRepo{
		createFn: func(context.Context, *auth.User) error { return errors.New("insert failed") },
	}
	h := handler.NewUserHandler(auth.NewService(userRepo, 4), userRepo)

	req, w := makeChiRequest(http.MethodPost, "/users", mustJSON(t, map[string]string{"name": "bob", "role": "reader"}), nil)
	h.Create(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// ===== GET /users =====

func TestUserList(t *testing.T) {
	t.Parallel()

	revoked := time.Now().UTC()
	userRepo := &mockUserRepo{
		listFn: func(context.Context, auth.UserFilter) ([]auth.User, error) {
			u1 := sampleUser(uuid.New(), auth.RoleReader, false)
			u2 := sampleUser(uuid.New(), auth.RoleOperator, false)
			u2.RevokedAt = &revoked
			return []auth.User{*u1, *u2}, nil
		},
	}
	h := handler.NewUserHandler(auth.NewService(userRepo, 4), userRepo)

	req, w := makeChiRequest(http.MethodGet, "/users", nil, nil)
	h.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	items := parseEnvelope(t, w)["data"].([]interface{})
	require.Len(t, items, 2)
	assert.Equal(t, "reader", items[0].(map[string]interface{})["role"])
	assert.Nil(t, items[0].(map[string]interface{})["revokedAt"])
	assert.NotNil(t, items[1].(map[string]interface{})["revokedAt"])
}

func TestUserList_Filter(t *testing.T) {
	t.Parallel()

	var got auth.UserFilter
	userRepo := &mockUserRepo{
		listFn: func(_ context.Context, filter auth.UserFilter) ([]auth.User, error) {
			got = filter
			return []auth.User{}, nil
		},
	}
	h := handler.NewUserHandler(auth.NewService(userRepo, 4), userRepo)

	req, w := makeChiRequest(http.MethodGet, "/users?role=operator&active=true", nil, nil)
	h.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, auth.UserFilter{Role: auth.RoleOperator, ActiveOnly: true}, got)
}

func TestUserList_InvalidFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
	}{
		{name: "unknown role", query: "?role=admin"},
		{name: "bad active flag", query: "?active=maybe"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			userRepo := &mockUserRepo{
				listFn: func(context.Context, auth.UserFilter) ([]auth.User, error) {
					t.Fatal("repository must not be called")
					return nil, nil
				},
			}
			h := handler.NewUserHandler(auth.NewService(userRepo, 4), userRepo)

			req, w := makeChiRequest(http.MethodGet, "/users"+tt.query, nil, nil)
			h.List(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
		})
	}
}

// ===== DELETE /users/{id} =====

func TestUserDelete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		getErr    error
		superuser bool
		revokeErr error
		status    int
	}{
		{name: "revoked", status: http.StatusNoContent},
		{name: "already revoked", revokeErr: auth.ErrUserRevoked, status: http.StatusNoContent},
		{name: "not found", getErr: auth.ErrUserNotFound, status: http.StatusNotFound},
		{name: "superuser", superuser: true, status: http.StatusForbidden},
		{name: "repo error", revokeErr: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			id := uuid.New()
			userRepo := &mockUserRepo{
				getByIDFn: func(_ context.Context, got uuid.UUID) (*auth.User, error) {
					assert.Equal(t, id, got)
					if tt.getErr != nil {
						return nil, tt.getErr
					}
					return sampleUser(id, auth.RoleReader, tt.superuser), nil
				},
				revokeFn: func(context.Context, uuid.UUID) error { return tt.revokeErr },
			}
			h := handler.NewUserHandler(auth.NewService(userRepo, 4), userRepo)

			req, w := makeChiRequest(http.MethodDelete, "/users/"+id.String(), nil, map[string]string{"id": id.String()})
			h.Delete(w, req)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestUserDelete_InvalidID(t *testing.T) {
	t.Parallel()

	userRepo := &mockUserRepo{}
	h := handler.NewUserHandler(auth.NewService(userRepo, 4), userRepo)

	req, w := makeChiRequest(http.MethodDelete, "/users/x", nil, map[string]string{"id": "x"})
	h.Delete(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", errorCode(t, w))
}
