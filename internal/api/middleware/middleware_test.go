package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azure/cosmos-explorer-sub003/internal/api/middleware"
	"github.com/Azure/cosmos-explorer-sub003/internal/auth"
)

type stubAuthenticator struct {
	keys map[string]*auth.Identity
	err  error
}

func (s *stubAuthenticator) Authenticate(_ context.Context, rawKey string) (*auth.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	if id, ok := s.keys[rawKey]; ok {
		return id, nil
	}
	return nil, auth.ErrInvalidKey
}

func testAuthenticator() *stubAuthenticator {
	return &stubAuthenticator{keys: map[string]*auth.Identity{
		"su":       {UserID: uuid.New(), UserName: "root", IsSuperuser: true},
		"operator": {UserID: uuid.New(), UserName: "ops", Role: auth.RoleOperator},
		"reader":   {UserID: uuid.New(), UserName: "viewer", Role: auth.RoleReader},
	}}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func parseErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env["error"].(map[string]interface{})
}

func serve(h http.Handler, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// --- Auth ---

func TestAuth_MissingKey(t *testing.T) {
	t.Parallel()

	w := serve(middleware.Auth(testAuthenticator())(okHandler()), "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	apiErr := parseErrorResponse(t, w)
	assert.Equal(t, "UNAUTHORIZED", apiErr["code"])
	assert.Equal(t, "API key is required", apiErr["message"])
}

func TestAuth_InvalidKey(t *testing.T) {
	t.Parallel()

	w := serve(middleware.Auth(testAuthenticator())(okHandler()), "cdbx_unknown")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid or revoked API key", parseErrorResponse(t, w)["message"])
}

func TestAuth_BackendFailure(t *testing.T) {
	t.Parallel()

	w := serve(middleware.Auth(&stubAuthenticator{err: errors.New("db down")})(okHandler()), "anything")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", parseErrorResponse(t, w)["code"])
}

func TestAuth_StoresIdentity(t *testing.T) {
	t.Parallel()

	var got *auth.Identity
	h := middleware.Auth(testAuthenticator())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = middleware.GetIdentity(r.Context())
	}))

	serve(h, "operator")

	require.NotNil(t, got)
	assert.Equal(t, "ops", got.UserName)
	assert.Equal(t, auth.RoleOperator, got.Role)
}

func TestGetIdentity_EmptyContext(t *testing.T) {
	t.Parallel()

	assert.Nil(t, middleware.GetIdentity(context.Background()))
}

// --- RequireSuperuser ---

func TestRequireSuperuser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key    string
		status int
	}{
		{key: "su", status: http.StatusOK},
		{key: "operator", status: http.StatusForbidden},
		{key: "reader", status: http.StatusForbidden},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()
			h := middleware.Auth(testAuthenticator())(middleware.RequireSuperuser()(okHandler()))

			w := serve(h, tt.key)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusForbidden {
				apiErr := parseErrorResponse(t, w)
				assert.Equal(t, "FORBIDDEN", apiErr["code"])
				assert.Equal(t, "Superuser access required", apiErr["message"])
			}
		})
	}
}

func TestRequireSuperuser_NoIdentity(t *testing.T) {
	t.Parallel()

	w := serve(middleware.RequireSuperuser()(okHandler()), "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- RequireRole ---

func TestRequireRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key    string
		status int
	}{
		{key: "su", status: http.StatusOK},
		{key: "operator", status: http.StatusOK},
		{key: "reader", status: http.StatusForbidden},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()
			h := middleware.Auth(testAuthenticator())(middleware.RequireRole(auth.RoleOperator)(okHandler()))

			w := serve(h, tt.key)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusForbidden {
				assert.Equal(t, "Insufficient permissions", parseErrorResponse(t, w)["message"])
			}
		})
	}
}

func TestRequireRole_NoIdentity(t *testing.T) {
	t.Parallel()

	w := serve(middleware.RequireRole(auth.RoleReader)(okHandler()), "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- Recovery ---

func TestRecovery_NoPanic(t *testing.T) {
	t.Parallel()

	w := serve(middleware.Recovery(okHandler()), "")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecovery_HandlesPanic(t *testing.T) {
	t.Parallel()

	h := middleware.RequestID(middleware.Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	w := serve(h, "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Nil(t, env["data"])
	apiErr := env["error"].(map[string]interface{})
	assert.Equal(t, "INTERNAL_ERROR", apiErr["code"])
	assert.Equal(t, "An unexpected error occurred", apiErr["message"])
	assert.Equal(t, w.Header().Get("X-Request-ID"), env["meta"].(map[string]interface{})["requestId"])
}

// --- RequestID ---

func TestRequestID_GeneratesNewID(t *testing.T) {
	t.Parallel()

	var captured string
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = middleware.GetRequestID(r.Context())
	}))

	w := serve(h, "")

	_, err := uuid.Parse(captured)
	assert.NoError(t, err, "generated request ID should be a valid UUID")
	assert.Equal(t, captured, w.Header().Get("X-Request-ID"))
}

func TestRequestID_UsesExistingHeader(t *testing.T) {
	t.Parallel()

	var captured string
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = middleware.GetRequestID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	assert.Equal(t, "req-123", captured)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	t.Parallel()

	h := middleware.RequestID(okHandler())
	ids := make(map[string]bool)
	for i := 0; i < 10; i++ {
		id := serve(h, "").Header().Get("X-Request-ID")
		assert.False(t, ids[id], "request IDs should be unique")
		ids[id] = true
	}
}

func TestGetRequestID_EmptyContext(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", middleware.GetRequestID(context.Background()))
}
