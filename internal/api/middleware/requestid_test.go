package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azure/cosmos-explorer-sub003/internal/api/middleware"
)

func TestAccount_TagsContext(t *testing.T) {
	t.Parallel()

	var account string
	h := middleware.Account("acct")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account = middleware.GetAccount(r.Context())
	}))

	serve(h, "")

	assert.Equal(t, "acct", account)
}

func TestWithResource(t *testing.T) {
	t.Parallel()

	db, coll := middleware.GetResource(context.Background())
	assert.Empty(t, db)
	assert.Empty(t, coll)

	ctx := middleware.WithResource(context.Background(), "db", "coll")
	db, coll = middleware.GetResource(ctx)
	assert.Equal(t, "db", db)
	assert.Equal(t, "coll", coll)
}

func TestContextHandler_AddsRequestScope(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(middleware.NewContextHandler(slog.NewJSONHandler(&buf, nil))).With("component", "test")

	var ctx context.Context
	h := middleware.RequestID(middleware.Account("acct")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx = middleware.WithResource(r.Context(), "db", "")
	})))
	w := serve(h, "")
	logger.InfoContext(ctx, "Successfully created database db")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, w.Header().Get(middleware.HeaderRequestID), rec["requestId"])
	assert.Equal(t, "acct", rec["account"])
	assert.Equal(t, "db", rec["databaseId"])
	assert.Equal(t, "test", rec["component"])
	assert.NotContains(t, rec, "collectionId")
}

func TestContextHandler_NoScope(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	slog.New(middleware.NewContextHandler(slog.NewJSONHandler(&buf, nil))).Info("startup")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.NotContains(t, rec, "requestId")
	assert.NotContains(t, rec, "account")
}
