package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Azure/cosmos-explorer-sub003/internal/account"
	"github.com/Azure/cosmos-explorer-sub003/internal/auth"
	"github.com/Azure/cosmos-explorer-sub003/internal/console"
	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
	"github.com/Azure/cosmos-explorer-sub003/internal/settings"
	"github.com/Azure/cosmos-explorer-sub003/internal/throughput"
)

var testAccount = account.Context{
	AuthMode:    account.AuthMasterKey,
	APIType:     account.APISQL,
	AccountName: "acct",
	RegionCount: 2,
}

// --- Mock offer engine ---

type mockEngine struct {
	readFn   func(ctx context.Context, res offer.Resource, offerID string) (*offer.Offer, error)
	updateFn func(ctx context.Context, p throughput.UpdateOfferParams) (*offer.Offer, error)
	commitFn func(ctx context.Context, res offer.Resource, tracker *settings.Tracker) (*offer.Offer, error)
}

func (m *mockEngine) ReadOffer(ctx context.Context, _ account.Context, res offer.Resource, offerID string) (*offer.Offer, error) {
	if m.readFn != nil {
		return m.readFn(ctx, res, offerID)
	}
	return offer.NewManual("offer-1", 400), nil
}

func (m *mockEngine) UpdateOffer(ctx context.Context, _ account.Context, p throughput.UpdateOfferParams) (*offer.Offer, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, p)
	}
	return nil, nil
}

func (m *mockEngine) Commit(ctx context.Context, _ account.Context, res offer.Resource, tracker *settings.Tracker) (*offer.Offer, error) {
	if m.commitFn != nil {
		return m.commitFn(ctx, res, tracker)
	}
	return nil, nil
}

// --- Mock resource creator ---

type mockCreator struct {
	createFn           func(ctx context.Context, req offer.DatabaseRequest) error
	createCollectionFn func(ctx context.Context, req offer.CollectionRequest) error
}

func (m *mockCreator) CreateDatabase(ctx context.Context, _ account.Context, req offer.DatabaseRequest) error {
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	return nil
}

func (m *mockCreator) CreateCollection(ctx context.Context, _ account.Context, req offer.CollectionRequest) error {
	if m.createCollectionFn != nil {
		return m.createCollectionFn(ctx, req)
	}
	return nil
}

// --- Mock console reader ---

type mockConsole struct {
	recentFn func(ctx context.Context, filter console.ListFilter) (*console.ListResult, error)
}

func (m *mockConsole) Recent(ctx context.Context, filter console.ListFilter) (*console.ListResult, error) {
	if m.recentFn != nil {
		return m.recentFn(ctx, filter)
	}
	return &console.ListResult{Entries: []console.Entry{}, Page: 1, Limit: 50}, nil
}

// --- Mock user repository ---

type mockUserRepo struct {
	createFn       func(ctx context.Context, u *auth.User) error
	getByIDFn      func(ctx context.Context, id uuid.UUID) (*auth.User, error)
	findByPrefixFn func(ctx context.Context, prefix string) ([]auth.User, error)
	listFn         func(ctx context.Context, filter auth.UserFilter) ([]auth.User, error)
	revokeFn       func(ctx context.Context, id uuid.UUID) error
	countAllFn     func(ctx context.Context) (int, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *auth.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now().UTC()
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, auth.ErrUserNotFound
}

func (m *mockUserRepo) FindByPrefix(ctx context.Context, prefix string) ([]auth.User, error) {
	if m.findByPrefixFn != nil {
		return m.findByPrefixFn(ctx, prefix)
	}
	return []auth.User{}, nil
}

func (m *mockUserRepo) List(ctx context.Context, filter auth.UserFilter) ([]auth.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return []auth.User{}, nil
}

func (m *mockUserRepo) Revoke(ctx context.Context, id uuid.UUID) error {
	if m.revokeFn != nil {
		return m.revokeFn(ctx, id)
	}
	return nil
}

func (m *mockUserRepo) CountAll(ctx context.Context) (int, error) {
	if m.countAllFn != nil {
		return m.countAllFn(ctx)
	}
	return 0, nil
}

// --- Helpers ---

func makeChiRequest(method, path string, body []byte, params map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()

	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	return req, w
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &env)
	require.NoError(t, err, "failed to parse response body")
	return env
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := parseEnvelope(t, w)
	errObj, ok := env["error"].(map[string]interface{})
	require.True(t, ok, "expected an error object, got %v", env["error"])
	return errObj["code"].(string)
}

func intPtr(v int) *int { return &v }
