package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azure/cosmos-explorer-sub003/internal/api/handler"
	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
	"github.com/Azure/cosmos-explorer-sub003/internal/settings"
	"github.com/Azure/cosmos-explorer-sub003/internal/throughput"
)

func newSettingsHandler(engine handler.OfferEngine) (*handler.SettingsHandler, *settings.Store) {
	store := settings.NewStore(time.Hour, nil)
	return handler.NewSettingsHandler(engine, store, testAccount), store
}

func openSession(t *testing.T, store *settings.Store, o *offer.Offer) *settings.Session {
	t.Helper()
	tr := settings.NewTracker(settings.Limits{})
	tr.SetBaseline(o)
	return store.Open(offer.Resource{DatabaseID: "db1", CollectionID: "c1"}, tr)
}

func sessionParams(s *settings.Session) map[string]string {
	return map[string]string{"id": s.ID.String()}
}

func stateOf(t *testing.T, env map[string]interface{}) map[string]interface{} {
	t.Helper()
	data := env["data"].(map[string]interface{})
	return data["state"].(map[string]interface{})
}

// ===== POST /settings =====

func TestSettingsOpen_Success(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{
		readFn: func(_ context.Context, res offer.Resource, _ string) (*offer.Offer, error) {
			assert.Equal(t, "db1", res.DatabaseID)
			return offer.NewManual("o1", 400), nil
		},
	}
	h, store := newSettingsHandler(engine)

	body := mustJSON(t, map[string]interface{}{"databaseId": "db1", "collectionId": "c1", "throughputCap": 5000, "totalUsed": 4000})
	req, w := makeChiRequest(http.MethodPost, "/settings", body, nil)
	h.Open(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	env := parseEnvelope(t, w)
	data := env["data"].(map[string]interface{})
	id, err := uuid.Parse(data["id"].(string))
	require.NoError(t, err)

	sess, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 400, sess.Tracker.BaselineDraft().ManualThroughput)

	state := stateOf(t, env)
	assert.Equal(t, false, state["saveable"])
	assert.Equal(t, false, state["executing"])

	// Two regions: raising 400 to 1000 adds 1200 on top of 4000 used.
	sess.Tracker.SetManualThroughput(1000)
	assert.Contains(t, sess.Tracker.ValidationErrors(), settings.FieldManualThroughput)
}

func TestSettingsOpen_Validation(t *testing.T) {
	t.Parallel()

	h, store := newSettingsHandler(&mockEngine{})

	body := mustJSON(t, map[string]interface{}{"collectionId": "c1", "throughputCap": -1})
	req, w := makeChiRequest(http.MethodPost, "/settings", body, nil)
	h.Open(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
	assert.Equal(t, 0, store.Len())
}

func TestSettingsOpen_ReadFails(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{
		readFn: func(context.Context, offer.Resource, string) (*offer.Offer, error) {
			return nil, throughput.ErrNoOffer
		},
	}
	h, store := newSettingsHandler(engine)

	req, w := makeChiRequest(http.MethodPost, "/settings", mustJSON(t, map[string]interface{}{"databaseId": "db1"}), nil)
	h.Open(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 0, store.Len())
}

// ===== GET /settings/{id} =====

func TestSettingsGet(t *testing.T) {
	t.Parallel()

	h, store := newSettingsHandler(&mockEngine{})
	sess := openSession(t, store, offer.NewAutoscale("o1", 4000))

	req, w := makeChiRequest(http.MethodGet, "/settings/"+sess.ID.String(), nil, sessionParams(sess))
	h.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	env := parseEnvelope(t, w)
	data := env["data"].(map[string]interface{})
	assert.Equal(t, "db1", data["databaseId"])
	assert.Equal(t, "c1", data["collectionId"])
	draft := stateOf(t, env)["draft"].(map[string]interface{})
	assert.Equal(t, true, draft["autoscale"])
	assert.Equal(t, float64(4000), draft["autoscaleMaxThroughput"])
}

func TestSettingsGet_NotFound(t *testing.T) {
	t.Parallel()

	h, _ := newSettingsHandler(&mockEngine{})

	req, w := makeChiRequest(http.MethodGet, "/settings/x", nil, map[string]string{"id": uuid.NewString()})
	h.Get(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req, w = makeChiRequest(http.MethodGet, "/settings/x", nil, map[string]string{"id": "not-a-uuid"})
	h.Get(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", errorCode(t, w))
}

// ===== PATCH /settings/{id} =====

func TestSettingsChange_AppliesFields(t *testing.T) {
	t.Parallel()

	h, store := newSettingsHandler(&mockEngine{})
	sess := openSession(t, store, offer.NewManual("o1", 400))

	body := mustJSON(t, map[string]interface{}{
		"manualThroughput":  1000,
		"throughputBuckets": []map[string]int{{"id": 1, "maxThroughputPercentage": 30}},
	})
	req, w := makeChiRequest(http.MethodPatch, "/settings/x", body, sessionParams(sess))
	h.Change(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	state := stateOf(t, parseEnvelope(t, w))
	assert.Equal(t, true, state["saveable"])
	dirty := state["dirty"].(map[string]interface{})
	assert.Equal(t, true, dirty["manualThroughput"])
	assert.Equal(t, true, dirty["throughputBuckets"])
	assert.Equal(t, false, dirty["autoscale"])
	assert.Equal(t, 1000, sess.Tracker.Draft().ManualThroughput)
}

func TestSettingsChange_RejectsBeforeApplying(t *testing.T) {
	t.Parallel()

	h, store := newSettingsHandler(&mockEngine{})
	sess := openSession(t, store, offer.NewManual("o1", 400))

	body := mustJSON(t, map[string]interface{}{
		"manualThroughput": 1000,
		"autoscale":        "yes",
		"indexingPolicy":   map[string]string{},
	})
	req, w := makeChiRequest(http.MethodPatch, "/settings/x", body, sessionParams(sess))
	h.Change(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := parseEnvelope(t, w)
	details := env["error"].(map[string]interface{})["details"].([]interface{})
	require.Len(t, details, 2)
	assert.Equal(t, "autoscale", details[0].(map[string]interface{})["field"])
	assert.Equal(t, "indexingPolicy", details[1].(map[string]interface{})["field"])
	assert.False(t, sess.Tracker.IsDirty(settings.FieldManualThroughput))
}

func TestSettingsChange_NonIntegralNumber(t *testing.T) {
	t.Parallel()

	h, store := newSettingsHandler(&mockEngine{})
	sess := openSession(t, store, offer.NewManual("o1", 400))

	req, w := makeChiRequest(http.MethodPatch, "/settings/x", []byte(`{"manualThroughput": 400.5}`), sessionParams(sess))
	h.Change(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ===== POST /settings/{id}/discard =====

func TestSettingsDiscard(t *testing.T) {
	t.Parallel()

	h, store := newSettingsHandler(&mockEngine{})
	sess := openSession(t, store, offer.NewManual("o1", 400))
	sess.Tracker.SetManualThroughput(900)

	req, w := makeChiRequest(http.MethodPost, "/settings/x/discard", nil, sessionParams(sess))
	h.Discard(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, sess.Tracker.IsDiscardable())
	assert.Equal(t, 400, sess.Tracker.Draft().ManualThroughput)
}

// ===== POST /settings/{id}/save =====

func TestSettingsSave_Success(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{
		commitFn: func(_ context.Context, res offer.Resource, tr *settings.Tracker) (*offer.Offer, error) {
			assert.Equal(t, "c1", res.CollectionID)
			c, err := tr.BeginCommit()
			require.NoError(t, err)
			result := offer.NewManual("o1", c.Draft.ManualThroughput)
			tr.EndCommit(result)
			return result, nil
		},
	}
	h, store := newSettingsHandler(engine)
	sess := openSession(t, store, offer.NewManual("o1", 400))
	sess.Tracker.SetManualThroughput(1000)

	req, w := makeChiRequest(http.MethodPost, "/settings/x/save", nil, sessionParams(sess))
	h.Save(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := parseEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(1000), data["offer"].(map[string]interface{})["manualThroughput"])
	assert.False(t, sess.Tracker.IsDirty(settings.FieldManualThroughput))
}

func TestSettingsSave_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "not saveable", err: settings.ErrNotSaveable, status: http.StatusConflict, code: "NOT_SAVEABLE"},
		{name: "in progress", err: settings.ErrCommitInProgress, status: http.StatusConflict, code: "COMMIT_IN_PROGRESS"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			engine := &mockEngine{
				commitFn: func(context.Context, offer.Resource, *settings.Tracker) (*offer.Offer, error) { return nil, tt.err },
			}
			h, store := newSettingsHandler(engine)
			sess := openSession(t, store, offer.NewManual("o1", 400))

			req, w := makeChiRequest(http.MethodPost, "/settings/x/save", nil, sessionParams(sess))
			h.Save(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

// ===== POST /settings/{id}/refresh =====

func TestSettingsRefresh(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{
		readFn: func(_ context.Context, _ offer.Resource, offerID string) (*offer.Offer, error) {
			assert.Equal(t, "o1", offerID)
			return offer.NewManual("o1", 700), nil
		},
	}
	h, store := newSettingsHandler(engine)
	sess := openSession(t, store, offer.NewManual("o1", 400))
	sess.Tracker.SetManualThroughput(900)

	req, w := makeChiRequest(http.MethodPost, "/settings/x/refresh", nil, sessionParams(sess))
	h.Refresh(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 700, sess.Tracker.BaselineDraft().ManualThroughput)
	assert.Equal(t, 700, sess.Tracker.Draft().ManualThroughput)
}

func TestSettingsRefresh_WhileSaving(t *testing.T) {
	t.Parallel()

	called := false
	engine := &mockEngine{
		readFn: func(context.Context, offer.Resource, string) (*offer.Offer, error) {
			called = true
			return offer.NewManual("o1", 700), nil
		},
	}
	h, store := newSettingsHandler(engine)
	sess := openSession(t, store, offer.NewManual("o1", 400))
	sess.Tracker.SetManualThroughput(900)
	_, err := sess.Tracker.BeginCommit()
	require.NoError(t, err)

	req, w := makeChiRequest(http.MethodPost, "/settings/x/refresh", nil, sessionParams(sess))
	h.Refresh(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "COMMIT_IN_PROGRESS", errorCode(t, w))
	assert.False(t, called)
}

// ===== DELETE /settings/{id} =====

func TestSettingsClose(t *testing.T) {
	t.Parallel()

	h, store := newSettingsHandler(&mockEngine{})
	sess := openSession(t, store, offer.NewManual("o1", 400))

	req, w := makeChiRequest(http.MethodDelete, "/settings/x", nil, sessionParams(sess))
	h.Close(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, store.Len())

	req, w = makeChiRequest(http.MethodDelete, "/settings/x", nil, sessionParams(sess))
	h.Close(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
