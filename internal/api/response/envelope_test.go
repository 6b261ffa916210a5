package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azure/cosmos-explorer-sub003/internal/api/response"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestNewMeta(t *testing.T) {
	before := time.Now().UTC().Add(-time.Second)

	meta := response.NewMeta("")

	_, err := uuid.Parse(meta.RequestID)
	assert.NoError(t, err, "requestId should be a valid UUID")
	parsed, err := time.Parse(time.RFC3339, meta.Timestamp)
	require.NoError(t, err)
	assert.False(t, parsed.Before(before))

	assert.Equal(t, "req-1", response.NewMeta("req-1").RequestID)
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	response.Success(w, http.StatusCreated, map[string]int{"manualThroughput": 400}, "req-1")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	env := decode(t, w)
	assert.Nil(t, env["error"])
	assert.Equal(t, float64(400), env["data"].(map[string]interface{})["manualThroughput"])
	assert.Equal(t, "req-1", env["meta"].(map[string]interface{})["requestId"])
}

func TestSuccessList(t *testing.T) {
	w := httptest.NewRecorder()

	response.SuccessList(w, http.StatusOK, []string{"a", "b"}, 7, 2, 2, "req-2")

	env := decode(t, w)
	meta := env["meta"].(map[string]interface{})
	assert.Equal(t, float64(7), meta["total"])
	assert.Equal(t, float64(2), meta["page"])
	assert.Equal(t, float64(2), meta["limit"])
	assert.Len(t, env["data"], 2)
}

func TestErr(t *testing.T) {
	w := httptest.NewRecorder()

	response.Err(w, http.StatusConflict, response.CodeReplacePending, "Offer replace is pending", "req-3")

	assert.Equal(t, http.StatusConflict, w.Code)
	env := decode(t, w)
	assert.Nil(t, env["data"])
	apiErr := env["error"].(map[string]interface{})
	assert.Equal(t, "REPLACE_PENDING", apiErr["code"])
	assert.Equal(t, "Offer replace is pending", apiErr["message"])
	assert.NotContains(t, apiErr, "details")
}

func TestErrWithDetails(t *testing.T) {
	w := httptest.NewRecorder()
	details := []map[string]string{{"field": "autoscaleMaxThroughput", "message": "must be a multiple of 1000"}}

	response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", details, "")

	env := decode(t, w)
	apiErr := env["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", apiErr["code"])
	require.Len(t, apiErr["details"], 1)
	assert.NotEmpty(t, env["meta"].(map[string]interface{})["requestId"])
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()

	response.NoContent(w)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
}
