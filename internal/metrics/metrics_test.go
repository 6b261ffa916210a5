package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azure/cosmos-explorer-sub003/internal/metrics"
)

func TestRecordCommit(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.RecordCommit("sdk", "none", 100*time.Millisecond, true)
	m.RecordCommit("sdk", "none", 100*time.Millisecond, false)
	m.RecordCommit("managementAPI", "toAutoscale", time.Second, true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommitsTotal.WithLabelValues("sdk", "none", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommitsTotal.WithLabelValues("sdk", "none", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommitsTotal.WithLabelValues("managementAPI", "toAutoscale", "success")))
}

func TestRecordReconcile(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.RecordReconcile(3, 1, 2)
	m.RecordReconcile(1, 0, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PendingOffers))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ReconcileTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReconcileErrors))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReconcileSettled))
}

func TestNilMetrics(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.RecordCommit("sdk", "none", time.Second, true)
		m.RecordRecovery("SQL")
		m.RecordConsole("info")
		m.RecordReconcile(1, 0, 0)
		m.SetSessions(2)
	})
}

func TestHandler(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	m.RecordRecovery("SQL")

	srv := httptest.NewServer(metrics.Handler(registry))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `explorer_offer_method_not_allowed_recoveries_total{api="SQL"} 1`)
}
