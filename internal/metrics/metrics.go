package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the throughput engine's Prometheus instruments.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CommitsTotal     *prometheus.CounterVec
	CommitDuration   *prometheus.HistogramVec
	Recoveries       *prometheus.CounterVec
	ConsoleEntries   *prometheus.CounterVec
	PendingOffers    prometheus.Gauge
	ReconcileTotal   prometheus.Counter
	ReconcileErrors  prometheus.Counter
	ReconcileSettled prometheus.Counter
	SettingsSessions prometheus.Gauge
}

// New registers every instrument on the given registry. Pass an instance
// registry, not prometheus.DefaultRegisterer.
func New(registry prometheus.Registerer) *Metrics {
	f := promauto.With(registry)
	return &Metrics{
		CommitsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "explorer_offer_commits_total",
			Help: "Offer writes by backend, migration intent and result",
		}, []string{"backend", "intent", "result"}),
		CommitDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "explorer_offer_commit_duration_seconds",
			Help:    "Time spent writing an offer, including the follow-up read",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"backend"}),
		Recoveries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "explorer_offer_method_not_allowed_recoveries_total",
			Help: "Management-plane writes rejected as not allowed and recovered by a read",
		}, []string{"api"}),
		ConsoleEntries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "explorer_console_entries_total",
			Help: "Console notifications by level",
		}, []string{"level"}),
		PendingOffers: f.NewGauge(prometheus.GaugeOpts{
			Name: "explorer_offers_replace_pending",
			Help: "Cached offers whose replace is still pending",
		}),
		ReconcileTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "explorer_reconcile_offers_total",
			Help: "Pending offers re-read by the reconciler",
		}),
		ReconcileErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "explorer_reconcile_errors_total",
			Help: "Failed pending-offer re-reads",
		}),
		ReconcileSettled: f.NewCounter(prometheus.CounterOpts{
			Name: "explorer_reconcile_settled_total",
			Help: "Pending offers observed to have finished replacing",
		}),
		SettingsSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "explorer_settings_sessions",
			Help: "Open settings sessions",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// RecordCommit records one offer write.
func (m *Metrics) RecordCommit(backend, intent string, d time.Duration, success bool) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "error"
	}
	m.CommitsTotal.WithLabelValues(backend, intent, result).Inc()
	m.CommitDuration.WithLabelValues(backend).Observe(d.Seconds())
}

func (m *Metrics) RecordRecovery(api string) {
	if m == nil {
		return
	}
	m.Recoveries.WithLabelValues(api).Inc()
}

func (m *Metrics) RecordConsole(level string) {
	if m == nil {
		return
	}
	m.ConsoleEntries.WithLabelValues(level).Inc()
}

// RecordReconcile records one reconciler pass over the pending offers.
func (m *Metrics) RecordReconcile(pending, failed, settled int) {
	if m == nil {
		return
	}
	m.PendingOffers.Set(float64(pending))
	m.ReconcileTotal.Add(float64(pending))
	m.ReconcileErrors.Add(float64(failed))
	m.ReconcileSettled.Add(float64(settled))
}

func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.SettingsSessions.Set(float64(n))
}
