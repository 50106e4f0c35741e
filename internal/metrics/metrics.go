// Package metrics exposes Prometheus collectors for the news pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	recordsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newspipe_records_published_total",
			Help: "Records published to the queue topic, labeled by company and result.",
		},
		[]string{"company", "result"},
	)

	recordsConsumedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newspipe_records_consumed_total",
			Help: "Records read from the queue topic.",
		},
	)

	recordsPersistedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newspipe_records_persisted_total",
			Help: "Persistence coordinator outcomes, labeled by state.",
		},
		[]string{"outcome"},
	)

	enrichmentDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newspipe_enrichment_duration_seconds",
			Help:    "Latency of enrichment model calls, labeled by operation.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	fetchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newspipe_fetch_duration_seconds",
			Help:    "Latency of article content fetches, labeled by fetcher.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"fetcher"},
	)

	snapshotFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newspipe_snapshot_failures_total",
			Help: "Best-effort snapshot writes that failed.",
		},
	)

	activeWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newspipe_active_workers",
			Help: "Consumer workers currently processing a record.",
		},
	)
)

// Handler returns an http.Handler exposing the Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePublish counts a publish attempt for a company.
func ObservePublish(company string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	recordsPublishedTotal.WithLabelValues(company, result).Inc()
}

// ObserveConsume counts a record read from the topic.
func ObserveConsume() {
	recordsConsumedTotal.Inc()
}

// ObservePersist counts a persistence outcome.
func ObservePersist(outcome string) {
	recordsPersistedTotal.WithLabelValues(outcome).Inc()
}

// ObserveEnrichment records the duration of one model call.
func ObserveEnrichment(operation string, d time.Duration) {
	enrichmentDurationSeconds.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveFetch records the duration of one content fetch.
func ObserveFetch(fetcher string, d time.Duration) {
	fetchDurationSeconds.WithLabelValues(fetcher).Observe(d.Seconds())
}

// ObserveSnapshotFailure counts a failed best-effort snapshot write.
func ObserveSnapshotFailure() {
	snapshotFailuresTotal.Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	activeWorkers.Dec()
}
