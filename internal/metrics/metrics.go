package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for the sync daemon
type MetricsRegistry struct {
	// Sync job metrics
	SyncRecordsFetched *prometheus.CounterVec
	SyncRowsUpserted   *prometheus.CounterVec
	SyncRecordsDropped *prometheus.CounterVec
	SyncJobDuration    *prometheus.HistogramVec
	SyncJobFailures    *prometheus.CounterVec
	SyncJobLastSuccess *prometheus.GaugeVec

	// Ops HTTP metrics
	HTTPRequestsTotal *prometheus.CounterVec
}

// NewMetricsRegistry initializes and returns a new MetricsRegistry with all metrics
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		SyncRecordsFetched: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleetsync_records_fetched_total",
				Help: "Records fetched from upstream providers, after identifier filtering",
			},
			[]string{"job"},
		),
		SyncRowsUpserted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleetsync_rows_upserted_total",
				Help: "Rows written to the store per job and entity",
			},
			[]string{"job", "entity"},
		),
		SyncRecordsDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleetsync_records_dropped_total",
				Help: "Upstream records dropped for missing identifiers",
			},
			[]string{"job"},
		),
		SyncJobDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fleetsync_job_duration_seconds",
				Help:    "Wall time of one sync job run",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"job"},
		),
		SyncJobFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleetsync_job_failures_total",
				Help: "Sync job runs that ended in an error",
			},
			[]string{"job"},
		),
		SyncJobLastSuccess: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fleetsync_job_last_success_timestamp_seconds",
				Help: "Unix time of the last successful run per job",
			},
			[]string{"job"},
		),
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleetsync_http_requests_total",
				Help: "Ops endpoint requests by path and status code",
			},
			[]string{"path", "status_code"},
		),
	}
}
