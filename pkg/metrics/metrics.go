// Package metrics exposes Prometheus gauges, counters and histograms for
// the store, persistence and session layers.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Store metrics
	GlobalsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mumpsdb_globals_total",
		Help: "Number of live globals in the store",
	})

	NodesTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mumpsdb_nodes_total",
		Help: "Number of non-null data nodes across all globals",
	})

	IndexSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mumpsdb_index_entries_total",
		Help: "Number of (global, value) path hints held by the value index",
	})

	CacheSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mumpsdb_query_cache_entries",
		Help: "Number of entries currently held in the store-level query cache",
	})

	// Command metrics
	CommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mumpsdb_commands_total",
		Help: "Commands processed, by verb and outcome (ok|error)",
	}, []string{"verb", "outcome"})

	CommandDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mumpsdb_command_duration_seconds",
		Help:    "Command execution latency by verb",
		Buckets: prometheus.DefBuckets,
	}, []string{"verb"})

	// Session metrics
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mumpsdb_active_sessions",
		Help: "Currently open client connections (socket + console)",
	})

	ActiveTransactions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mumpsdb_active_transactions",
		Help: "Sessions currently holding an open transaction",
	})

	// Persistence metrics
	SnapshotDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mumpsdb_snapshot_duration_seconds",
		Help:    "Time to write a full snapshot",
		Buckets: prometheus.DefBuckets,
	})

	SnapshotsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mumpsdb_snapshots_total",
		Help: "Snapshots written, by outcome (ok|error)",
	}, []string{"outcome"})

	AOFRecordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mumpsdb_aof_records_total",
		Help: "Operation records appended to the AOF",
	})

	AOFErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mumpsdb_aof_errors_total",
		Help: "AOF write failures (non-fatal; in-memory state remains authoritative)",
	})

	ReplayedRecordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mumpsdb_aof_replayed_records_total",
		Help: "AOF records successfully replayed at startup",
	})

	// Collaborator metrics
	EmbeddingUnavailableTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mumpsdb_embedding_unavailable_total",
		Help: "SIMSEARCH calls that degraded to empty results because the embedder was unavailable or disabled",
	})
)

func init() {
	prometheus.MustRegister(
		GlobalsTotal,
		NodesTotal,
		IndexSize,
		CacheSize,
		CommandsTotal,
		CommandDuration,
		ActiveSessions,
		ActiveTransactions,
		SnapshotDuration,
		SnapshotsTotal,
		AOFRecordsTotal,
		AOFErrorsTotal,
		ReplayedRecordsTotal,
		EmbeddingUnavailableTotal,
	)
}

// Handler returns the Prometheus HTTP handler, exposed only if the
// embedding application chooses to mount it — the core's own line
// protocol never serves HTTP.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

func NewTimer() *Timer { return &Timer{start: time.Now()} }

func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
