/*
Package metrics provides Prometheus metrics collection and exposition for the
store, command, persistence and session layers.

All metrics are registered at package init via prometheus.MustRegister and
exposed through Handler, for embedding applications that choose to mount a
scrape endpoint — the line protocol server itself never serves HTTP.

# Metrics Catalog

Store gauges, refreshed periodically by Collector:

mumpsdb_globals_total:
  - Type: Gauge
  - Description: Number of live globals in the store

mumpsdb_nodes_total:
  - Type: Gauge
  - Description: Number of non-null data nodes across all globals

mumpsdb_index_entries_total:
  - Type: Gauge
  - Description: (global, value) path hints held by the value index

mumpsdb_query_cache_entries:
  - Type: Gauge
  - Description: Entries currently held in the store-level query cache

Command metrics:

mumpsdb_commands_total{verb, outcome}:
  - Type: Counter
  - Description: Commands processed, labeled by verb and outcome (ok|error)

mumpsdb_command_duration_seconds{verb}:
  - Type: Histogram
  - Description: Command execution latency by verb

Session gauges:

mumpsdb_active_sessions:
  - Type: Gauge
  - Description: Currently open client connections (socket + console)

mumpsdb_active_transactions:
  - Type: Gauge
  - Description: Sessions currently holding an open transaction

Persistence metrics:

mumpsdb_snapshot_duration_seconds:
  - Type: Histogram
  - Description: Time to write a full snapshot

mumpsdb_snapshots_total{outcome}:
  - Type: Counter
  - Description: Snapshots written, by outcome (ok|error)

mumpsdb_aof_records_total:
  - Type: Counter
  - Description: Operation records appended to the AOF

mumpsdb_aof_errors_total:
  - Type: Counter
  - Description: AOF write failures; in-memory state remains authoritative

mumpsdb_aof_replayed_records_total:
  - Type: Counter
  - Description: AOF records successfully replayed at startup

Collaborator metrics:

mumpsdb_embedding_unavailable_total:
  - Type: Counter
  - Description: SIMSEARCH calls that degraded to empty results because the
    embedder was unavailable or disabled

# Usage

	import "github.com/cuemby/mumpsdb/pkg/metrics"

	metrics.GlobalsTotal.Set(42)
	metrics.CommandsTotal.WithLabelValues("SET", "ok").Inc()

	timer := metrics.NewTimer()
	// ... execute command ...
	timer.ObserveDurationVec(metrics.CommandDuration, "SET")

	http.Handle("/metrics", metrics.Handler())

# See Also

  - Prometheus client library: https://github.com/prometheus/client_golang
*/
package metrics
