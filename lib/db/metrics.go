package db

import (
	"io"

	"github.com/VictoriaMetrics/metrics"
)

// Operation counters of all database instances in this process.
var (
	metricFinds             = metrics.GetOrCreateCounter(`perfdb_find_total`)
	metricFindHits          = metrics.GetOrCreateCounter(`perfdb_find_hits_total`)
	metricStores            = metrics.GetOrCreateCounter(`perfdb_store_total`)
	metricUpdates           = metrics.GetOrCreateCounter(`perfdb_update_total`)
	metricFlushInPlace      = metrics.GetOrCreateCounter(`perfdb_flush_total{mode="inplace"}`)
	metricFlushRewrite      = metrics.GetOrCreateCounter(`perfdb_flush_total{mode="rewrite"}`)
	metricFlushAppend       = metrics.GetOrCreateCounter(`perfdb_flush_total{mode="append"}`)
	metricFlushErrors       = metrics.GetOrCreateCounter(`perfdb_flush_errors_total`)
	metricMalformedLines    = metrics.GetOrCreateCounter(`perfdb_malformed_lines_total`)
	metricDeserializeErrors = metrics.GetOrCreateCounter(`perfdb_deserialize_errors_total`)
)

// WriteMetrics writes all perfDB counters in Prometheus text format to w.
func WriteMetrics(w io.Writer) {
	metrics.WritePrometheus(w, false)
}
