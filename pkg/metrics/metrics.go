// Package metrics exposes Prometheus collectors for queries, traversals,
// loads and the HTTP surface.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/flavorlab/nutrigraph/pkg/types"
)

const (
	namespace = "nutrigraph"
)

var (
	// Query metrics
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "total",
			Help:      "Total number of engine queries by operation and outcome",
		},
		[]string{"operation", "status"},
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Engine query duration in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"operation"},
	)

	QueryResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "matched_records",
			Help:      "Records matched before pagination",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"operation"},
	)

	// Traversal metrics
	PathLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "path_length_hops",
			Help:      "Length of shortest paths found",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 6, 8},
		},
	)

	// Load metrics
	RecordsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "records_total",
			Help:      "Records accepted or rejected by bulk loads",
		},
		[]string{"kind", "result"},
	)

	StoreRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "records",
			Help:      "Number of records currently held in the store",
		},
		[]string{"kind"},
	)

	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "path"},
	)
)

// Status classifies an engine error for metric labels.
func Status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, types.ErrNotFound):
		return "not_found"
	case errors.Is(err, types.ErrNotConnected):
		return "not_connected"
	case errors.Is(err, types.ErrInvalidArgument):
		return "invalid_argument"
	}
	return "error"
}

// ObserveQuery records one engine operation.
func ObserveQuery(operation string, start time.Time, err error) {
	QueriesTotal.WithLabelValues(operation, Status(err)).Inc()
	QueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveLoad records the outcome of a bulk load.
func ObserveLoad(kind types.RecordKind, loaded, rejected int) {
	RecordsLoaded.WithLabelValues(string(kind), "loaded").Add(float64(loaded))
	RecordsLoaded.WithLabelValues(string(kind), "rejected").Add(float64(rejected))
}

// SetStoreSize publishes current table sizes.
func SetStoreSize(entities, relationships int) {
	StoreRecords.WithLabelValues(string(types.KindEntity)).Set(float64(entities))
	StoreRecords.WithLabelValues(string(types.KindRelationship)).Set(float64(relationships))
}
