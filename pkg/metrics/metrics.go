// Package metrics exposes Prometheus instrumentation for the tree service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TreeRequests counts /tree requests by outcome.
	TreeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foldview",
		Subsystem: "server",
		Name:      "tree_requests_total",
		Help:      "Tree expansion requests handled, by status.",
	}, []string{"status"})

	// TreeDuration observes end-to-end /tree handling time.
	TreeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "foldview",
		Subsystem: "server",
		Name:      "tree_request_duration_seconds",
		Help:      "Time spent building and encoding a tree response.",
		Buckets:   prometheus.DefBuckets,
	})

	// TreeItems observes how many entries a single response carried.
	TreeItems = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "foldview",
		Subsystem: "server",
		Name:      "tree_response_items",
		Help:      "Entries returned per tree response.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	})

	// DirsListed observes how many directory listings one traversal needed.
	DirsListed = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "foldview",
		Subsystem: "server",
		Name:      "tree_dirs_listed",
		Help:      "Directory listings performed per tree traversal.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
