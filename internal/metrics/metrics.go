// Package metrics exposes Prometheus counters for the game loop and the HTTP
// shell.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	combinationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fractal_combinations_total",
			Help: "Total number of combine attempts by outcome.",
		},
		[]string{"outcome"},
	)

	discoveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fractal_discoveries_total",
			Help: "Total number of first-time discoveries by how the rule matched.",
		},
		[]string{"kind"},
	)

	mysteriesSolvedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fractal_mysteries_solved_total",
		Help: "Total number of daily mysteries solved.",
	})

	persistenceFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fractal_persistence_failures_total",
			Help: "Total number of failed store writes by operation.",
		},
		[]string{"operation"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fractal_http_requests_total",
			Help: "Total number of HTTP requests by route and status.",
		},
		[]string{"method", "route", "status"},
	)
)

// Combination counts one combine attempt.
func Combination(outcome string) {
	combinationsTotal.WithLabelValues(outcome).Inc()
}

// Discovery counts one first-time discovery.
func Discovery(kind string) {
	discoveriesTotal.WithLabelValues(kind).Inc()
}

// MysterySolved counts one solved daily mystery.
func MysterySolved() {
	mysteriesSolvedTotal.Inc()
}

// PersistenceFailure counts a store write that was logged and skipped.
func PersistenceFailure(operation string) {
	persistenceFailuresTotal.WithLabelValues(operation).Inc()
}

// HTTPRequest counts one handled request.
func HTTPRequest(method, route, status string) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
