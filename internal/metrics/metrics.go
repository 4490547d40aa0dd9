// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "travelexpense"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)
)

var (
	// RegulationSavesTotal counts regulation saves by outcome: created, revised, updated, proposed, failed.
	RegulationSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regulation_saves_total",
			Help:      "Total number of regulation saves",
		},
		[]string{"result"},
	)

	RegulationRevisionConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regulation_revision_conflicts_total",
			Help:      "Total number of revision confirmations rejected because the chain moved",
		},
	)

	RegulationChainRepairsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regulation_chain_repairs_total",
			Help:      "Total number of regulation chains whose latest flag was repaired",
		},
	)
)

var (
	NotificationsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_published_total",
			Help:      "Total number of notifications pushed to the queue",
		},
		[]string{"result"},
	)

	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Total number of login attempts",
		},
		[]string{"result"},
	)
)

func RecordHTTPRequest(method, path, status string, seconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

func RecordRegulationSave(result string) {
	RegulationSavesTotal.WithLabelValues(result).Inc()
}

func RecordNotificationPublished(ok bool) {
	if ok {
		NotificationsPublishedTotal.WithLabelValues("success").Inc()
		return
	}
	NotificationsPublishedTotal.WithLabelValues("failed").Inc()
}

func RecordLogin(result string) {
	LoginAttemptsTotal.WithLabelValues(result).Inc()
}
