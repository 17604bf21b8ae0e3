// Package metrics exposes the engine server's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ssdeepviz",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"route", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ssdeepviz",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
	}, []string{"route"})

	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ssdeepviz",
		Subsystem: "engine",
		Name:      "sessions_created_total",
		Help:      "Hash sessions created.",
	})

	BytesStepped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ssdeepviz",
		Subsystem: "engine",
		Name:      "bytes_stepped_total",
		Help:      "Bytes fed to hash engines.",
	})

	Triggers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ssdeepviz",
		Subsystem: "engine",
		Name:      "triggers_total",
		Help:      "Trigger points hit, by granularity.",
	}, []string{"granularity"})

	SessionsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ssdeepviz",
		Subsystem: "engine",
		Name:      "sessions_pruned_total",
		Help:      "Idle hash sessions removed.",
	})

	StreamConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ssdeepviz",
		Subsystem: "stream",
		Name:      "connections",
		Help:      "Open websocket engine streams.",
	})
)

// ObserveStep records one engine step and its trigger flags.
func ObserveStep(trigger1, trigger2 bool) {
	BytesStepped.Inc()
	if trigger1 {
		Triggers.WithLabelValues("primary").Inc()
	}
	if trigger2 {
		Triggers.WithLabelValues("secondary").Inc()
	}
}
