package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SessionsStarted counts soft AP sessions created by the daemon.
	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "softapd",
			Name:      "sessions_started_total",
			Help:      "Total number of soft AP sessions created",
		},
		[]string{"mode"},
	)

	// SessionActive reports whether a soft AP session currently exists.
	SessionActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "softapd",
			Name:      "session_active",
			Help:      "1 when a soft AP session exists, 0 otherwise",
		},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers the daemon-level metrics with the global
// Prometheus registry. Idempotent.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(SessionsStarted)
		prometheus.DefaultRegisterer.Register(SessionActive)
	})
}
