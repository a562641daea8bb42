package pot

import "github.com/prometheus/client_golang/prometheus"

var (
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tarpitd",
			Subsystem: "pot",
			Name:      "active_sessions",
			Help:      "Streaming sessions currently holding a slot",
		},
	)

	sessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tarpitd",
			Subsystem: "pot",
			Name:      "sessions_total",
			Help:      "Completed sessions by outcome",
		},
		[]string{"outcome"},
	)

	bytesSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tarpitd",
			Subsystem: "pot",
			Name:      "bytes_sent_total",
			Help:      "Total filler bytes written to clients",
		},
	)

	rejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tarpitd",
			Subsystem: "pot",
			Name:      "rejected_total",
			Help:      "Connections rejected by the session bound",
		},
	)
)

func init() {
	prometheus.MustRegister(activeSessions, sessionsTotal, bytesSentTotal, rejectedTotal)
}
