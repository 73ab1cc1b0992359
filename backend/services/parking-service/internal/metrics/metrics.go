package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Session lifecycle metrics
	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parking_sessions_started_total",
			Help: "Parking sessions started",
		},
		[]string{"zone"},
	)

	SessionsExtended = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parking_sessions_extended_total",
			Help: "Parking session extensions",
		},
		[]string{"zone"},
	)

	SessionsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parking_sessions_finished_total",
			Help: "Parking sessions that reached a terminal state",
		},
		[]string{"status"},
	)

	RevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parking_revenue_total",
			Help: "Amount charged, in currency units",
		},
		[]string{"zone"},
	)

	OperationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parking_operation_errors_total",
			Help: "Rejected or failed session manager operations",
		},
		[]string{"operation", "kind"},
	)

	// Notification metrics
	RemindersDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parking_reminders_dispatched_total",
			Help: "Reminders handed to the message broker",
		},
		[]string{"kind", "result"},
	)

	// Connection metrics
	CountdownConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parking_countdown_connections",
			Help: "Open websocket countdown feeds",
		},
	)
)

func init() {
	prometheus.MustRegister(
		SessionsStarted,
		SessionsExtended,
		SessionsFinished,
		RevenueTotal,
		OperationErrors,
		RemindersDispatched,
		CountdownConnections,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
