package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Connection Metrics
var (
	// ConnectionsCurrent tracks number of live connections in the broker registry
	ConnectionsCurrent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "linechat_connections_current",
			Help: "Current number of live connections",
		},
	)

	// ConnectionsTotal tracks accepted connections by transport (tcp/websocket)
	ConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linechat_connections_total",
			Help: "Total accepted connections by transport",
		},
		[]string{"transport"},
	)

	// ConnectionsRejected tracks connections closed right after accept because of the connection limit
	ConnectionsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linechat_connections_rejected_total",
			Help: "Total connections rejected by the connection limit",
		},
	)

	// AcceptErrors tracks failed accept iterations
	AcceptErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linechat_accept_errors_total",
			Help: "Total failed accept iterations",
		},
	)

	// ConnectionErrors tracks errors reported by connections by kind (receive/send/close)
	ConnectionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linechat_connection_errors_total",
			Help: "Total connection errors by kind",
		},
		[]string{"kind"},
	)
)

// Broadcast Metrics
var (
	// LinesReceived tracks lines received from peers
	LinesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linechat_lines_received_total",
			Help: "Total lines received from peers",
		},
	)

	// BroadcastsTotal tracks broadcasts by kind (message/join/leave)
	BroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linechat_broadcasts_total",
			Help: "Total broadcasts by kind",
		},
		[]string{"kind"},
	)

	// DeliveriesTotal tracks single line deliveries by status (ok/failed)
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linechat_deliveries_total",
			Help: "Total line deliveries to peers by status",
		},
		[]string{"status"},
	)

	// BroadcastDuration tracks time spent to fan-out one line to all live connections
	BroadcastDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "linechat_broadcast_duration_seconds",
			Help:    "Time to deliver one line to all live connections",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
)
