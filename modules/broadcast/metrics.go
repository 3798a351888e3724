package broadcast

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "taskboard_connected_clients",
			Help: "Number of admitted realtime connections.",
		},
	)

	onlineUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "taskboard_online_users",
			Help: "Number of identities in the presence map.",
		},
	)

	relayedEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_events_relayed_total",
			Help: "Events relayed to connected clients, by event name.",
		},
		[]string{"event"},
	)

	droppedWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taskboard_dropped_writes_total",
			Help: "Relay writes dropped because the connection failed.",
		},
	)
)
