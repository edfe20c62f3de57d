package ws

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "watchtogether_ws_active_connections",
		Help: "Number of currently open WebSocket connections.",
	})

	eventsBroadcast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "watchtogether_ws_events_broadcast_total",
		Help: "Playback and membership events broadcast to rooms, by type.",
	}, []string{"type"})

	droppedSends = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watchtogether_ws_dropped_sends_total",
		Help: "Messages dropped because a member's send buffer was full.",
	})
)
