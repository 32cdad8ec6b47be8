package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// WSConnections tracks the number of live realtime connections.
	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cliptag_ws_connections",
		Help: "Current number of open websocket connections.",
	})

	// BroadcastEvents counts fan-out events by event type.
	BroadcastEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cliptag_broadcast_events_total",
		Help: "Events broadcast to rooms, by type.",
	}, []string{"type"})

	// SweepEvictions counts TTL evictions by content class.
	SweepEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cliptag_sweep_evictions_total",
		Help: "Entries removed by the TTL sweep, by class.",
	}, []string{"class"})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
