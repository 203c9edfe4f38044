/*
Package metrics exposes the engine's Prometheus instrumentation.  Collectors
are registered once on the default registry via promauto; the serve command
mounts promhttp on /metrics.
*/
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "a2a_events_enqueued_total",
		Help: "Events accepted onto a task event queue.",
	})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "a2a_events_dropped_total",
		Help: "Events dropped because a queue buffer was full.",
	})

	RPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "a2a_rpc_requests_total",
		Help: "JSON-RPC requests handled, by method and outcome.",
	}, []string{"method", "outcome"})

	PushNotifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "a2a_push_notifications_total",
		Help: "Webhook notification deliveries, by outcome.",
	}, []string{"outcome"})

	StreamSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "a2a_stream_subscribers",
		Help: "Live SSE subscriptions.",
	})
)
