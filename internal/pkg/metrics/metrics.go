// Package metrics defines and registers all custom Prometheus metrics for the
// chat service. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation and exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chat"

// ── Message metrics ───────────────────────────────────────────────────────────

// MessagesSentTotal counts messages persisted by the send endpoint.
// Label:
//   - kind: "text", "image" or "mixed"
var MessagesSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_sent_total",
		Help:      "Total number of direct messages persisted.",
	},
	[]string{"kind"},
)

// MessagePersistDuration measures the Message Store append call.
// Label:
//   - result: "ok" or "error"
var MessagePersistDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "message_persist_duration_seconds",
		Help:      "Duration of message persistence.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// ── Delivery metrics ──────────────────────────────────────────────────────────

// LivePushTotal counts live push attempts.
// Label:
//   - result: "delivered", "offline", "dropped" (connection buffer full) or
//     "queue_full" (dispatcher worker buffer full)
var LivePushTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "live_push_total",
		Help:      "Total number of live push attempts, labelled by result.",
	},
	[]string{"result"},
)

// DeliveryQueueDepth tracks pending pushes in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var DeliveryQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "delivery_queue_depth",
		Help:      "Current number of pushes pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Presence metrics ──────────────────────────────────────────────────────────

// OnlineUsers is the size of the presence snapshot.
var OnlineUsers = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "online_users",
		Help:      "Number of accounts with an active connection.",
	},
)

// OpenConnections is the number of open WebSocket connections.
var OpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "open_connections",
		Help:      "Number of open live connections.",
	},
)

// PresenceBroadcastsTotal counts getOnlineUsers fan-outs.
// Label:
//   - reason: "connect" or "disconnect"
var PresenceBroadcastsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "presence_broadcasts_total",
		Help:      "Total number of online-user broadcasts, by trigger.",
	},
	[]string{"reason"},
)

// ── Account metrics ───────────────────────────────────────────────────────────

// SignupsTotal counts newly created accounts.
var SignupsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of accounts created.",
	},
)
