package realtime

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/chat-system/internal/core/domain"
	"github.com/sirpyerre/chat-system/internal/pkg/metrics"
)

// Hub owns the presence registry and every open connection. Registry
// mutation, snapshot and presence fan-out happen under one lock so no
// broadcast is computed from a stale view.
type Hub struct {
	mu       sync.Mutex
	registry *Registry
	clients  map[string]*Client // conn id -> client, includes replaced sessions
	log      zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		registry: NewRegistry(),
		clients:  make(map[string]*Client),
		log:      log,
	}
}

// HandleConnect records the client's account as online and announces the new
// online list to every connection.
func (h *Hub) HandleConnect(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.id] = c
	if prev, replaced := h.registry.Record(c.accountID, c.id); replaced {
		h.log.Debug().
			Str("user_id", c.accountID).
			Str("previous_conn_id", prev).
			Str("conn_id", c.id).
			Msg("session replaced by newer connection")
	}
	h.observeLocked()
	h.broadcastPresenceLocked("connect")
}

// HandleDisconnect drops the client and re-announces the online list. Calling
// it twice for the same client is a no-op.
func (h *Hub) HandleDisconnect(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	h.registry.Remove(c.id)
	c.close()

	h.observeLocked()
	h.broadcastPresenceLocked("disconnect")
}

// Push queues a newMessage event on the receiver's current connection.
func (h *Hub) Push(_ context.Context, receiverID string, msg *domain.Message) error {
	payload, err := encodeEvent(EventNewMessage, msg)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	connID, ok := h.registry.Lookup(receiverID)
	if !ok {
		metrics.LivePushTotal.WithLabelValues("offline").Inc()
		return domain.ErrReceiverOffline
	}
	c, ok := h.clients[connID]
	if !ok {
		metrics.LivePushTotal.WithLabelValues("offline").Inc()
		return domain.ErrReceiverOffline
	}
	if !c.queue(payload) {
		metrics.LivePushTotal.WithLabelValues("dropped").Inc()
		return domain.ErrPushDropped
	}
	metrics.LivePushTotal.WithLabelValues("delivered").Inc()
	return nil
}

// Online returns the ids of the accounts with an active connection.
func (h *Hub) Online() []string {
	return h.registry.Snapshot()
}

// Connections returns the number of open connections.
func (h *Hub) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown asks every connection to close. Each read loop then reports its
// own disconnect.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		c.close()
	}
}

func (h *Hub) broadcastPresenceLocked(reason string) {
	payload, err := encodeEvent(EventOnlineUsers, h.registry.Snapshot())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to encode online users")
		return
	}
	metrics.PresenceBroadcastsTotal.WithLabelValues(reason).Inc()

	for _, c := range h.clients {
		// A full buffer only costs that connection the update.
		c.queue(payload)
	}
}

func (h *Hub) observeLocked() {
	metrics.OpenConnections.Set(float64(len(h.clients)))
	metrics.OnlineUsers.Set(float64(h.registry.Len()))
}
