package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10

	// Clients never send events; only control frames are expected.
	maxMessageSize = 512
	sendBuffer     = 256
)

// Client is one live connection bound to an authenticated account.
type Client struct {
	id        string
	accountID string
	conn      *websocket.Conn
	hub       *Hub
	send      chan []byte
	stop      chan struct{}
	stopOnce  sync.Once
	log       zerolog.Logger
}

func NewClient(accountID string, conn *websocket.Conn, hub *Hub, log zerolog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:        id,
		accountID: accountID,
		conn:      conn,
		hub:       hub,
		send:      make(chan []byte, sendBuffer),
		stop:      make(chan struct{}),
		log:       log.With().Str("conn_id", id).Str("user_id", accountID).Logger(),
	}
}

func (c *Client) ID() string        { return c.id }
func (c *Client) AccountID() string { return c.accountID }

// Serve registers the client, runs the write loop in the background and
// blocks in the read loop until the connection goes away.
func (c *Client) Serve() {
	c.hub.HandleConnect(c)
	go c.writeLoop()
	c.readLoop()
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			if !c.write(websocket.TextMessage, payload) {
				return
			}
		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}
		case <-c.stop:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Client) readLoop() {
	defer func() {
		c.hub.HandleDisconnect(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("ws read failed")
			}
			return
		}
		// Inbound frames carry no events and are discarded.
	}
}

func (c *Client) write(msgType int, payload []byte) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(msgType, payload); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway,
			websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
			c.log.Warn().Err(err).Msg("ws write failed")
		}
		return false
	}
	return true
}

// queue hands a payload to the write loop without blocking. It reports false
// when the buffer is full or the client is closing.
func (c *Client) queue(payload []byte) bool {
	select {
	case <-c.stop:
		return false
	default:
	}

	select {
	case c.send <- payload:
		return true
	default:
		c.log.Warn().Msg("send buffer full, dropping event")
		return false
	}
}

func (c *Client) close() {
	c.stopOnce.Do(func() { close(c.stop) })
}
