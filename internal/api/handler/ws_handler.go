package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/chat-system/internal/realtime"
)

// WSHandler upgrades authenticated requests to live connections.
type WSHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewWSHandler accepts upgrades from allowedOrigins. "*" accepts any origin;
// an empty list only accepts the server's own host.
func NewWSHandler(hub *realtime.Hub, allowedOrigins []string, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log,
	}
}

// Connect serves GET /ws. The connection identity is the session account,
// never a client supplied value.
//
// @Summary      Open the live channel
// @Description  Server events: getOnlineUsers (sorted account ids), newMessage (message).
// @Tags         realtime
// @Security     CookieAuth
// @Success      101  {string}  string  "Switching Protocols"
// @Failure      401  {object}  errorResponse
// @Router       /ws [get]
func (h *WSHandler) Connect(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader already wrote the HTTP error.
		h.log.Warn().Err(err).Str("user_id", user.ID).Msg("ws upgrade failed")
		return nil
	}

	realtime.NewClient(user.ID, conn, h.hub, h.log).Serve()
	return nil
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[strings.ToLower(o)] = struct{}{}
		}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if len(set) == 0 {
			u, err := url.Parse(origin)
			return err == nil && strings.EqualFold(u.Host, r.Host)
		}
		_, ok := set[strings.ToLower(origin)]
		return ok
	}
}
