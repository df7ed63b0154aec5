// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, the connected-users view, and the built-in test page.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Tyrowin/gochat-relay/internal/relay"
)

// RelayView is the read-only side of the relay used by the HTTP endpoints.
type RelayView interface {
	ClientCount() int
	Users() relay.UsersAck
}

// Handlers groups the HTTP handlers and what they need.
type Handlers struct {
	hub      *Hub
	view     RelayView
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewHandlers creates the HTTP handlers for hub. The WebSocket upgrader
// enforces the configured origin policy.
func NewHandlers(hub *Hub, view RelayView, cfg Config, log *slog.Logger) *Handlers {
	policy := newOriginPolicy(cfg.Origins(), log)
	return &Handlers{
		hub:  hub,
		view: view,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     policy.check,
		},
		log: log,
	}
}

// WebSocket upgrades the request and hands the new client to the hub, which
// registers it with the relay and starts its pumps.
func (h *Handlers) WebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written the error response.
		h.log.Warn("WebSocket upgrade failed", "addr", c.Request.RemoteAddr, "error", err)
		return
	}

	client := NewClient(conn, h.hub, c.Request.RemoteAddr)
	if !h.hub.Register(client) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server is shutting down"))
		client.closeConnection()
	}
}

// Health reports that the server is running and how many clients are connected.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"clients": h.view.ClientCount(),
	})
}

// Users returns the connected users in the same shape as a get-users reply.
func (h *Handlers) Users(c *gin.Context) {
	c.JSON(http.StatusOK, h.view.Users())
}

// TestPage serves an HTML page for trying the relay from a browser.
func (h *Handlers) TestPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(testPageHTML))
}
