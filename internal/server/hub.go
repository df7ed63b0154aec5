// Package server coordinates client registration, event delivery, and
// connection cleanup for the relay's WebSocket transport via the Hub type.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// EventHandler receives connection lifecycle callbacks and client events
// from the hub. *relay.Relay implements it.
type EventHandler interface {
	OnConnect(id string, handle any) error
	OnDisconnect(id string)
	Dispatch(senderID, event string, data json.RawMessage) (any, error)
}

type nopHandler struct{}

func (nopHandler) OnConnect(string, any) error { return nil }
func (nopHandler) OnDisconnect(string)         {}
func (nopHandler) Dispatch(string, string, json.RawMessage) (any, error) {
	return nil, nil
}

// Hub manages all WebSocket client connections and delivers events to them.
// Registration and unregistration are processed by Run; sends may come from
// any goroutine and are protected by the mutex.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	handler    EventHandler
	cfg        Config
	log        *slog.Logger
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	startOnce  sync.Once
	started    chan struct{}
}

// NewHub creates and initializes a new Hub instance. Call SetHandler before Run.
func NewHub(cfg Config, log *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		handler:    nopHandler{},
		cfg:        cfg,
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		started:    make(chan struct{}),
	}
}

// SetHandler installs the receiver of lifecycle callbacks and client events.
func (h *Hub) SetHandler(handler EventHandler) {
	h.handler = handler
}

// Register hands a freshly upgraded client to the hub. It returns false if
// the hub is shutting down.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) unregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// ClientCount returns the number of clients the hub currently delivers to.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) safeSend(client *Client, message []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("Recovered from panic in safeSend", "panic", r)
		}
	}()

	// Hold the lock during the entire send operation to prevent race conditions
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	// Check if client is still registered and not closed
	if current, exists := h.clients[client.id]; !exists || current != client || client.closed {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// Run starts the hub's main event loop, handling client registration and
// unregistration. It runs until Shutdown is called.
func (h *Hub) Run() {
	defer close(h.done)
	h.startOnce.Do(func() { close(h.started) })

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				h.log.Warn("Received nil client registration; skipping")
				continue
			}
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.mutex.Lock()
	client.closed = false
	h.clients[client.id] = client
	clientCount := len(h.clients)
	h.mutex.Unlock()
	h.log.Debug("Client registered", "id", client.id, "addr", client.addr, "clients", clientCount)

	if err := h.handler.OnConnect(client.id, client); err != nil {
		h.log.Error("Rejecting client", "id", client.id, "error", err)
		h.removeClients([]*Client{client})
		client.closeConnection()
		return
	}

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

// handleUnregister drops the client and reports the disconnect. The relay is
// told even when the hub already dropped the client for a full buffer, so
// the registry never keeps an entry for a closed session.
func (h *Hub) handleUnregister(client *Client) {
	h.removeClients([]*Client{client})
	h.log.Debug("Client unregistered", "id", client.id, "addr", client.addr, "clients", h.ClientCount())
	h.handler.OnDisconnect(client.id)
}

// Send delivers one event to the client with the given id.
func (h *Hub) Send(id string, event string, payload any) {
	frame, err := encodeEnvelope(event, payload, nil)
	if err != nil {
		h.log.Error("Failed to encode event", "event", event, "error", err)
		return
	}

	h.mutex.RLock()
	client, ok := h.clients[id]
	h.mutex.RUnlock()
	if !ok {
		return
	}

	if !h.safeSend(client, frame) {
		h.removeFailedClients([]*Client{client})
	}
}

// BroadcastExcept delivers an event to every client except senderID.
func (h *Hub) BroadcastExcept(senderID string, event string, payload any) {
	frame, err := encodeEnvelope(event, payload, nil)
	if err != nil {
		h.log.Error("Failed to encode event", "event", event, "error", err)
		return
	}

	clients := h.getClientSnapshot()
	targetCount := h.calculateTargetCount(clients, senderID)
	h.log.Debug("Broadcasting event", "event", event, "targets", targetCount)

	clientsToRemove := h.broadcastToClients(clients, senderID, frame)
	h.removeFailedClients(clientsToRemove)
}

// BroadcastAll delivers an event to every client.
func (h *Hub) BroadcastAll(event string, payload any) {
	h.BroadcastExcept("", event, payload)
}

// CloseAll detaches every client. Each write pump flushes what is already
// queued, sends a close frame and closes its socket.
func (h *Hub) CloseAll() {
	clients := h.getClientSnapshot()
	h.removeClients(clients)
	h.log.Info("Closing all client sessions", "clients", len(clients))
}

// reply queues the direct answer to an inbound event on the sender's own
// connection.
func (h *Hub) reply(client *Client, event string, ack *int64, payload any) {
	frame, err := encodeEnvelope(event, payload, ack)
	if err != nil {
		h.log.Error("Failed to encode reply", "event", event, "error", err)
		return
	}
	if !h.safeSend(client, frame) {
		h.removeFailedClients([]*Client{client})
	}
}

// getClientSnapshot returns a thread-safe snapshot of all current clients
func (h *Hub) getClientSnapshot() []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

// calculateTargetCount determines how many clients will receive the broadcast
func (h *Hub) calculateTargetCount(clients []*Client, senderID string) int {
	targetCount := len(clients)
	if senderID == "" {
		return targetCount
	}
	for _, client := range clients {
		if client.id == senderID {
			targetCount--
			break
		}
	}
	return targetCount
}

// broadcastToClients sends the frame to all clients except the sender and returns failed clients
func (h *Hub) broadcastToClients(clients []*Client, senderID string, frame []byte) []*Client {
	var clientsToRemove []*Client

	for _, client := range clients {
		if senderID != "" && client.id == senderID {
			continue
		}
		if !h.safeSend(client, frame) {
			clientsToRemove = append(clientsToRemove, client)
		}
	}

	return clientsToRemove
}

// removeFailedClients drops clients whose send buffer is full. Their write
// pumps close the sockets, and the read pumps then report the disconnect.
func (h *Hub) removeFailedClients(clientsToRemove []*Client) {
	for _, client := range h.removeClients(clientsToRemove) {
		h.log.Warn("Client removed due to full send buffer", "id", client.id, "addr", client.addr)
	}
}

// removeClients deletes the given clients from the hub and closes their send
// channels. It returns the clients that were still registered.
func (h *Hub) removeClients(clients []*Client) []*Client {
	if len(clients) == 0 {
		return nil
	}

	h.mutex.Lock()
	var removed []*Client
	for _, client := range clients {
		if current, exists := h.clients[client.id]; exists && current == client {
			delete(h.clients, client.id)
			client.closed = true
			removed = append(removed, client)
		}
	}
	h.mutex.Unlock()

	// Close channels after releasing the lock
	for _, client := range removed {
		close(client.send)
	}
	return removed
}

// shutdownClients closes every remaining client connection
func (h *Hub) shutdownClients() {
	h.log.Info("Shutting down all client connections...")

	clients := h.getClientSnapshot()
	h.removeClients(clients)

	for _, client := range clients {
		client.closeConnection()
	}

	h.log.Info("Closed client connections", "clients", len(clients))
}

// Shutdown stops the hub and waits for all client goroutines to complete.
// It returns context.DeadlineExceeded if they have not finished within timeout.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("Initiating hub shutdown...")

	h.cancel()

	deadline := time.After(timeout)

	select {
	case <-h.started:
		select {
		case <-h.done:
		case <-deadline:
			h.log.Warn("Hub shutdown timeout reached before the event loop stopped")
			return context.DeadlineExceeded
		}
	default:
		// Run was never started
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("Hub shutdown completed successfully")
		return nil
	case <-deadline:
		h.log.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
