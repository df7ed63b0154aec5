// Package relay implements the chat protocol on top of a connection registry:
// it reacts to connects, disconnects and client events, keeps the registry in
// step, and tells the transport what to deliver to whom.
package relay

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Tyrowin/gochat-relay/internal/registry"
	"github.com/samber/lo"
)

// ErrUnknownSender is returned when an event arrives from a connection the
// registry does not know about.
var ErrUnknownSender = errors.New("unknown sender")

// timestampLayout renders ISO-8601 UTC with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Relay fans chat events out to connected clients. All handlers are
// serialized by one mutex, so a handler's registry work and the sends it
// queues are never interleaved with another handler's.
type Relay struct {
	mu        sync.Mutex
	registry  *registry.Registry
	transport Transport
	log       *slog.Logger
	now       func() time.Time
}

// Option configures a Relay.
type Option func(*Relay)

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) {
		r.now = now
	}
}

// New creates a Relay that tracks connections in reg and delivers through t.
func New(reg *registry.Registry, t Transport, log *slog.Logger, opts ...Option) *Relay {
	r := &Relay{
		registry:  reg,
		transport: t,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Relay) timestamp() string {
	return r.now().UTC().Format(timestampLayout)
}

// OnConnect registers a new connection and announces it to everyone.
func (r *Relay) OnConnect(id string, handle any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.registry.Insert(id, handle); err != nil {
		r.log.Error("Connection registered twice", "id", id, "error", err)
		return err
	}

	size := r.registry.Size()
	r.log.Info("Client connected", "id", id, "clients", size)

	r.transport.BroadcastAll(EventServerMessage, ServerMessage{
		Type:      ServerMessageJoin,
		Message:   fmt.Sprintf("Client %s joined the chat", id),
		Timestamp: r.timestamp(),
	})
	r.broadcastClientCount(size)
	return nil
}

// OnDisconnect removes a connection and announces its departure. An id that
// is not registered is ignored.
func (r *Relay) OnDisconnect(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.registry.Remove(id)
	if err != nil {
		return
	}

	size := r.registry.Size()
	r.log.Info("Client disconnected", "id", id, "clients", size)

	r.transport.BroadcastAll(EventServerMessage, ServerMessage{
		Type:      ServerMessageLeave,
		Message:   fmt.Sprintf("%s left the chat", entry.DisplayName()),
		Timestamp: r.timestamp(),
	})
	r.broadcastClientCount(size)
}

// OnMessage relays a chat message from senderID to every other client and
// returns the acknowledgement for the sender. A username carried by the
// message is only taken when the sender has none yet.
func (r *Relay) OnMessage(senderID string, in MessageIn) (*MessageAck, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		entry registry.Entry
		err   error
	)
	if in.Username != nil && *in.Username != "" {
		entry, err = r.registry.ClaimUsername(senderID, *in.Username)
		if err == nil && entry.Username == *in.Username {
			r.log.Debug("Client claimed username", "id", senderID, "username", entry.Username)
		}
	} else {
		entry, err = r.registry.Get(senderID)
	}
	if err != nil {
		r.log.Error("Message from unregistered client", "id", senderID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUnknownSender, err)
	}

	name := entry.DisplayName()
	r.log.Debug(fmt.Sprintf("[%s] %s", name, lo.Ternary(in.Message == "", emptyMessageLogText, in.Message)))

	r.transport.BroadcastExcept(senderID, EventMessage, ChatMessage{
		ID:        senderID,
		Username:  name,
		Message:   in.Message,
		Timestamp: r.timestamp(),
	})

	return &MessageAck{Status: statusSent, Timestamp: r.timestamp()}, nil
}

// OnSetUsername renames senderID unconditionally and announces the change.
func (r *Relay) OnSetUsername(senderID, username string) SetUsernameAck {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, err := r.registry.SetUsername(senderID, username)
	if err != nil {
		r.log.Warn("Rename from unregistered client", "id", senderID, "error", err)
		return SetUsernameAck{Success: false, Error: errClientNotFound}
	}

	r.log.Info("Client changed username", "id", senderID, "from", old, "to", username)

	r.transport.BroadcastAll(EventServerMessage, ServerMessage{
		Type:      ServerMessageUsernameChange,
		Message:   fmt.Sprintf("%s is now known as %s", old, username),
		Timestamp: r.timestamp(),
	})

	return SetUsernameAck{Success: true, Username: &username}
}

// OnGetUsers returns the list of connected users for senderID.
func (r *Relay) OnGetUsers(senderID string) UsersAck {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := r.Users()
	r.log.Debug("Client requested user list", "id", senderID, "count", users.Count)
	return users
}

// Users snapshots the registry in the shape of a get-users reply. It only
// takes the registry's read lock.
func (r *Relay) Users() UsersAck {
	users := lo.Map(r.registry.ListAll(), func(u registry.User, _ int) UserInfo {
		return UserInfo{ID: u.ID, Username: u.DisplayName}
	})
	return UsersAck{Users: users, Count: len(users)}
}

// ClientCount returns the number of registered connections.
func (r *Relay) ClientCount() int {
	return r.registry.Size()
}

// Shutdown tells every client the server is going away, closes all sessions
// and empties the registry.
func (r *Relay) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Info("Shutting down relay...")

	r.transport.BroadcastAll(EventServerMessage, ServerMessage{
		Type:      ServerMessageShutdown,
		Message:   "Server is shutting down",
		Timestamp: r.timestamp(),
	})
	r.transport.CloseAll()
	dropped := r.registry.Clear()

	r.log.Info("Relay shut down", "dropped", dropped)
}

func (r *Relay) broadcastClientCount(size int) {
	r.transport.BroadcastAll(EventClientCount, ClientCount{
		Count:     size,
		Timestamp: r.timestamp(),
	})
}
