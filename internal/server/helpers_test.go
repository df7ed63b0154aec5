package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"

	"github.com/Tyrowin/gochat-relay/internal/registry"
	"github.com/Tyrowin/gochat-relay/internal/relay"
)

const testOrigin = "http://localhost:8080"

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelDebug)
}

func testConfig() Config {
	cfg := *NewConfig()
	cfg.AllowedOrigins = testOrigin
	cfg.GinMode = gin.TestMode
	return cfg
}

// newDetachedClient builds a client with no socket and registers it with the
// hub directly, bypassing Run and the pumps.
func newDetachedClient(hub *Hub) *Client {
	client := NewClient(nil, hub, "test")
	hub.mutex.Lock()
	hub.clients[client.id] = client
	hub.mutex.Unlock()
	return client
}

// envelope is an outbound frame as a client sees it.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Ack   *int64          `json:"ack"`
}

func (e envelope) decode(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal(e.Data, v); err != nil {
		t.Fatalf("Failed to decode %s payload %s: %v", e.Event, e.Data, err)
	}
}

// relayServer is a running relay behind a real HTTP listener.
type relayServer struct {
	server *httptest.Server
	hub    *Hub
	chat   *relay.Relay
	wsURL  string
}

func startRelayServer(t *testing.T) *relayServer {
	t.Helper()
	return startRelayServerWithConfig(t, testConfig())
}

func startRelayServerWithConfig(t *testing.T, cfg Config) *relayServer {
	t.Helper()

	log := testLogger()
	hub := NewHub(cfg, log)
	chat := relay.New(registry.New(), hub, log)
	hub.SetHandler(chat)
	go hub.Run()

	srv := httptest.NewServer(SetupRoutes(NewHandlers(hub, chat, cfg, log), log))
	t.Cleanup(func() {
		_ = hub.Shutdown(2 * time.Second)
		srv.Close()
	})

	return &relayServer{
		server: srv,
		hub:    hub,
		chat:   chat,
		wsURL:  "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
	}
}

func newOriginHeader(origin string) http.Header {
	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}
	return headers
}

func dialWebSocket(url, origin string) (*websocket.Conn, *http.Response, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := dialer.Dial(url, newOriginHeader(origin))
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, resp, err
}

// connect dials the relay and waits for the join notice about this very
// connection, returning the connection id the server assigned.
func (s *relayServer) connect(t *testing.T) (*websocket.Conn, string) {
	t.Helper()

	conn, _, err := dialWebSocket(s.wsURL, testOrigin)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	var notice relay.ServerMessage
	readUntil(t, conn, func(env envelope) bool {
		if env.Event != relay.EventServerMessage {
			return false
		}
		env.decode(t, &notice)
		return notice.Type == relay.ServerMessageJoin
	})

	id := strings.TrimSuffix(strings.TrimPrefix(notice.Message, "Client "), " joined the chat")
	if id == "" || id == notice.Message {
		t.Fatalf("Unexpected join notice %q", notice.Message)
	}
	return conn, id
}

func emit(t *testing.T, conn *websocket.Conn, event string, data any, ack int64) {
	t.Helper()

	frame := map[string]any{"event": event, "data": data, "ack": ack}
	if err := conn.WriteJSON(frame); err != nil {
		t.Fatalf("Failed to send %s: %v", event, err)
	}
}

func readEnvelope(conn *websocket.Conn, timeout time.Duration) (envelope, error) {
	var env envelope
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return env, err
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		return env, err
	}
	err = json.Unmarshal(data, &env)
	return env, err
}

// readUntil reads frames until match accepts one, failing the test if none
// arrives within a few seconds.
func readUntil(t *testing.T, conn *websocket.Conn, match func(envelope) bool) envelope {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		env, err := readEnvelope(conn, time.Until(deadline))
		if err != nil {
			t.Fatalf("Failed while waiting for frame: %v", err)
		}
		if match(env) {
			return env
		}
	}
	t.Fatal("Timed out waiting for frame")
	return envelope{}
}

func isServerMessage(t *testing.T, kind relay.ServerMessageType, out *relay.ServerMessage) func(envelope) bool {
	return func(env envelope) bool {
		if env.Event != relay.EventServerMessage {
			return false
		}
		env.decode(t, out)
		return out.Type == kind
	}
}

func isReply(event string, ack int64) func(envelope) bool {
	return func(env envelope) bool {
		return env.Event == event && env.Ack != nil && *env.Ack == ack
	}
}

func isClientCount(t *testing.T, count int) func(envelope) bool {
	return func(env envelope) bool {
		if env.Event != relay.EventClientCount {
			return false
		}
		var cc relay.ClientCount
		env.decode(t, &cc)
		return cc.Count == count
	}
}

// expectNoEvent fails if a frame with the given event name arrives within timeout.
func expectNoEvent(t *testing.T, conn *websocket.Conn, event string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		env, err := readEnvelope(conn, time.Until(deadline))
		if err != nil {
			return
		}
		if env.Event == event {
			t.Fatalf("Unexpected %s frame: %s", event, env.Data)
		}
	}
}
