// Package server defines the JSON envelope carried by every WebSocket frame
// and small helpers shared by the hub and client code.
package server

import (
	"encoding/json"
	"strings"
)

// inboundEnvelope is one event sent by a client. Ack is an optional client
// chosen id echoed back on the direct reply.
type inboundEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	Ack   *int64          `json:"ack,omitempty"`
}

// outboundEnvelope is one event sent to a client, either a broadcast or the
// reply to an inbound event.
type outboundEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
	Ack   *int64 `json:"ack,omitempty"`
}

func encodeEnvelope(event string, payload any, ack *int64) ([]byte, error) {
	return json.Marshal(outboundEnvelope{Event: event, Data: payload, Ack: ack})
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
