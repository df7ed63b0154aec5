// Package server implements the HTTP and WebSocket transport of the relay.
//
// The implementation is organized into specialized files for configuration,
// hub management, clients, routing, and HTTP handlers. The Hub satisfies the
// relay's Transport interface; chat semantics live in package relay.
package server
