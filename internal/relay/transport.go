package relay

//go:generate go run go.uber.org/mock/mockgen -source=transport.go -destination=mocks/transport_mock.go -package=mocks

// Transport delivers events to connected clients. Sends never block and never
// fail from the caller's point of view: a destination that has already gone
// away is skipped.
type Transport interface {
	// Send delivers one event to a single connection.
	Send(id string, event string, payload any)
	// BroadcastExcept delivers an event to every connection but senderID.
	BroadcastExcept(senderID string, event string, payload any)
	// BroadcastAll delivers an event to every connection.
	BroadcastAll(event string, payload any)
	// CloseAll closes every open session after queued events are flushed.
	CloseAll()
}
