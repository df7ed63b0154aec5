package relay

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnknownEvent is returned by Dispatch for an event name with no handler.
	ErrUnknownEvent = errors.New("unknown event")

	// ErrBadPayload is returned by Dispatch when the event data cannot be decoded.
	ErrBadPayload = errors.New("malformed event payload")
)

type handlerFunc func(r *Relay, senderID string, data json.RawMessage) (any, error)

var handlers = map[string]handlerFunc{
	EventMessage:     handleMessage,
	EventSetUsername: handleSetUsername,
	EventGetUsers:    handleGetUsers,
}

// Dispatch routes a client event to its handler and returns the reply that
// should go back to the sender. A nil reply means nothing is sent back.
func (r *Relay) Dispatch(senderID, event string, data json.RawMessage) (any, error) {
	h, ok := handlers[event]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
	return h(r, senderID, data)
}

func handleMessage(r *Relay, senderID string, data json.RawMessage) (any, error) {
	var in MessageIn
	if err := decode(data, &in); err != nil {
		return nil, err
	}
	ack, err := r.OnMessage(senderID, in)
	if err != nil {
		return nil, err
	}
	return ack, nil
}

func handleSetUsername(r *Relay, senderID string, data json.RawMessage) (any, error) {
	var username string
	if err := decode(data, &username); err != nil {
		return nil, err
	}
	return r.OnSetUsername(senderID, username), nil
}

// get-users ignores its payload.
func handleGetUsers(r *Relay, senderID string, _ json.RawMessage) (any, error) {
	return r.OnGetUsers(senderID), nil
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", ErrBadPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadPayload, err)
	}
	return nil
}
