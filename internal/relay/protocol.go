package relay

// Event names exchanged with clients.
const (
	EventMessage       = "message"
	EventSetUsername   = "set-username"
	EventGetUsers      = "get-users"
	EventServerMessage = "server-message"
	EventClientCount   = "client-count"
)

// ServerMessageType is the type tag carried by a server-message event.
type ServerMessageType string

const (
	ServerMessageJoin           ServerMessageType = "join"
	ServerMessageLeave          ServerMessageType = "leave"
	ServerMessageUsernameChange ServerMessageType = "username-change"
	ServerMessageShutdown       ServerMessageType = "shutdown"
)

// MessageIn is the payload of an inbound message event.
type MessageIn struct {
	Message  string  `json:"message"`
	Username *string `json:"username,omitempty"`
}

// ChatMessage is broadcast to every client except the sender.
type ChatMessage struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// MessageAck is the direct reply to the sender of a message event.
type MessageAck struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// SetUsernameAck is the direct reply to a set-username event. Username is set
// on success, Error on failure.
type SetUsernameAck struct {
	Success  bool    `json:"success"`
	Username *string `json:"username,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// UserInfo is one element of a get-users reply.
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// UsersAck is the direct reply to a get-users event.
type UsersAck struct {
	Users []UserInfo `json:"users"`
	Count int        `json:"count"`
}

// ServerMessage is a broadcast notice about the chat itself.
type ServerMessage struct {
	Type      ServerMessageType `json:"type"`
	Message   string            `json:"message"`
	Timestamp string            `json:"timestamp"`
}

// ClientCount is broadcast whenever the number of connections changes.
type ClientCount struct {
	Count     int    `json:"count"`
	Timestamp string `json:"timestamp"`
}

const (
	statusSent          = "sent"
	errClientNotFound   = "Client not found"
	emptyMessageLogText = "<empty message>"
)
