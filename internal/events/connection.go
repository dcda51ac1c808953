package events

const (
	// ConnectionStateEvent is emitted whenever a session is opened, fails or is dropped.
	ConnectionStateEvent = "connection.state"

	ConnectionStateConnecting   = "connecting"
	ConnectionStateConnected    = "connected"
	ConnectionStateFailed       = "failed"
	ConnectionStateDisconnected = "disconnected"
)

// ConnectionStatePayload carries connection lifecycle updates.
type ConnectionStatePayload struct {
	ConnectionID string `json:"connectionId"`
	State        string `json:"state"`
	Database     string `json:"database,omitempty"`
	Message      string `json:"message,omitempty"`
	Error        string `json:"error,omitempty"`
}
