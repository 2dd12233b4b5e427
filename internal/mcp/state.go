package mcp

// State is the lifecycle position of one server connection.
//
// DISCONNECTED -> CONNECTING -> HANDSHAKING -> READY -> (DEGRADED | DISCONNECTED)
//
// DEGRADED keeps discovered tools visible but short-circuits calls until a
// bounded reconnect succeeds; exhausting reconnect attempts lands back in
// DISCONNECTED until the connection is explicitly re-enabled.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateHandshaking
	StateReady
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}
