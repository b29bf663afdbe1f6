package transport

// State is the lifecycle state of a Client.
type State int32

const (
	// StateDisconnected indicates no connection attempt yet.
	StateDisconnected State = iota

	// StateConnecting indicates the TCP dial is in progress.
	StateConnecting

	// StateAuthenticating indicates the token handshake is in progress.
	StateAuthenticating

	// StateReady indicates the client accepts transactions.
	StateReady

	// StateClosed indicates Close was called.
	StateClosed

	// StateFaulted indicates the stream lost synchronization or the
	// handshake failed. Only Close is allowed.
	StateFaulted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateAuthenticating:
		return "AUTHENTICATING"
	case StateReady:
		return "READY"
	case StateClosed:
		return "CLOSED"
	case StateFaulted:
		return "FAULTED"
	default:
		return "UNKNOWN"
	}
}
