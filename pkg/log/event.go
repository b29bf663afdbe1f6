package log

import (
	"time"

	"github.com/csrlink/csrlink-go/pkg/wire"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the connection (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates data flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// LocalRole indicates whether this is the bus client or the register server.
	LocalRole Role `cbor:"6,keyasint,omitempty"`

	// RemoteAddr is the peer address (IP:port).
	RemoteAddr string `cbor:"7,keyasint,omitempty"`

	// Board names the target board, when known.
	Board string `cbor:"8,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Raw bytes
	Transaction *TransactionEvent `cbor:"11,keyasint,omitempty"` // Decoded read/write
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Connection state
	Control     *ControlEvent     `cbor:"13,keyasint,omitempty"` // Auth/close/resync
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of data flow.
type Direction uint8

const (
	// DirectionIn indicates incoming data.
	DirectionIn Direction = 0
	// DirectionOut indicates outgoing data.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the socket layer (raw bytes).
	LayerTransport Layer = 0
	// LayerWire is the header/payload layer (decoded transactions).
	LayerWire Layer = 1
	// LayerRegister is the named register layer.
	LayerRegister Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerRegister:
		return "REGISTER"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryTransaction indicates a read or write transaction.
	CategoryTransaction Category = 0
	// CategoryControl indicates authentication, close or resync.
	CategoryControl Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTransaction:
		return "TRANSACTION"
	case CategoryControl:
		return "CONTROL"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Role indicates which end of the connection logged the event.
type Role uint8

const (
	// RoleClient indicates the host-side bus client.
	RoleClient Role = 0
	// RoleServer indicates the device-side register server.
	RoleServer Role = 1
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleClient:
		return "CLIENT"
	case RoleServer:
		return "SERVER"
	default:
		return "UNKNOWN"
	}
}

// MaxFrameData is the number of raw bytes kept per frame event.
const MaxFrameData = 256

// FrameEvent captures raw bytes at the transport layer.
type FrameEvent struct {
	// Size is the number of bytes transferred.
	Size int `cbor:"1,keyasint"`

	// Data is the raw bytes (may be truncated for large transfers).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// NewFrameEvent copies at most MaxFrameData bytes of data.
func NewFrameEvent(data []byte) *FrameEvent {
	f := &FrameEvent{Size: len(data)}
	n := len(data)
	if n > MaxFrameData {
		n = MaxFrameData
		f.Truncated = true
	}
	f.Data = append([]byte(nil), data[:n]...)
	return f
}

// MaxTransactionWords is the number of words kept per transaction event.
const MaxTransactionWords = 64

// TransactionEvent captures one read or write.
type TransactionEvent struct {
	// Opcode is the wire operation.
	Opcode wire.Opcode `cbor:"1,keyasint"`

	// Address is the bus address of the first word.
	Address uint32 `cbor:"2,keyasint"`

	// Length is the number of words.
	Length int `cbor:"3,keyasint"`

	// Words holds the transferred values (may be truncated).
	Words []uint32 `cbor:"4,keyasint,omitempty"`

	// Truncated indicates if Words was truncated.
	Truncated bool `cbor:"5,keyasint,omitempty"`

	// Register is the fully-qualified register name, when known.
	Register string `cbor:"6,keyasint,omitempty"`

	// Duration is the round-trip time. Stored as nanoseconds.
	Duration *time.Duration `cbor:"7,keyasint,omitempty"`

	// Saturated counts values clamped by the register codec.
	Saturated int `cbor:"8,keyasint,omitempty"`
}

// NewTransactionEvent copies at most MaxTransactionWords words.
func NewTransactionEvent(op wire.Opcode, addr uint32, words []uint32) *TransactionEvent {
	t := &TransactionEvent{Opcode: op, Address: addr, Length: len(words)}
	n := len(words)
	if n > MaxTransactionWords {
		n = MaxTransactionWords
		t.Truncated = true
	}
	if n > 0 {
		t.Words = append([]uint32(nil), words[:n]...)
	}
	return t
}

// StateChangeEvent captures connection lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a client connection state change.
	StateEntityConnection StateEntity = 0
	// StateEntityServer indicates a register server state change.
	StateEntityServer StateEntity = 1
	// StateEntityBuild indicates a build cache state change.
	StateEntityBuild StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityServer:
		return "SERVER"
	case StateEntityBuild:
		return "BUILD"
	default:
		return "UNKNOWN"
	}
}

// ControlEvent captures connection control steps.
type ControlEvent struct {
	// Type of control step.
	Type ControlType `cbor:"1,keyasint"`

	// Accepted reports the outcome of an authentication.
	Accepted bool `cbor:"2,keyasint,omitempty"`

	// Drained is the number of bytes discarded by a resync.
	Drained int `cbor:"3,keyasint,omitempty"`

	// Attempts is the number of reads a resync used.
	Attempts int `cbor:"4,keyasint,omitempty"`
}

// ControlType indicates the type of control step.
type ControlType uint8

const (
	// ControlAuth indicates the token handshake.
	ControlAuth ControlType = 0
	// ControlClose indicates a close request.
	ControlClose ControlType = 1
	// ControlResync indicates a drain after a timeout or echo mismatch.
	ControlResync ControlType = 2
)

// String returns the control type name.
func (c ControlType) String() string {
	switch c {
	case ControlAuth:
		return "AUTH"
	case ControlClose:
		return "CLOSE"
	case ControlResync:
		return "RESYNC"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
