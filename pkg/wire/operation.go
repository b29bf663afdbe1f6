package wire

// Opcode identifies the request kind carried in the first header byte.
type Opcode uint8

const (
	// OpRead reads consecutive words starting at the header address.
	OpRead Opcode = 'r'

	// OpWrite writes consecutive words starting at the header address.
	OpWrite Opcode = 'w'

	// OpClose asks the server to end the session.
	OpClose Opcode = 'c'
)

// String returns the opcode name.
func (o Opcode) String() string {
	switch o {
	case OpRead:
		return "Read"
	case OpWrite:
		return "Write"
	case OpClose:
		return "Close"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the opcode is one the protocol defines.
func (o Opcode) IsValid() bool {
	return o == OpRead || o == OpWrite || o == OpClose
}
