package wire

import (
	"bytes"
	"fmt"
)

// AcceptByte is the ASCII character the server repeats TokenSize times to
// accept a session.
const AcceptByte = '1'

// AcceptReply is the full acceptance answer.
var AcceptReply = bytes.Repeat([]byte{AcceptByte}, TokenSize)

// ValidateToken checks that token has the form the handshake requires.
func ValidateToken(token string) error {
	if len(token) != TokenSize {
		return fmt.Errorf("token must have %d characters, not %d", TokenSize, len(token))
	}
	for i := 0; i < len(token); i++ {
		if token[i] < 0x20 || token[i] > 0x7e {
			return fmt.Errorf("token must be printable ASCII, got 0x%02x at %d", token[i], i)
		}
	}
	return nil
}

// IsAccept reports whether reply is the server's acceptance answer.
func IsAccept(reply []byte) bool {
	return bytes.Equal(reply, AcceptReply)
}
