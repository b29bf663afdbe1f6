package transport

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// NewToken returns a fresh session token: the 32 hex digits of a random
// UUID.
func NewToken() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
