package buildcache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Algorithm names a digest function.
type Algorithm string

const (
	// SHA256 is the default digest.
	SHA256 Algorithm = "sha256"

	// BLAKE2b selects the 256-bit BLAKE2b digest.
	BLAKE2b Algorithm = "blake2b"
)

// ErrUnknownAlgorithm indicates an unsupported digest name.
var ErrUnknownAlgorithm = errors.New("unknown digest algorithm")

// Digest returns the hex digest of artifact. The empty algorithm means SHA256.
func Digest(artifact []byte, algo Algorithm) (string, error) {
	switch algo {
	case "", SHA256:
		sum := sha256.Sum256(artifact)
		return hex.EncodeToString(sum[:]), nil
	case BLAKE2b:
		sum := blake2b.Sum256(artifact)
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algo)
	}
}
