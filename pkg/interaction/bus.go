package interaction

import (
	"context"

	"github.com/csrlink/csrlink-go/pkg/transport"
)

// Bus moves raw words to and from the device.
type Bus interface {
	// Read returns length consecutive words starting at addr.
	Read(ctx context.Context, addr uint32, length int) ([]uint32, error)

	// Write stores values at consecutive words starting at addr.
	Write(ctx context.Context, addr uint32, values []uint32) error

	// Close releases the bus.
	Close() error
}

var _ Bus = (*transport.Client)(nil)
