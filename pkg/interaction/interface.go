package interaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"sync"
	"time"

	"github.com/csrlink/csrlink-go/pkg/csrmap"
	"github.com/csrlink/csrlink-go/pkg/log"
	"github.com/csrlink/csrlink-go/pkg/register"
	"github.com/csrlink/csrlink-go/pkg/transport"
	"github.com/csrlink/csrlink-go/pkg/wire"
)

// DefaultRAMBase is the bus address of the bulk memory window.
const DefaultRAMBase = 0x0a000000

// AddressTableFile is the name of the address table in a build result.
const AddressTableFile = "csr.csv"

// ErrStopped indicates the interface was stopped.
var ErrStopped = errors.New("interface stopped")

// Options configures an Interface.
type Options struct {
	// RAMBase is the bus address of the bulk memory window
	// (default: DefaultRAMBase).
	RAMBase uint32

	// Logger receives saturation warnings (default: slog.Default()).
	Logger *slog.Logger

	// ProtocolLogger receives register-level capture events (optional).
	ProtocolLogger log.Logger
}

// Interface performs name-based register access over a Bus. Operations are
// serialized, so a chunked transfer is never interleaved with other traffic.
type Interface struct {
	bus     Bus
	csr     *csrmap.Map
	ramBase uint32
	logger  *slog.Logger
	plog    log.Logger

	mu      sync.Mutex
	stopped bool
}

// New creates an Interface over bus using the address map m.
func New(bus Bus, m *csrmap.Map, opts Options) *Interface {
	if opts.RAMBase == 0 {
		opts.RAMBase = DefaultRAMBase
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Interface{
		bus:     bus,
		csr:     m,
		ramBase: opts.RAMBase,
		logger:  opts.Logger,
		plog:    log.OrNoop(opts.ProtocolLogger),
	}
}

// Connect loads the address table of a build result directory and dials
// the board.
func Connect(ctx context.Context, resultDir string, cfg transport.Config, opts Options) (*Interface, error) {
	m, err := csrmap.Load(filepath.Join(resultDir, AddressTableFile))
	if err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = opts.Logger
	}
	if cfg.ProtocolLogger == nil {
		cfg.ProtocolLogger = opts.ProtocolLogger
	}
	client, err := transport.Dial(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(client, m, opts), nil
}

// Map returns the address map.
func (i *Interface) Map() *csrmap.Map {
	return i.csr
}

// RAMBase returns the bus address of the bulk memory window.
func (i *Interface) RAMBase() uint32 {
	return i.ramBase
}

// Read returns the raw word of the register name.
func (i *Interface) Read(ctx context.Context, name string) (uint32, error) {
	words, err := i.ReadArray(ctx, name, 1)
	if err != nil {
		return 0, err
	}
	return words[0], nil
}

// Write stores a raw word in the register name.
func (i *Interface) Write(ctx context.Context, name string, value uint32) error {
	return i.WriteArray(ctx, name, []uint32{value})
}

// ReadArray returns length consecutive words starting at the register name.
func (i *Interface) ReadArray(ctx context.Context, name string, length int) ([]uint32, error) {
	if err := checkLength(name, length); err != nil {
		return nil, err
	}
	e, err := i.csr.Lookup(name)
	if err != nil {
		return nil, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.stopped {
		return nil, ErrStopped
	}

	start := time.Now()
	words, err := i.bus.Read(ctx, e.Address, length)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	i.emit(wire.OpRead, e.Address, name, words, 0, time.Since(start))
	return words, nil
}

// WriteArray stores values at consecutive words starting at the register
// name. Read-only entries fail with register.ErrPermission.
func (i *Interface) WriteArray(ctx context.Context, name string, values []uint32) error {
	if err := checkLength(name, len(values)); err != nil {
		return err
	}
	e, err := i.csr.Lookup(name)
	if err != nil {
		return err
	}
	if !e.Writable() {
		return fmt.Errorf("%w: %s is mapped read-only", register.ErrPermission, name)
	}
	return i.write(ctx, e, values, 0)
}

func (i *Interface) write(ctx context.Context, e csrmap.Entry, values []uint32, saturated int) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.stopped {
		return ErrStopped
	}

	start := time.Now()
	if err := i.bus.Write(ctx, e.Address, values); err != nil {
		return fmt.Errorf("write %s: %w", e.Name, err)
	}
	i.emit(wire.OpWrite, e.Address, e.Name, values, saturated, time.Since(start))
	return nil
}

// ReadRAM returns length words of the bulk memory window starting at the
// byte offset. Long reads are split into transactions of at most
// wire.MaxReadLength words.
func (i *Interface) ReadRAM(ctx context.Context, offset uint32, length int) ([]uint32, error) {
	return i.readWords(ctx, i.ramBase+offset, length, "read ram")
}

// ReadAddress reads length words at a raw bus address, bypassing the
// address map. Long reads are split like ReadRAM.
func (i *Interface) ReadAddress(ctx context.Context, addr uint32, length int) ([]uint32, error) {
	return i.readWords(ctx, addr, length, "read")
}

func (i *Interface) readWords(ctx context.Context, addr uint32, length int, what string) ([]uint32, error) {
	if length < 0 {
		return nil, fmt.Errorf("%w: negative length %d", register.ErrInvalidValue, length)
	}
	if room := (uint64(math.MaxUint32) - uint64(addr) + 1) / wire.WordSize; uint64(length) > room {
		return nil, fmt.Errorf("%w: %d words at 0x%08x run past the address space", register.ErrInvalidValue, length, addr)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.stopped {
		return nil, ErrStopped
	}

	out := make([]uint32, 0, min(length, wire.MaxReadLength))
	for len(out) < length {
		n := min(length-len(out), wire.MaxReadLength)
		chunk := addr + uint32(len(out)*wire.WordSize)
		start := time.Now()
		words, err := i.bus.Read(ctx, chunk, n)
		if err != nil {
			return nil, fmt.Errorf("%s 0x%08x: %w", what, chunk, err)
		}
		i.emit(wire.OpRead, chunk, "", words, 0, time.Since(start))
		out = append(out, words...)
	}
	return out, nil
}

// Stop closes the bus. Teardown errors are logged and dropped; Stop is
// idempotent.
func (i *Interface) Stop() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.stopped {
		return
	}
	i.stopped = true
	if err := i.bus.Close(); err != nil {
		i.logger.Debug("closing bus", "error", err)
	}
}

func (i *Interface) emit(op wire.Opcode, addr uint32, name string, words []uint32, saturated int, rtt time.Duration) {
	tx := log.NewTransactionEvent(op, addr, words)
	tx.Register = name
	tx.Saturated = saturated
	tx.Duration = &rtt

	dir := log.DirectionIn
	if op == wire.OpWrite {
		dir = log.DirectionOut
	}
	i.plog.Log(log.Event{
		Timestamp:   time.Now(),
		Direction:   dir,
		Layer:       log.LayerRegister,
		Category:    log.CategoryTransaction,
		LocalRole:   log.RoleClient,
		Transaction: tx,
	})
}

func checkLength(name string, n int) error {
	if n < 0 || n > wire.MaxWriteLength {
		return fmt.Errorf("%w: %s: length %d outside 0..%d", register.ErrInvalidValue, name, n, wire.MaxWriteLength)
	}
	return nil
}
