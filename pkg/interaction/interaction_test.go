package interaction

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/csrlink/csrlink-go/pkg/csrmap"
	"github.com/csrlink/csrlink-go/pkg/device"
	"github.com/csrlink/csrlink-go/pkg/log"
	"github.com/csrlink/csrlink-go/pkg/register"
	"github.com/csrlink/csrlink-go/pkg/transport"
	"github.com/stretchr/testify/require"
)

// memBus serves transactions from a transport.Memory.
type memBus struct {
	mem *transport.Memory
}

func (b *memBus) Read(_ context.Context, addr uint32, length int) ([]uint32, error) {
	return b.mem.Read(addr, length), nil
}

func (b *memBus) Write(_ context.Context, addr uint32, values []uint32) error {
	b.mem.Write(addr, values)
	return nil
}

func (b *memBus) Close() error { return nil }

// overlapBus counts transactions that were in flight at the same time.
type overlapBus struct {
	Bus
	inFlight atomic.Int32
	overlaps atomic.Int32
}

func (b *overlapBus) enter() func() {
	if b.inFlight.Add(1) > 1 {
		b.overlaps.Add(1)
	}
	time.Sleep(50 * time.Microsecond)
	return func() { b.inFlight.Add(-1) }
}

func (b *overlapBus) Read(ctx context.Context, addr uint32, length int) ([]uint32, error) {
	defer b.enter()()
	return b.Bus.Read(ctx, addr, length)
}

func (b *overlapBus) Write(ctx context.Context, addr uint32, values []uint32) error {
	defer b.enter()()
	return b.Bus.Write(ctx, addr, values)
}

type recorder struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *recorder) Log(e log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func demoManifest() *device.Manifest {
	pulse := &device.Manifest{Type: "PulseGen"}
	pulse.Register(register.Spec{Name: "period", Width: 32})

	m := &device.Manifest{Type: "Demo"}
	m.Register(register.Spec{Name: "level", Width: 8})
	m.Register(register.Spec{Name: "signed", Kind: register.KindNumber, Width: 8, Signed: true})
	m.Register(register.Spec{Name: "gain", Kind: register.KindFixedPoint, Width: 14, Decimals: 13})
	m.Register(register.Spec{Name: "enable", Kind: register.KindBool, Width: 8, Bit: 3})
	m.Register(register.Spec{Name: "reset", Kind: register.KindTrigger})
	m.Register(register.Spec{Name: "status", Width: 16, Readonly: true})
	m.Register(register.Spec{Name: "table", Kind: register.KindNumber, Width: 16, Depth: 5, Reverse: true})
	m.Register(register.Spec{Name: "capture", Kind: register.KindNumber, Width: 32, Depth: 4, Readonly: true, RAMOffset: register.Offset32(0x40)})
	m.Add("pulse", pulse)
	return m
}

func demoMap() *csrmap.Map {
	return csrmap.New(
		csrmap.Entry{Name: "top.level_csr", Address: 0x00, Size: 8, Mode: csrmap.ModeReadWrite},
		csrmap.Entry{Name: "top.signed_csr", Address: 0x04, Size: 8, Mode: csrmap.ModeReadWrite},
		csrmap.Entry{Name: "top.gain_csr", Address: 0x08, Size: 14, Mode: csrmap.ModeReadWrite},
		csrmap.Entry{Name: "top.enable_csr", Address: 0x0c, Size: 8, Mode: csrmap.ModeReadWrite},
		csrmap.Entry{Name: "top.reset_csr", Address: 0x10, Size: 1, Mode: csrmap.ModeReadWrite},
		csrmap.Entry{Name: "top.status_csr", Address: 0x14, Size: 16, Mode: csrmap.ModeReadOnly},
		csrmap.Entry{Name: "top.table_csr", Address: 0x100, Size: 16, Mode: csrmap.ModeReadWrite},
		csrmap.Entry{Name: "top.pulse_period_csr", Address: 0x200, Size: 32, Mode: csrmap.ModeReadWrite},
	)
}

func attach(t *testing.T, bus Bus, opts Options) *Handle {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	root, err := device.Build(demoManifest())
	require.NoError(t, err)
	h, err := Attach(root, New(bus, demoMap(), opts))
	require.NoError(t, err)
	return h
}

func attachMemory(t *testing.T) (*Handle, *transport.Memory) {
	t.Helper()
	mem := transport.NewMemory()
	return attach(t, &memBus{mem: mem}, Options{}), mem
}

func logBuffer() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func newMemBus() *memBus {
	return &memBus{mem: transport.NewMemory()}
}
