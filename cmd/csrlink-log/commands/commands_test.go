package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csrlink/csrlink-go/pkg/log"
	"github.com/csrlink/csrlink-go/pkg/wire"
)

var t0 = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func rtt(d time.Duration) *time.Duration { return &d }

func sampleEvents() []log.Event {
	const conn = "7f3e2a10-5b4c-4d2e-9f11-0a1b2c3d4e5f"
	return []log.Event{
		{
			Timestamp: t0, ConnectionID: conn, Direction: log.DirectionOut,
			Layer: log.LayerTransport, Category: log.CategoryTransaction, RemoteAddr: "10.0.0.5:2222",
			Frame: log.NewFrameEvent([]byte{'r', 0, 1, 0, 0x10, 0, 0, 0}),
		},
		{
			Timestamp: t0.Add(time.Millisecond), ConnectionID: conn, Direction: log.DirectionIn,
			Layer: log.LayerWire, Category: log.CategoryTransaction,
			Transaction: log.NewTransactionEvent(wire.OpRead, 0x10, []uint32{42}),
		},
		{
			Timestamp: t0.Add(2 * time.Millisecond), ConnectionID: conn, Direction: log.DirectionIn,
			Layer: log.LayerRegister, Category: log.CategoryTransaction,
			Transaction: &log.TransactionEvent{
				Opcode: wire.OpRead, Address: 0x10, Length: 1, Words: []uint32{42},
				Register: "top.led0_rate_csr", Duration: rtt(400 * time.Microsecond),
			},
		},
		{
			Timestamp: t0.Add(3 * time.Millisecond), ConnectionID: conn, Direction: log.DirectionOut,
			Layer: log.LayerRegister, Category: log.CategoryTransaction,
			Transaction: &log.TransactionEvent{
				Opcode: wire.OpWrite, Address: 0x10, Length: 1, Words: []uint32{0xffff},
				Register: "top.led0_rate_csr", Duration: rtt(600 * time.Microsecond), Saturated: 1,
			},
		},
		{
			Timestamp: t0.Add(4 * time.Millisecond), ConnectionID: conn, Direction: log.DirectionIn,
			Layer: log.LayerWire, Category: log.CategoryControl,
			Control: &log.ControlEvent{Type: log.ControlResync, Drained: 12, Attempts: 3},
		},
		{
			Timestamp: t0.Add(5 * time.Millisecond), ConnectionID: conn, Direction: log.DirectionIn,
			Layer: log.LayerTransport, Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{OldState: "READY", NewState: "FAULTED", Reason: "timeout"},
		},
		{
			Timestamp: t0.Add(6 * time.Millisecond), ConnectionID: conn, Direction: log.DirectionIn,
			Layer: log.LayerWire, Category: log.CategoryError,
			Error: &log.ErrorEventData{Layer: log.LayerWire, Message: "response timeout", Context: "read"},
		},
	}
}

func writeCapture(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.cbor")
	fl, err := log.NewFileLogger(path)
	require.NoError(t, err)
	for _, e := range events {
		fl.Log(e)
	}
	require.NoError(t, fl.Close())
	return path
}

func TestFormatEvents(t *testing.T) {
	tests := []struct {
		name  string
		event log.Event
		want  []string
	}{
		{"frame", sampleEvents()[0], []string{
			"2026-03-02T09:30:00.000000Z [conn:7f3e2a10] OUT TRANSPORT Frame",
			"Size: 8 bytes",
			"Data: 7200010010000000",
		}},
		{"register read", sampleEvents()[2], []string{
			"IN  REGISTER Read",
			"Register: top.led0_rate_csr",
			"Address: 0x00000010  Length: 1",
			"Words: 0x0000002a",
			"Duration: 400.000us",
		}},
		{"saturated write", sampleEvents()[3], []string{"Saturated: 1"}},
		{"resync", sampleEvents()[4], []string{"CTRL RESYNC", "Drained: 12 bytes in 3 reads"}},
		{"state", sampleEvents()[5], []string{"READY -> FAULTED", "Reason: timeout"}},
		{"error", sampleEvents()[6], []string{"Message: response timeout", "Context: read"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			formatEvent(&buf, tt.event)
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestBuildFilter(t *testing.T) {
	f, err := BuildFilter(ViewOptions{Layer: "Register", Direction: "out", Op: "w", Category: "transaction"})
	require.NoError(t, err)
	require.NotNil(t, f.Layer)
	assert.Equal(t, log.LayerRegister, *f.Layer)
	assert.Equal(t, log.DirectionOut, *f.Direction)
	assert.Equal(t, wire.OpWrite, *f.Opcode)
	assert.Equal(t, log.CategoryTransaction, *f.Category)

	for _, opts := range []ViewOptions{{Layer: "service"}, {Direction: "up"}, {Category: "message"}, {Op: "x"}} {
		_, err := BuildFilter(opts)
		assert.Error(t, err, "%+v", opts)
	}
}

func TestRunView(t *testing.T) {
	path := writeCapture(t, sampleEvents())
	filter, err := BuildFilter(ViewOptions{Layer: "register"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RunView(path, filter, &buf))
	assert.Equal(t, 2, strings.Count(buf.String(), "REGISTER"))
	assert.NotContains(t, buf.String(), "Frame")
}

func TestRunStats(t *testing.T) {
	path := writeCapture(t, sampleEvents())

	var buf bytes.Buffer
	require.NoError(t, RunStats(path, &buf))
	out := buf.String()

	assert.Contains(t, out, "Total Events: 7")
	assert.Contains(t, out, "Connections: 1")
	assert.Contains(t, out, "[7f3e2a10] 7 events, duration 6ms, 1 reads, 0 writes")
	assert.Contains(t, out, "Remote: 10.0.0.5:2222")
	assert.Contains(t, out, "1 reads, 1 writes, mean 500.000us, max 600.000us, 1 saturated")
	assert.Contains(t, out, "Resyncs: 1 (12 bytes drained)")
	assert.Contains(t, out, "Errors: 1")
}

func TestCollectRegisters(t *testing.T) {
	path := writeCapture(t, sampleEvents())
	reader, err := log.NewReader(path)
	require.NoError(t, err)
	defer reader.Close()

	stats, err := Collect(reader)
	require.NoError(t, err)
	require.Contains(t, stats.Registers, "top.led0_rate_csr")
	reg := stats.Registers["top.led0_rate_csr"]
	assert.Equal(t, 500*time.Microsecond, reg.Mean())
	assert.Equal(t, 4, stats.EventsByCategory[log.CategoryTransaction])
}

func TestRunFilter(t *testing.T) {
	path := writeCapture(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "writes.cbor")
	op := wire.OpWrite

	n, err := RunFilter(path, log.Filter{Opcode: &op}, out)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var buf bytes.Buffer
	require.NoError(t, RunView(out, log.Filter{}, &buf))
	assert.Contains(t, buf.String(), "REGISTER Write")
}

func TestRunViewMissingFile(t *testing.T) {
	err := RunView(filepath.Join(t.TempDir(), "none.cbor"), log.Filter{}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "failed to open log file")
}
