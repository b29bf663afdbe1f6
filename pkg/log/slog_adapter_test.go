package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/csrlink/csrlink-go/pkg/wire"
)

func captureSlog(t *testing.T, event Event) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	NewSlogAdapter(slog.New(handler)).Log(event)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestSlogAdapterLogsFrameEvent(t *testing.T) {
	entry := captureSlog(t, Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-123",
		Direction:    DirectionIn,
		Layer:        LayerTransport,
		Frame:        NewFrameEvent([]byte{0x72, 0, 1, 0}),
	})

	if entry["conn_id"] != "conn-123" {
		t.Errorf("conn_id: got %v", entry["conn_id"])
	}
	if entry["direction"] != "IN" {
		t.Errorf("direction: got %v", entry["direction"])
	}
	if entry["frame_size"] != float64(4) {
		t.Errorf("frame_size: got %v", entry["frame_size"])
	}
	if entry["level"] != "DEBUG" {
		t.Errorf("level: got %v", entry["level"])
	}
}

func TestSlogAdapterLogsTransaction(t *testing.T) {
	rtt := time.Millisecond
	entry := captureSlog(t, Event{
		ConnectionID: "c",
		Layer:        LayerRegister,
		Category:     CategoryTransaction,
		Transaction: &TransactionEvent{
			Opcode:    wire.OpWrite,
			Address:   0x80000810,
			Length:    1,
			Register:  "top.led0to3_led1_rate_csr",
			Duration:  &rtt,
			Saturated: 1,
		},
	})

	if entry["op"] != "Write" {
		t.Errorf("op: got %v", entry["op"])
	}
	if entry["addr"] != "0x80000810" {
		t.Errorf("addr: got %v", entry["addr"])
	}
	if entry["register"] != "top.led0to3_led1_rate_csr" {
		t.Errorf("register: got %v", entry["register"])
	}
	if entry["saturated"] != float64(1) {
		t.Errorf("saturated: got %v", entry["saturated"])
	}
}

func TestSlogAdapterLogsControlAndState(t *testing.T) {
	entry := captureSlog(t, Event{Control: &ControlEvent{Type: ControlResync, Drained: 5, Attempts: 2}})
	if entry["ctrl_type"] != "RESYNC" || entry["drained"] != float64(5) {
		t.Errorf("control entry = %v", entry)
	}

	entry = captureSlog(t, Event{StateChange: &StateChangeEvent{Entity: StateEntityConnection, OldState: "READY", NewState: "CLOSED"}})
	if entry["new_state"] != "CLOSED" || entry["entity"] != "CONNECTION" {
		t.Errorf("state entry = %v", entry)
	}
}

func TestSlogAdapterErrorsAtWarn(t *testing.T) {
	entry := captureSlog(t, Event{Error: &ErrorEventData{Layer: LayerWire, Message: "echo mismatch", Context: "read"}})
	if entry["level"] != "WARN" {
		t.Errorf("level: got %v", entry["level"])
	}
	if !strings.Contains(entry["error_msg"].(string), "echo") {
		t.Errorf("error_msg: got %v", entry["error_msg"])
	}
}

func TestSlogAdapterNilLogger(t *testing.T) {
	NewSlogAdapter(nil).Log(Event{})
}
