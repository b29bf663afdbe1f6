package log

import (
	"testing"

	"github.com/csrlink/csrlink-go/pkg/wire"
)

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{DirectionIn.String(), "IN"},
		{DirectionOut.String(), "OUT"},
		{Direction(99).String(), "UNKNOWN"},
		{LayerTransport.String(), "TRANSPORT"},
		{LayerWire.String(), "WIRE"},
		{LayerRegister.String(), "REGISTER"},
		{Layer(99).String(), "UNKNOWN"},
		{CategoryTransaction.String(), "TRANSACTION"},
		{CategoryControl.String(), "CONTROL"},
		{CategoryState.String(), "STATE"},
		{CategoryError.String(), "ERROR"},
		{Category(99).String(), "UNKNOWN"},
		{RoleClient.String(), "CLIENT"},
		{RoleServer.String(), "SERVER"},
		{Role(9).String(), "UNKNOWN"},
		{StateEntityConnection.String(), "CONNECTION"},
		{StateEntityServer.String(), "SERVER"},
		{StateEntityBuild.String(), "BUILD"},
		{StateEntity(9).String(), "UNKNOWN"},
		{ControlAuth.String(), "AUTH"},
		{ControlClose.String(), "CLOSE"},
		{ControlResync.String(), "RESYNC"},
		{ControlType(9).String(), "UNKNOWN"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestNewFrameEventTruncates(t *testing.T) {
	small := NewFrameEvent([]byte{1, 2, 3})
	if small.Size != 3 || small.Truncated || len(small.Data) != 3 {
		t.Errorf("small frame = %+v", small)
	}

	big := NewFrameEvent(make([]byte, MaxFrameData+10))
	if big.Size != MaxFrameData+10 {
		t.Errorf("Size = %d", big.Size)
	}
	if !big.Truncated || len(big.Data) != MaxFrameData {
		t.Errorf("Truncated = %v, len = %d", big.Truncated, len(big.Data))
	}
}

func TestNewFrameEventCopies(t *testing.T) {
	data := []byte{1, 2, 3}
	f := NewFrameEvent(data)
	data[0] = 9
	if f.Data[0] != 1 {
		t.Error("frame event aliases caller buffer")
	}
}

func TestNewTransactionEvent(t *testing.T) {
	tx := NewTransactionEvent(wire.OpRead, 0x10, nil)
	if tx.Length != 0 || tx.Words != nil || tx.Truncated {
		t.Errorf("empty transaction = %+v", tx)
	}

	words := make([]uint32, MaxTransactionWords+1)
	tx = NewTransactionEvent(wire.OpWrite, 0x20, words)
	if tx.Length != MaxTransactionWords+1 || !tx.Truncated || len(tx.Words) != MaxTransactionWords {
		t.Errorf("large transaction: len=%d truncated=%v words=%d", tx.Length, tx.Truncated, len(tx.Words))
	}
}
