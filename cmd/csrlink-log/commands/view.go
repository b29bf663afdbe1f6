// Package commands implements the csrlink-log CLI commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/csrlink/csrlink-go/pkg/log"
	"github.com/csrlink/csrlink-go/pkg/wire"
)

// ViewOptions holds the raw flag values of the view command.
type ViewOptions struct {
	Layer     string
	Direction string
	Category  string
	Op        string
	Register  string
	ConnID    string
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	connID := shortenConnID(event.ConnectionID)
	dir := event.Direction.String()

	var typeLabel string
	switch {
	case event.Frame != nil:
		typeLabel = "Frame"
	case event.Transaction != nil:
		typeLabel = event.Transaction.Opcode.String()
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Control != nil:
		typeLabel = event.Control.Type.String()
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	layerStr := event.Layer.String()
	if event.Category == log.CategoryControl {
		layerStr = "CTRL"
	}

	fmt.Fprintf(w, "%s [conn:%s] %-3s %s %s\n", ts, connID, dir, layerStr, typeLabel)

	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.Transaction != nil:
		formatTransactionDetails(w, event.Transaction)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Control != nil:
		formatControlDetails(w, event.Control)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatFrameDetails(w io.Writer, frame *log.FrameEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", frame.Size)
	if len(frame.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(frame.Data))
		if frame.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

func formatTransactionDetails(w io.Writer, tx *log.TransactionEvent) {
	if tx.Register != "" {
		fmt.Fprintf(w, "  Register: %s\n", tx.Register)
	}
	fmt.Fprintf(w, "  Address: 0x%08x  Length: %d\n", tx.Address, tx.Length)
	if len(tx.Words) > 0 {
		fmt.Fprintf(w, "  Words: %s", formatWords(tx.Words))
		if tx.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
	if tx.Saturated > 0 {
		fmt.Fprintf(w, "  Saturated: %d\n", tx.Saturated)
	}
	if tx.Duration != nil {
		fmt.Fprintf(w, "  Duration: %s\n", formatDuration(*tx.Duration))
	}
}

func formatWords(words []uint32) string {
	parts := make([]string, len(words))
	for i, v := range words {
		parts[i] = fmt.Sprintf("0x%08x", v)
	}
	return strings.Join(parts, " ")
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity.String())
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatControlDetails(w io.Writer, c *log.ControlEvent) {
	switch c.Type {
	case log.ControlAuth:
		fmt.Fprintf(w, "  Accepted: %t\n", c.Accepted)
	case log.ControlResync:
		fmt.Fprintf(w, "  Drained: %d bytes in %d reads\n", c.Drained, c.Attempts)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer.String())
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// BuildFilter converts flag values to a capture filter.
func BuildFilter(opts ViewOptions) (log.Filter, error) {
	filter := log.Filter{ConnectionID: opts.ConnID, Register: opts.Register}
	if opts.Layer != "" {
		l, err := parseLayer(opts.Layer)
		if err != nil {
			return filter, err
		}
		filter.Layer = &l
	}
	if opts.Direction != "" {
		d, err := parseDirection(opts.Direction)
		if err != nil {
			return filter, err
		}
		filter.Direction = &d
	}
	if opts.Category != "" {
		c, err := parseCategory(opts.Category)
		if err != nil {
			return filter, err
		}
		filter.Category = &c
	}
	if opts.Op != "" {
		op, err := parseOpcode(opts.Op)
		if err != nil {
			return filter, err
		}
		filter.Opcode = &op
	}
	return filter, nil
}

// parseLayer parses a layer string (case-insensitive).
func parseLayer(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "transport":
		return log.LayerTransport, nil
	case "wire":
		return log.LayerWire, nil
	case "register":
		return log.LayerRegister, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be transport, wire, or register)", s)
	}
}

// parseDirection parses a direction string (case-insensitive).
func parseDirection(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// parseCategory parses a category string (case-insensitive).
func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "transaction":
		return log.CategoryTransaction, nil
	case "control":
		return log.CategoryControl, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be transaction, control, state, or error)", s)
	}
}

// parseOpcode accepts the opcode name or its wire character.
func parseOpcode(s string) (wire.Opcode, error) {
	switch strings.ToLower(s) {
	case "read", "r":
		return wire.OpRead, nil
	case "write", "w":
		return wire.OpWrite, nil
	case "close", "c":
		return wire.OpClose, nil
	default:
		return 0, fmt.Errorf("invalid op: %s (must be read, write, or close)", strconv.Quote(s))
	}
}

// RunView prints the events of path that match filter.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
	return nil
}
