package log

import (
	"context"
	"fmt"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger at Debug level.
// Errors are written at Warn level so they show up without -debug.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	level := slog.LevelDebug
	attrs := []slog.Attr{
		slog.String("conn_id", event.ConnectionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	if event.Board != "" {
		attrs = append(attrs, slog.String("board", event.Board))
	}
	if event.RemoteAddr != "" {
		attrs = append(attrs, slog.String("remote", event.RemoteAddr))
	}

	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("frame_size", event.Frame.Size),
			slog.Bool("truncated", event.Frame.Truncated),
		)
	case event.Transaction != nil:
		tx := event.Transaction
		attrs = append(attrs,
			slog.String("op", tx.Opcode.String()),
			slog.String("addr", fmt.Sprintf("0x%08x", tx.Address)),
			slog.Int("len", tx.Length),
		)
		if tx.Register != "" {
			attrs = append(attrs, slog.String("register", tx.Register))
		}
		if tx.Saturated > 0 {
			attrs = append(attrs, slog.Int("saturated", tx.Saturated))
		}
		if tx.Duration != nil {
			attrs = append(attrs, slog.Duration("rtt", *tx.Duration))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Control != nil:
		attrs = append(attrs, slog.String("ctrl_type", event.Control.Type.String()))
		switch event.Control.Type {
		case ControlAuth:
			attrs = append(attrs, slog.Bool("accepted", event.Control.Accepted))
		case ControlResync:
			attrs = append(attrs,
				slog.Int("drained", event.Control.Drained),
				slog.Int("attempts", event.Control.Attempts),
			)
		}
	case event.Error != nil:
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), level, "bus", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
