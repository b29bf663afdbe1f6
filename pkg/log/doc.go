// Package log provides structured protocol capture for the register bus.
//
// This package defines the Logger interface and Event types for capturing
// bus traffic at several layers (raw bytes, decoded transactions, named
// register accesses). It is separate from operational logging (slog):
// protocol capture provides a complete machine-readable trace for
// debugging a board.
//
// # Basic Usage
//
// Applications configure capture by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For long runs: write to a binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/csrlink/bus.clog")
//
//	// Both: use MultiLogger
//	cfg.ProtocolLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
//   - Transport: raw bytes sent and received (FrameEvent)
//   - Wire: decoded read/write transactions (TransactionEvent)
//   - Register: named register accesses (TransactionEvent with Register set)
//
// Authentication, close and resync have ControlEvent; connection state
// changes and errors have dedicated event types.
//
// # File Format
//
// Capture files are a stream of CBOR-encoded events with the .clog
// extension. The csrlink-log tool views and summarizes them.
package log
