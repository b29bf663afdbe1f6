// Package wire defines the binary framing used between a host and a
// register server.
//
// Every request starts with a fixed 8-byte header. Multi-byte fields are
// little-endian:
//
//	┌────────┬──────────┬────────┬────────┬──────────────────────┐
//	│ opcode │ reserved │ len_lo │ len_hi │ address (4 bytes LE) │
//	└────────┴──────────┴────────┴────────┴──────────────────────┘
//
// Opcodes are the ASCII letters 'r' (read), 'w' (write) and 'c' (close).
// The length field counts 32-bit words, not bytes.
//
// # Exchanges
//
// Write: the host sends header + length*4 payload bytes and the server
// answers with an exact copy of the header.
//
// Read: the host sends the header and the server answers with an exact copy
// of the header followed by length*4 payload bytes.
//
// Close: the host sends the close header; no answer is expected.
//
// # Authentication
//
// Right after connecting the host sends a 32-character ASCII token. The
// server accepts the session by answering 32 ASCII '1' bytes.
package wire
