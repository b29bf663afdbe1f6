// Package transport implements the host side of the register bus protocol
// and a reference register server.
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│   Read / Write transactions    │
//	├────────────────────────────────┤
//	│  8-byte header + word payload  │
//	├────────────────────────────────┤
//	│      32-byte token handshake   │
//	├────────────────────────────────┤
//	│              TCP               │
//	└────────────────────────────────┘
//
// # Connection Lifecycle
//
//	Disconnected → Connecting → Authenticating → Ready → Closed
//	                                  │             │
//	                                  └─→ Faulted ←─┘
//
// A Client is dialed and authenticated once. All transactions are
// serialized by a single lock held for the whole request/response cycle.
//
// # Timeouts
//
// Each response must arrive within Config.Timeout. On timeout the client
// drains whatever the server still sends, for at most Config.ResyncAttempts
// short reads, so the next request starts on a clean stream. If the stream
// does not go quiet the client is Faulted and refuses further requests.
package transport
