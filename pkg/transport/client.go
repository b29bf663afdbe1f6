package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/csrlink/csrlink-go/pkg/log"
	"github.com/csrlink/csrlink-go/pkg/wire"
	"github.com/google/uuid"
)

// Client errors.
var (
	// ErrAuthentication indicates the server did not accept the token.
	ErrAuthentication = errors.New("authentication failed")

	// ErrProtocol indicates a response that does not echo the request.
	ErrProtocol = errors.New("protocol error")

	// ErrTimeout indicates a response that did not arrive in time.
	ErrTimeout = errors.New("timeout")

	// ErrFaulted indicates the client lost synchronization with the server.
	ErrFaulted = errors.New("connection faulted")

	// ErrClosed indicates the client was closed.
	ErrClosed = errors.New("connection closed")

	// ErrInvalidLength indicates a negative word count.
	ErrInvalidLength = errors.New("invalid length")
)

// Client is an authenticated connection to a register server.
// It is safe for concurrent use; transactions are serialized.
type Client struct {
	cfg    Config
	token  string
	connID string
	conn   net.Conn
	remote string

	state atomic.Int32

	// mu is held for the whole request/response cycle.
	mu sync.Mutex
}

// Dial connects to the server at cfg.Address() and authenticates.
// The context bounds dialing only.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	c, err := newClient(cfg)
	if err != nil {
		return nil, err
	}

	c.setState(StateConnecting, "")
	conn, err := c.dial(ctx)
	if err != nil {
		c.setState(StateDisconnected, err.Error())
		return nil, err
	}
	if err := c.handshake(conn); err != nil {
		return nil, err
	}
	return c, nil
}

// Open authenticates over an already established stream. The client owns
// conn afterwards.
func Open(conn net.Conn, cfg Config) (*Client, error) {
	c, err := newClient(cfg)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := c.handshake(conn); err != nil {
		return nil, err
	}
	return c, nil
}

func newClient(cfg Config) (*Client, error) {
	cfg.applyDefaults()
	token := cfg.Token
	if token == "" {
		token = NewToken()
	}
	if err := wire.ValidateToken(token); err != nil {
		return nil, err
	}
	c := &Client{
		cfg:    cfg,
		token:  token,
		connID: uuid.New().String(),
	}
	c.state.Store(int32(StateDisconnected))
	return c, nil
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	addr := c.cfg.Address()
	backoff := NewBackoff(c.cfg.DialBackoff)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.DialAttempts; attempt++ {
		conn, err := c.cfg.Dial(ctx, "tcp", addr)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if attempt == c.cfg.DialAttempts || ctx.Err() != nil {
			break
		}

		delay := backoff.Next()
		c.cfg.Logger.Debug("dial failed, retrying", "addr", addr, "attempt", attempt, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("dial %s: %w", addr, ctx.Err())
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("dial %s: %w", addr, lastErr)
}

func (c *Client) handshake(conn net.Conn) error {
	c.conn = conn
	if ra := conn.RemoteAddr(); ra != nil {
		c.remote = ra.String()
	}
	c.setState(StateAuthenticating, "")

	_ = conn.SetDeadline(time.Now().Add(c.cfg.Timeout))
	reply := make([]byte, wire.TokenSize)
	_, err := io.WriteString(conn, c.token)
	if err == nil {
		_, err = io.ReadFull(conn, reply)
	}
	_ = conn.SetDeadline(time.Time{})

	accepted := err == nil && wire.IsAccept(reply)
	c.emit(log.Event{
		Direction: log.DirectionIn,
		Category:  log.CategoryControl,
		Control:   &log.ControlEvent{Type: log.ControlAuth, Accepted: accepted},
	})
	if accepted {
		c.setState(StateReady, "")
		return nil
	}

	conn.Close()
	c.setState(StateFaulted, "authentication failed")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	return fmt.Errorf("%w: server rejected token", ErrAuthentication)
}

// Read reads length consecutive words starting at addr. Lengths above
// wire.MaxReadLength are capped with a warning.
func (c *Client) Read(ctx context.Context, addr uint32, length int) ([]uint32, error) {
	if length < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}
	if length > wire.MaxReadLength {
		c.cfg.Logger.Warn("read length capped", "addr", fmt.Sprintf("0x%08x", addr), "requested", length, "max", wire.MaxReadLength)
		length = wire.MaxReadLength
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.usable(); err != nil {
		return nil, err
	}
	if length == 0 {
		return []uint32{}, nil
	}

	h := wire.ReadHeader(addr, uint16(length))
	enc := h.Encode()
	start := time.Now()
	if err := c.send(enc[:]); err != nil {
		return nil, err
	}

	resp, err := c.receive(wire.HeaderSize + h.PayloadSize())
	if err != nil {
		return nil, c.fail(h, len(resp), wire.HeaderSize+h.PayloadSize(), err)
	}
	if !h.IsEcho(resp[:wire.HeaderSize]) {
		return nil, c.mismatch(h, resp[:wire.HeaderSize])
	}

	words, err := wire.DecodeWords(resp[wire.HeaderSize:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProtocol, err)
	}
	c.logTransaction(h, words, time.Since(start), log.DirectionIn)
	return words, nil
}

// Write writes values to consecutive words starting at addr. More than
// wire.MaxWriteLength values are capped with a warning.
func (c *Client) Write(ctx context.Context, addr uint32, values []uint32) error {
	if len(values) > wire.MaxWriteLength {
		c.cfg.Logger.Warn("write length capped", "addr", fmt.Sprintf("0x%08x", addr), "requested", len(values), "max", wire.MaxWriteLength)
		values = values[:wire.MaxWriteLength]
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.usable(); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}

	h, frame := wire.EncodeWriteRequest(addr, values)
	start := time.Now()
	if err := c.send(frame); err != nil {
		return err
	}

	ack, err := c.receive(wire.HeaderSize)
	if err != nil {
		return c.fail(h, len(ack), wire.HeaderSize, err)
	}
	if !h.IsEcho(ack) {
		return c.mismatch(h, ack)
	}
	c.logTransaction(h, values, time.Since(start), log.DirectionOut)
	return nil
}

// Close sends the close request and closes the socket. Transport errors
// are ignored; Close is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.State()
	if state == StateClosed || c.conn == nil {
		return nil
	}

	if state == StateReady {
		enc := wire.CloseHeader().Encode()
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.Timeout))
		if _, err := c.conn.Write(enc[:]); err == nil {
			c.emit(log.Event{
				Direction: log.DirectionOut,
				Category:  log.CategoryControl,
				Control:   &log.ControlEvent{Type: log.ControlClose},
			})
		}
	}
	_ = c.conn.Close()
	c.setState(StateClosed, "")
	return nil
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// ConnectionID returns the identifier used in protocol capture.
func (c *Client) ConnectionID() string {
	return c.connID
}

// Token returns the session token.
func (c *Client) Token() string {
	return c.token
}

// RemoteAddr returns the server address.
func (c *Client) RemoteAddr() string {
	return c.remote
}

func (c *Client) usable() error {
	switch c.State() {
	case StateReady:
		return nil
	case StateFaulted:
		return ErrFaulted
	default:
		return ErrClosed
	}
}

func (c *Client) send(data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.Timeout))
	n, err := c.conn.Write(data)
	c.logFrame(data[:n], log.DirectionOut)
	if err != nil {
		// A partial request cannot be taken back.
		c.setState(StateFaulted, err.Error())
		return fmt.Errorf("%w: send: %w", ErrFaulted, err)
	}
	return nil
}

// receive accumulates exactly n bytes within the configured timeout.
func (c *Client) receive(n int) ([]byte, error) {
	buf := make([]byte, n)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.Timeout))
	m, err := io.ReadFull(c.conn, buf)
	if m > 0 {
		c.logFrame(buf[:m], log.DirectionIn)
	}
	return buf[:m], err
}

func (c *Client) fail(h wire.Header, got, want int, err error) error {
	if !isTimeout(err) {
		c.setState(StateFaulted, err.Error())
		c.logError(h, err)
		return fmt.Errorf("%w: %s: %w", ErrFaulted, h, err)
	}

	if !c.resync() {
		c.setState(StateFaulted, "stream did not go quiet")
	}
	err = fmt.Errorf("%w: %s: received %d of %d bytes within %v", ErrTimeout, h, got, want, c.cfg.Timeout)
	c.logError(h, err)
	return err
}

func (c *Client) mismatch(h wire.Header, ack []byte) error {
	c.resync()
	c.setState(StateFaulted, "echo mismatch")
	err := fmt.Errorf("%w: %s: echo % x", ErrProtocol, h, ack)
	c.logError(h, err)
	return err
}

// resync drains the stream until a read step stays empty or the attempt
// budget is spent. It reports whether the stream went quiet.
func (c *Client) resync() bool {
	buf := make([]byte, 4096)
	drained, attempts := 0, 0
	quiet := false

	for attempts < c.cfg.ResyncAttempts {
		attempts++
		_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.ResyncInterval))
		n, err := c.conn.Read(buf)
		drained += n
		if err == nil {
			continue
		}
		if isTimeout(err) {
			if n == 0 {
				quiet = true
				break
			}
			continue
		}
		break
	}
	_ = c.conn.SetReadDeadline(time.Time{})

	c.cfg.Logger.Warn("resynchronized bus stream", "conn_id", c.connID, "drained", drained, "attempts", attempts, "quiet", quiet)
	c.emit(log.Event{
		Direction: log.DirectionIn,
		Category:  log.CategoryControl,
		Control:   &log.ControlEvent{Type: log.ControlResync, Drained: drained, Attempts: attempts},
	})
	return quiet
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func (c *Client) setState(s State, reason string) {
	old := State(c.state.Swap(int32(s)))
	if old == s {
		return
	}
	c.emit(log.Event{
		Category: log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: old.String(),
			NewState: s.String(),
			Reason:   reason,
		},
	})
}

func (c *Client) logFrame(data []byte, dir log.Direction) {
	c.emit(log.Event{
		Direction: dir,
		Layer:     log.LayerTransport,
		Category:  log.CategoryTransaction,
		Frame:     log.NewFrameEvent(data),
	})
}

func (c *Client) logTransaction(h wire.Header, words []uint32, rtt time.Duration, dir log.Direction) {
	tx := log.NewTransactionEvent(h.Opcode, h.Address, words)
	tx.Duration = &rtt
	c.emit(log.Event{
		Direction:   dir,
		Layer:       log.LayerWire,
		Category:    log.CategoryTransaction,
		Transaction: tx,
	})
}

func (c *Client) logError(h wire.Header, err error) {
	c.emit(log.Event{
		Layer:    log.LayerWire,
		Category: log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerWire,
			Message: err.Error(),
			Context: h.String(),
		},
	})
}

func (c *Client) emit(e log.Event) {
	e.Timestamp = time.Now()
	e.ConnectionID = c.connID
	e.LocalRole = log.RoleClient
	e.RemoteAddr = c.remote
	e.Board = c.cfg.Board
	c.cfg.ProtocolLogger.Log(e)
}
