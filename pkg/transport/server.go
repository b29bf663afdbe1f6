package transport

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/csrlink/csrlink-go/pkg/log"
	"github.com/csrlink/csrlink-go/pkg/wire"
	"github.com/google/uuid"
)

// ServerConfig configures a register server.
type ServerConfig struct {
	// Address to listen on (e.g., ":2222" or "127.0.0.1:0").
	Address string

	// Token is the expected session token. Empty accepts any
	// well-formed token.
	Token string

	// Memory backs the register space. Nil means a fresh Memory.
	Memory *Memory

	// HandshakeTimeout bounds the arrival of the token (default: 5s).
	HandshakeTimeout time.Duration

	// IdleTimeout closes a session without traffic (0 = never).
	IdleTimeout time.Duration

	// Logger receives operational messages (default: slog.Default()).
	Logger *slog.Logger

	// ProtocolLogger receives protocol capture events (optional).
	ProtocolLogger log.Logger
}

// Server is a reference register server. It serves one authenticated
// session at a time.
type Server struct {
	config   ServerConfig
	listener net.Listener

	connMu  sync.Mutex
	current net.Conn

	sessions atomic.Int64
	running  atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// rejectReply answers a wrong token.
var rejectReply = bytes.Repeat([]byte{'0'}, wire.TokenSize)

// NewServer creates a register server.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Token != "" {
		if err := wire.ValidateToken(config.Token); err != nil {
			return nil, err
		}
	}
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	if config.Memory == nil {
		config.Memory = NewMemory()
	}
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = 5 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	config.ProtocolLogger = log.OrNoop(config.ProtocolLogger)

	return &Server{config: config}, nil
}

// Start listens and begins accepting sessions.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return fmt.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		<-s.ctx.Done()
		s.shutdown()
	}()
	return nil
}

// Stop stops accepting, closes the active session and waits for the
// server goroutines.
func (s *Server) Stop() error {
	if !s.running.Load() {
		return nil
	}
	s.cancel()
	s.wg.Wait()
	return nil
}

func (s *Server) shutdown() {
	s.running.Store(false)
	s.listener.Close()

	s.connMu.Lock()
	if s.current != nil {
		s.current.Close()
	}
	s.connMu.Unlock()
}

// Addr returns the listen address.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// Memory returns the backing store.
func (s *Server) Memory() *Memory {
	return s.config.Memory
}

// Sessions returns the number of sessions accepted so far.
func (s *Server) Sessions() int {
	return int(s.sessions.Load())
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.running.Load() {
				s.config.Logger.Warn("accept failed", "error", err)
			}
			continue
		}

		s.connMu.Lock()
		s.current = conn
		s.connMu.Unlock()

		if err := s.ServeConn(conn); err != nil && s.running.Load() {
			s.config.Logger.Info("session ended", "remote", conn.RemoteAddr(), "error", err)
		}

		s.connMu.Lock()
		s.current = nil
		s.connMu.Unlock()
	}
}

// ServeConn runs one session on conn and closes it. A nil error means the
// client sent a close request.
func (s *Server) ServeConn(conn net.Conn) error {
	defer conn.Close()

	sess := &session{
		server: s,
		conn:   conn,
		connID: uuid.New().String(),
	}
	if ra := conn.RemoteAddr(); ra != nil {
		sess.remote = ra.String()
	}
	sess.state("", "AUTHENTICATING", "")

	if err := sess.authenticate(); err != nil {
		sess.state("AUTHENTICATING", "CLOSED", err.Error())
		return err
	}
	s.sessions.Add(1)
	sess.state("AUTHENTICATING", "READY", "")

	err := sess.serve()
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	sess.state("READY", "CLOSED", reason)
	return err
}

type session struct {
	server *Server
	conn   net.Conn
	connID string
	remote string
}

func (s *session) authenticate() error {
	token := make([]byte, wire.TokenSize)
	_ = s.conn.SetDeadline(time.Now().Add(s.server.config.HandshakeTimeout))
	defer s.conn.SetDeadline(time.Time{})

	if _, err := io.ReadFull(s.conn, token); err != nil {
		return fmt.Errorf("read token: %w", err)
	}

	accepted := wire.ValidateToken(string(token)) == nil
	if want := s.server.config.Token; want != "" {
		accepted = accepted && subtle.ConstantTimeCompare(token, []byte(want)) == 1
	}
	s.emit(log.Event{
		Direction: log.DirectionIn,
		Category:  log.CategoryControl,
		Control:   &log.ControlEvent{Type: log.ControlAuth, Accepted: accepted},
	})

	if !accepted {
		_, _ = s.conn.Write(rejectReply)
		return ErrAuthentication
	}
	if _, err := s.conn.Write(wire.AcceptReply); err != nil {
		return fmt.Errorf("send accept: %w", err)
	}
	return nil
}

func (s *session) serve() error {
	mem := s.server.config.Memory
	hdr := make([]byte, wire.HeaderSize)

	for {
		if idle := s.server.config.IdleTimeout; idle > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(idle))
		}
		if _, err := io.ReadFull(s.conn, hdr); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read header: %w", err)
		}
		s.frame(hdr, log.DirectionIn)

		h, err := wire.DecodeHeader(hdr)
		if err != nil {
			s.emit(log.Event{
				Layer:    log.LayerWire,
				Category: log.CategoryError,
				Error:    &log.ErrorEventData{Layer: log.LayerWire, Message: err.Error(), Context: "decode header"},
			})
			return err
		}

		switch h.Opcode {
		case wire.OpClose:
			s.emit(log.Event{
				Direction: log.DirectionIn,
				Category:  log.CategoryControl,
				Control:   &log.ControlEvent{Type: log.ControlClose},
			})
			return nil

		case wire.OpRead:
			words := mem.Read(h.Address, int(h.Length))
			resp := make([]byte, 0, wire.HeaderSize+h.PayloadSize())
			resp = append(resp, hdr...)
			resp = wire.AppendWords(resp, words)
			if _, err := s.conn.Write(resp); err != nil {
				return fmt.Errorf("send read response: %w", err)
			}
			s.frame(resp, log.DirectionOut)
			s.transaction(h, words, log.DirectionOut)

		case wire.OpWrite:
			payload := make([]byte, h.PayloadSize())
			if _, err := io.ReadFull(s.conn, payload); err != nil {
				return fmt.Errorf("read write payload: %w", err)
			}
			s.frame(payload, log.DirectionIn)
			words, err := wire.DecodeWords(payload)
			if err != nil {
				return err
			}
			mem.Write(h.Address, words)
			if _, err := s.conn.Write(hdr); err != nil {
				return fmt.Errorf("send write echo: %w", err)
			}
			s.frame(hdr, log.DirectionOut)
			s.transaction(h, words, log.DirectionIn)
		}
	}
}

func (s *session) state(from, to, reason string) {
	s.emit(log.Event{
		Category: log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityServer,
			OldState: from,
			NewState: to,
			Reason:   reason,
		},
	})
}

func (s *session) frame(data []byte, dir log.Direction) {
	s.emit(log.Event{
		Direction: dir,
		Layer:     log.LayerTransport,
		Category:  log.CategoryTransaction,
		Frame:     log.NewFrameEvent(data),
	})
}

func (s *session) transaction(h wire.Header, words []uint32, dir log.Direction) {
	s.emit(log.Event{
		Direction:   dir,
		Layer:       log.LayerWire,
		Category:    log.CategoryTransaction,
		Transaction: log.NewTransactionEvent(h.Opcode, h.Address, words),
	})
}

func (s *session) emit(e log.Event) {
	e.Timestamp = time.Now()
	e.ConnectionID = s.connID
	e.LocalRole = log.RoleServer
	e.RemoteAddr = s.remote
	s.server.config.ProtocolLogger.Log(e)
}
