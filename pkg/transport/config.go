package transport

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/csrlink/csrlink-go/pkg/log"
)

// Defaults.
const (
	// DefaultPort is the TCP port of the register server.
	DefaultPort = 2222

	// DefaultTimeout bounds the arrival of one complete response.
	DefaultTimeout = time.Second

	// DefaultResyncAttempts bounds the short reads of a resync drain.
	DefaultResyncAttempts = 100

	// DefaultResyncInterval is the read deadline of one drain step. A step
	// that receives nothing within it counts as quiet.
	DefaultResyncInterval = 10 * time.Millisecond
)

// DialFunc opens the underlying stream. It defaults to net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Config configures a Client.
type Config struct {
	// Host is the board address.
	Host string

	// Board labels protocol capture events (optional).
	Board string

	// Port is the register server port (default: 2222).
	Port int

	// Token is the session token. Empty means NewToken.
	Token string

	// Timeout bounds the arrival of one complete response (default: 1s).
	Timeout time.Duration

	// ResyncAttempts bounds the drain after a timeout (default: 100).
	ResyncAttempts int

	// ResyncInterval is the read deadline of one drain step (default: 10ms).
	ResyncInterval time.Duration

	// DialAttempts is the number of dial attempts (default: 1).
	DialAttempts int

	// DialBackoff spaces dial attempts.
	DialBackoff BackoffConfig

	// Dial overrides the TCP dialer, for tests and tunnels.
	Dial DialFunc

	// Logger receives operational warnings (default: slog.Default()).
	Logger *slog.Logger

	// ProtocolLogger receives protocol capture events (optional).
	ProtocolLogger log.Logger
}

// DefaultConfig returns the configuration for host with all defaults set.
func DefaultConfig(host string) Config {
	c := Config{Host: host}
	c.applyDefaults()
	return c
}

// Address returns host:port.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ResyncAttempts <= 0 {
		c.ResyncAttempts = DefaultResyncAttempts
	}
	if c.ResyncInterval <= 0 {
		c.ResyncInterval = DefaultResyncInterval
	}
	if c.DialAttempts <= 0 {
		c.DialAttempts = 1
	}
	if c.Dial == nil {
		var d net.Dialer
		c.Dial = d.DialContext
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	c.ProtocolLogger = log.OrNoop(c.ProtocolLogger)
}
