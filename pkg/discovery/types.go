package discovery

import (
	"errors"
	"net"
	"strconv"
	"time"
)

const (
	// ServiceType is the mDNS service type of register servers.
	ServiceType = "_csrlink._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the register server port.
	DefaultPort = 2222

	// InstancePrefix starts every instance name.
	InstancePrefix = "csrlink-"

	// ProtocolVersion is advertised in the ver record.
	ProtocolVersion = "1"

	// BrowseTimeout is the default timeout for Find.
	BrowseTimeout = 3 * time.Second

	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63
)

// TXT record keys.
const (
	TXTKeyBoard   = "board" // Board identifier (required)
	TXTKeyType    = "type"  // Top-level design type (required)
	TXTKeyHash    = "hash"  // Design digest (optional)
	TXTKeyVersion = "ver"   // Protocol version (required)
)

// Discovery errors.
var (
	ErrNotFound            = errors.New("service not found")
	ErrMissingRequired     = errors.New("missing required TXT field")
	ErrInvalidTXTRecord    = errors.New("invalid TXT record")
	ErrInstanceNameTooLong = errors.New("instance name too long")
	ErrUnknownInterface    = errors.New("unknown network interface")
)

// BoardInfo is what a register server advertises.
type BoardInfo struct {
	// Name distinguishes boards of the same kind, e.g. the hostname.
	Name string

	// Board identifies the hardware platform.
	Board string

	// TopType is the type name of the loaded design.
	TopType string

	// Hash is the digest of the loaded design.
	Hash string

	// Port is the register server port (default: DefaultPort).
	Port uint16
}

// InstanceName returns the mDNS instance name.
func (i *BoardInfo) InstanceName() string {
	name := InstancePrefix + i.Name
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}
	return name
}

// BoardService is a discovered register server.
type BoardService struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string

	Board   string
	TopType string
	Hash    string
}

// Name returns the instance name without the prefix.
func (s *BoardService) Name() string {
	if len(s.InstanceName) > len(InstancePrefix) && s.InstanceName[:len(InstancePrefix)] == InstancePrefix {
		return s.InstanceName[len(InstancePrefix):]
	}
	return s.InstanceName
}

// Address returns host:port of the first resolved address, falling back
// to the advertised host name.
func (s *BoardService) Address() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return net.JoinHostPort(host, strconv.Itoa(int(s.Port)))
}
