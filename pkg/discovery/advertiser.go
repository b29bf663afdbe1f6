package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// Advertiser announces a register server.
type Advertiser interface {
	// Advertise starts (or restarts) the announcement.
	Advertise(ctx context.Context, info *BoardInfo) error

	// Update replaces the TXT records of the running announcement.
	Update(info *BoardInfo) error

	// Stop withdraws the announcement.
	Stop() error
}

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL.
	// Default: 120 seconds.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{TTL: 120 * time.Second}
}

// MDNSAdvertiser implements Advertiser using zeroconf.
type MDNSAdvertiser struct {
	config AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewMDNSAdvertiser creates a new mDNS advertiser.
func NewMDNSAdvertiser(config AdvertiserConfig) *MDNSAdvertiser {
	return &MDNSAdvertiser{config: config}
}

// Advertise starts advertising info.
func (a *MDNSAdvertiser) Advertise(ctx context.Context, info *BoardInfo) error {
	instance := info.InstanceName()
	if err := ValidateInstanceName(instance); err != nil {
		return err
	}

	ifaces, err := selectInterface(a.config.Interface)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	port := int(info.Port)
	if port == 0 {
		port = DefaultPort
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		instance,
		ServiceType,
		Domain,
		port,
		TXTRecordsToStrings(EncodeBoardTXT(info)),
		ifaces,
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register %s: %w", instance, err)
	}
	a.server = server
	return nil
}

// Update replaces the TXT records, e.g. after a new design was loaded.
func (a *MDNSAdvertiser) Update(info *BoardInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return ErrNotFound
	}
	a.server.SetText(TXTRecordsToStrings(EncodeBoardTXT(info)))
	return nil
}

// Stop withdraws the announcement. Stopping twice is not an error.
func (a *MDNSAdvertiser) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
	return nil
}

// selectInterface resolves a configured interface name. An empty name
// selects all interfaces and yields nil.
func selectInterface(name string) ([]net.Interface, error) {
	if name == "" {
		return nil, nil
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrUnknownInterface, name, err)
	}
	return []net.Interface{*iface}, nil
}

var _ Advertiser = (*MDNSAdvertiser)(nil)
