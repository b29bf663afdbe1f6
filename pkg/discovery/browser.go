package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// Browser finds register servers.
type Browser interface {
	// Browse reports each register server once, as soon as it is seen.
	// The channel is closed when ctx is done or browsing fails.
	Browse(ctx context.Context) (<-chan *BoardService, error)

	// Find returns the server whose name (instance name without prefix)
	// matches, or any server when name is empty.
	Find(ctx context.Context, name string) (*BoardService, error)

	// Stop stops all active browsing.
	Stop()
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// BrowseTimeout bounds Find when ctx has no deadline.
	// Default: 3 seconds.
	BrowseTimeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{BrowseTimeout: BrowseTimeout}
}

// ServiceEntry is a resolved mDNS service, independent of the mDNS library.
type ServiceEntry struct {
	Instance string
	Host     string
	Port     uint16
	Text     []string
	Addrs    []string
}

// ToBoardService converts the entry, validating its TXT records.
func (e *ServiceEntry) ToBoardService() (*BoardService, error) {
	info, err := DecodeBoardTXT(StringsToTXTRecords(e.Text))
	if err != nil {
		return nil, err
	}
	return &BoardService{
		InstanceName: e.Instance,
		Host:         strings.TrimSuffix(e.Host, "."),
		Port:         e.Port,
		Addresses:    append([]string(nil), e.Addrs...),
		Board:        info.Board,
		TopType:      info.TopType,
		Hash:         info.Hash,
	}, nil
}

func fromZeroconf(entry *zeroconf.ServiceEntry) *ServiceEntry {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	return &ServiceEntry{
		Instance: entry.Instance,
		Host:     entry.HostName,
		Port:     uint16(entry.Port),
		Text:     entry.Text,
		Addrs:    addrs,
	}
}

// aggregator merges the per-interface announcements of one instance.
type aggregator struct {
	services map[string]*BoardService
}

func newAggregator() *aggregator {
	return &aggregator{services: make(map[string]*BoardService)}
}

// add records an entry and returns the service if it is new.
func (a *aggregator) add(e *ServiceEntry) *BoardService {
	svc, err := e.ToBoardService()
	if err != nil {
		return nil
	}
	if existing, found := a.services[svc.InstanceName]; found {
		existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
		return nil
	}
	a.services[svc.InstanceName] = svc
	return svc
}

// remove drops the addresses of an entry, and the service once none remain.
func (a *aggregator) remove(e *ServiceEntry) {
	existing, found := a.services[e.Instance]
	if !found {
		return
	}
	existing.Addresses = removeAddresses(existing.Addresses, e.Addrs)
	if len(existing.Addresses) == 0 {
		delete(a.services, e.Instance)
	}
}

// MDNSBrowser implements Browser using zeroconf.
type MDNSBrowser struct {
	config BrowserConfig

	mu     sync.Mutex
	cancel []context.CancelFunc
}

// NewMDNSBrowser creates a new mDNS browser.
func NewMDNSBrowser(config BrowserConfig) *MDNSBrowser {
	if config.BrowseTimeout <= 0 {
		config.BrowseTimeout = BrowseTimeout
	}
	return &MDNSBrowser{config: config}
}

// browseFunc runs the mDNS query until ctx is done; tests replace it.
var browseFunc = func(ctx context.Context, entries, removed chan *zeroconf.ServiceEntry, opts []zeroconf.ClientOption) error {
	return zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, opts...)
}

// Browse searches for register servers. Addresses announced on several
// interfaces are combined into a single entry.
func (b *MDNSBrowser) Browse(ctx context.Context) (<-chan *BoardService, error) {
	out, _, err := b.browse(ctx)
	return out, err
}

// browse is Browse that also reports a failed mDNS query on errc.
func (b *MDNSBrowser) browse(ctx context.Context) (<-chan *BoardService, <-chan error, error) {
	opts, err := b.options()
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancel = append(b.cancel, cancel)
	b.mu.Unlock()

	out := make(chan *BoardService)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		defer close(out)
		agg := newAggregator()
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc := agg.add(fromZeroconf(entry))
				if svc == nil {
					continue
				}
				select {
				case out <- svc:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-removed:
				if !ok {
					removed = nil
					continue
				}
				agg.remove(fromZeroconf(entry))

			case <-ctx.Done():
				return
			}
		}
	}()

	errc := make(chan error, 1)
	go func() {
		err := browseFunc(ctx, entries, removed, opts)
		if err != nil && ctx.Err() == nil {
			errc <- fmt.Errorf("browse %s: %w", ServiceType, err)
			cancel()
		}
	}()

	return out, errc, nil
}

// Find returns the first server matching name.
func (b *MDNSBrowser) Find(ctx context.Context, name string) (*BoardService, error) {
	var cancel context.CancelFunc
	if _, ok := ctx.Deadline(); ok {
		ctx, cancel = context.WithCancel(ctx)
	} else {
		ctx, cancel = context.WithTimeout(ctx, b.config.BrowseTimeout)
	}
	defer cancel()

	results, errc, err := b.browse(ctx)
	if err != nil {
		return nil, err
	}
	for {
		select {
		case svc, ok := <-results:
			if !ok {
				select {
				case err := <-errc:
					return nil, err
				default:
					return nil, ErrNotFound
				}
			}
			if name == "" || svc.Name() == name {
				return svc, nil
			}
		case err := <-errc:
			return nil, err
		case <-ctx.Done():
			return nil, ErrNotFound
		}
	}
}

// Stop stops all active browsing operations.
func (b *MDNSBrowser) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, cancel := range b.cancel {
		cancel()
	}
	b.cancel = nil
}

func (b *MDNSBrowser) options() ([]zeroconf.ClientOption, error) {
	ifaces, err := selectInterface(b.config.Interface)
	if err != nil || ifaces == nil {
		return nil, err
	}
	return []zeroconf.ClientOption{zeroconf.SelectIfaces(ifaces)}, nil
}

// mergeAddresses adds new addresses to the existing list, avoiding duplicates.
func mergeAddresses(existing, added []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}
	for _, addr := range added {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses returns addresses without those in gone.
func removeAddresses(addresses, gone []string) []string {
	drop := make(map[string]bool, len(gone))
	for _, addr := range gone {
		drop[addr] = true
	}
	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !drop[addr] {
			result = append(result, addr)
		}
	}
	return result
}

var _ Browser = (*MDNSBrowser)(nil)
