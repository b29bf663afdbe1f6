package buildcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/csrlink/csrlink-go/pkg/csrmap"
	"github.com/csrlink/csrlink-go/pkg/device"
	"github.com/csrlink/csrlink-go/pkg/log"
)

// Result file names.
const (
	AddressTableFile = "csr.csv"
	BitstreamFile    = "bitstream.bin"
	MetadataFile     = "build.json"
)

// Cache errors.
var (
	// ErrInvalidKey indicates an empty or unsafe key component.
	ErrInvalidKey = errors.New("invalid cache key")

	// ErrNotCached indicates no result exists for a key.
	ErrNotCached = errors.New("no cached build")

	// ErrNoAddressTable indicates a builder succeeded without an address table.
	ErrNoAddressTable = errors.New("build produced no address table")
)

// Builder is the external hardware toolchain.
type Builder interface {
	// Netlist renders the design of root. Equal netlists mean equal designs.
	Netlist(ctx context.Context, root *device.Node) ([]byte, error)

	// Build compiles the design and returns its address table and bitstream.
	Build(ctx context.Context, root *device.Node) (*csrmap.Map, []byte, error)
}

// Key identifies a build result.
type Key struct {
	Hash    string `json:"hash"`
	Board   string `json:"board"`
	TopType string `json:"top_type"`
}

// Validate checks that every component is a single path segment.
func (k Key) Validate() error {
	for _, part := range []string{k.Board, k.TopType, k.Hash} {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return fmt.Errorf("%w: %q", ErrInvalidKey, part)
		}
	}
	return nil
}

// Path returns the result directory of k below root.
func (k Key) Path(root string) string {
	return filepath.Join(root, k.Board, k.TopType, k.Hash)
}

// String returns board/type/hash.
func (k Key) String() string {
	return k.Board + "/" + k.TopType + "/" + k.Hash
}

// Result locates a build result.
type Result struct {
	Key    Key
	Dir    string
	Reused bool
}

// AddressTablePath returns the path of csr.csv.
func (r Result) AddressTablePath() string {
	return filepath.Join(r.Dir, AddressTableFile)
}

// BitstreamPath returns the path of bitstream.bin.
func (r Result) BitstreamPath() string {
	return filepath.Join(r.Dir, BitstreamFile)
}

// Metadata describes a build result. It is stored as build.json.
type Metadata struct {
	Key           Key       `json:"key"`
	Algorithm     Algorithm `json:"algorithm"`
	BuiltAt       time.Time `json:"built_at"`
	Registers     int       `json:"registers"`
	BitstreamSize int       `json:"bitstream_size"`
}

// Options configures a Cache.
type Options struct {
	// Algorithm selects the digest (default: SHA256).
	Algorithm Algorithm

	// Logger receives build decisions (default: slog.Default()).
	Logger *slog.Logger

	// ProtocolLogger receives a build state event per Ensure (optional).
	ProtocolLogger log.Logger
}

// Cache stores build results below a root directory.
type Cache struct {
	root   string
	algo   Algorithm
	logger *slog.Logger
	plog   log.Logger

	mu sync.Mutex
}

// New creates a cache rooted at root.
func New(root string, opts Options) *Cache {
	if opts.Algorithm == "" {
		opts.Algorithm = SHA256
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Cache{
		root:   root,
		algo:   opts.Algorithm,
		logger: opts.Logger,
		plog:   log.OrNoop(opts.ProtocolLogger),
	}
}

// Root returns the cache directory.
func (c *Cache) Root() string {
	return c.root
}

// KeyFor hashes the netlist of root and returns its cache key. An empty
// topType means the type name of root.
func (c *Cache) KeyFor(ctx context.Context, root *device.Node, board, topType string, b Builder) (Key, error) {
	netlist, err := b.Netlist(ctx, root)
	if err != nil {
		return Key{}, fmt.Errorf("netlist: %w", err)
	}
	hash, err := Digest(netlist, c.algo)
	if err != nil {
		return Key{}, err
	}
	if topType == "" {
		topType = root.Type()
	}
	key := Key{Hash: hash, Board: board, TopType: topType}
	return key, key.Validate()
}

// Ensure returns the result for the design of root, building it when no
// non-empty result directory exists or force is set.
func (c *Cache) Ensure(ctx context.Context, root *device.Node, board, topType string, b Builder, force bool) (Result, error) {
	key, err := c.KeyFor(ctx, root, board, topType, b)
	if err != nil {
		return Result{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dir := key.Path(c.root)
	if !force {
		ok, err := nonEmpty(dir)
		if err != nil {
			return Result{}, err
		}
		if ok {
			c.logger.Info("reusing build", "key", key.String(), "dir", dir)
			c.state(key, "REUSED", "")
			return Result{Key: key, Dir: dir, Reused: true}, nil
		}
	}

	c.logger.Info("building", "key", key.String(), "forced", force)
	table, bitstream, err := b.Build(ctx, root)
	if err == nil && table == nil {
		err = ErrNoAddressTable
	}
	if err != nil {
		c.state(key, "FAILED", err.Error())
		return Result{}, fmt.Errorf("build %s: %w", key, err)
	}
	if err := c.store(key, table, bitstream); err != nil {
		c.state(key, "FAILED", err.Error())
		return Result{}, err
	}
	reason := ""
	if force {
		reason = "forced"
	}
	c.state(key, "BUILT", reason)
	return Result{Key: key, Dir: dir}, nil
}

func (c *Cache) state(key Key, state, reason string) {
	c.plog.Log(log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionOut,
		Layer:     log.LayerRegister,
		Category:  log.CategoryState,
		Board:     key.Board,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityBuild,
			NewState: state,
			Reason:   strings.TrimSpace(key.TopType + "/" + key.Hash + " " + reason),
		},
	})
}

// store writes the result into a temporary sibling directory and renames
// it into place, so an interrupted build never looks reusable.
func (c *Cache) store(key Key, table *csrmap.Map, bitstream []byte) error {
	dir := key.Path(c.root)
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return err
	}
	tmp, err := os.MkdirTemp(parent, "."+key.Hash+"-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	if err := writeFile(filepath.Join(tmp, AddressTableFile), table.Write); err != nil {
		return fmt.Errorf("write address table: %w", err)
	}
	if err := os.WriteFile(filepath.Join(tmp, BitstreamFile), bitstream, 0644); err != nil {
		return fmt.Errorf("write bitstream: %w", err)
	}

	meta := Metadata{
		Key:           key,
		Algorithm:     c.algo,
		BuiltAt:       time.Now().UTC(),
		Registers:     table.Len(),
		BitstreamSize: len(bitstream),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(tmp, MetadataFile), data, 0644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.Rename(tmp, dir)
}

// Lookup returns the cached result for key.
func (c *Cache) Lookup(key Key) (Result, error) {
	if err := key.Validate(); err != nil {
		return Result{}, err
	}
	dir := key.Path(c.root)
	ok, err := nonEmpty(dir)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrNotCached, key)
	}
	return Result{Key: key, Dir: dir, Reused: true}, nil
}

// Clear removes the result for key. Clearing a missing result is not an
// error.
func (c *Cache) Clear(key Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(key.Path(c.root))
}

// AddressMap loads the address table of a result.
func (c *Cache) AddressMap(r Result) (*csrmap.Map, error) {
	return csrmap.Load(r.AddressTablePath())
}

// Metadata loads build.json of a result.
func (c *Cache) Metadata(r Result) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(r.Dir, MetadataFile))
	if err != nil {
		return nil, err
	}
	meta := &Metadata{}
	if err := json.Unmarshal(data, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func nonEmpty(dir string) (bool, error) {
	f, err := os.Open(dir)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	return err == nil, err
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
