package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/csrlink/csrlink-go/pkg/buildcache"
	"github.com/csrlink/csrlink-go/pkg/interaction"
	"github.com/csrlink/csrlink-go/pkg/log"
	"github.com/csrlink/csrlink-go/pkg/transport"
	"github.com/csrlink/csrlink-go/pkg/wire"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CSRLINK_"

// Default directories, relative to the working directory.
const (
	DefaultResultPath = "out"
	DefaultBuildPath  = "build"
)

// ErrInvalid reports a setting that failed validation.
var ErrInvalid = errors.New("invalid setting")

// LoadError describes a settings file or variable that could not be used.
type LoadError struct {
	// File is the settings file or the environment variable name.
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.File + ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Config holds the settings shared by the csrlink commands.
type Config struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Token          string        `yaml:"token"`
	Timeout        time.Duration `yaml:"timeout"`
	ResyncAttempts int           `yaml:"resync_attempts"`
	DialAttempts   int           `yaml:"dial_attempts"`

	// ResultPath holds one directory per built design (csr.csv, bitstream).
	ResultPath string `yaml:"result_path"`

	// BuildPath is the scratch directory for builds.
	BuildPath string `yaml:"build_path"`

	Board   string `yaml:"board"`
	RAMBase uint32 `yaml:"ram_base"`

	// Digest names the build cache hash, "sha256" or "blake2b".
	Digest string `yaml:"digest"`

	// ProtocolLog is a CBOR capture file. Empty disables capture.
	ProtocolLog string `yaml:"protocol_log"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Port:           transport.DefaultPort,
		Timeout:        transport.DefaultTimeout,
		ResyncAttempts: transport.DefaultResyncAttempts,
		DialAttempts:   1,
		ResultPath:     DefaultResultPath,
		BuildPath:      DefaultBuildPath,
		RAMBase:        interaction.DefaultRAMBase,
		Digest:         string(buildcache.SHA256),
	}
}

// Load reads settings from path, applies the process environment and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, &LoadError{File: path, Message: "failed to parse YAML", Cause: err}
		}
	}
	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Parse decodes YAML settings over the defaults without consulting the
// environment.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, &LoadError{Message: "failed to parse YAML", Cause: err}
	}
	return c, nil
}

// ApplyEnv overrides settings from variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for _, o := range c.overrides() {
		name := EnvPrefix + strings.ToUpper(o.key)
		v, ok := lookup(name)
		if !ok {
			continue
		}
		if err := o.set(strings.TrimSpace(v)); err != nil {
			return &LoadError{File: name, Message: "invalid value", Cause: err}
		}
	}
	return nil
}

type override struct {
	key string
	set func(string) error
}

func (c *Config) overrides() []override {
	str := func(p *string) func(string) error {
		return func(v string) error { *p = v; return nil }
	}
	num := func(p *int) func(string) error {
		return func(v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			*p = n
			return nil
		}
	}
	return []override{
		{"host", str(&c.Host)},
		{"port", num(&c.Port)},
		{"token", str(&c.Token)},
		{"timeout", func(v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return err
			}
			c.Timeout = d
			return nil
		}},
		{"resync_attempts", num(&c.ResyncAttempts)},
		{"dial_attempts", num(&c.DialAttempts)},
		{"result_path", str(&c.ResultPath)},
		{"build_path", str(&c.BuildPath)},
		{"board", str(&c.Board)},
		{"ram_base", func(v string) error {
			n, err := strconv.ParseUint(v, 0, 32)
			if err != nil {
				return err
			}
			c.RAMBase = uint32(n)
			return nil
		}},
		{"digest", str(&c.Digest)},
		{"protocol_log", str(&c.ProtocolLog)},
	}
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: port %d out of range", ErrInvalid, c.Port))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: timeout must be positive", ErrInvalid))
	}
	if c.ResyncAttempts <= 0 {
		errs = append(errs, fmt.Errorf("%w: resync_attempts must be positive", ErrInvalid))
	}
	if c.DialAttempts <= 0 {
		errs = append(errs, fmt.Errorf("%w: dial_attempts must be positive", ErrInvalid))
	}
	if c.Token != "" {
		if err := wire.ValidateToken(c.Token); err != nil {
			errs = append(errs, fmt.Errorf("%w: token: %w", ErrInvalid, err))
		}
	}
	switch buildcache.Algorithm(c.Digest) {
	case "", buildcache.SHA256, buildcache.BLAKE2b:
	default:
		errs = append(errs, fmt.Errorf("%w: digest %q", ErrInvalid, c.Digest))
	}
	return errors.Join(errs...)
}

// Transport returns the client configuration for these settings.
func (c *Config) Transport(logger *slog.Logger, protocol log.Logger) transport.Config {
	tc := transport.DefaultConfig(c.Host)
	tc.Board = c.Board
	tc.Port = c.Port
	tc.Token = c.Token
	tc.Timeout = c.Timeout
	tc.ResyncAttempts = c.ResyncAttempts
	tc.DialAttempts = c.DialAttempts
	if logger != nil {
		tc.Logger = logger
	}
	if protocol != nil {
		tc.ProtocolLogger = protocol
	}
	return tc
}

// Interaction returns the register interface options.
func (c *Config) Interaction(logger *slog.Logger, protocol log.Logger) interaction.Options {
	return interaction.Options{RAMBase: c.RAMBase, Logger: logger, ProtocolLogger: protocol}
}

// Cache opens the build cache at ResultPath.
func (c *Config) Cache(logger *slog.Logger) *buildcache.Cache {
	return buildcache.New(c.ResultPath, buildcache.Options{
		Algorithm: buildcache.Algorithm(c.Digest),
		Logger:    logger,
	})
}
