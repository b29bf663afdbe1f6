// Command csrlink-shell is an interactive register console.
//
// The shell attaches a component manifest to a running board. The board
// is given by -host or found via mDNS by -find; in the latter case the
// build result is located in the result cache from the advertised design
// hash.
//
// Usage:
//
//	csrlink-shell [flags]
//
// Flags:
//
//	-config string     Settings file (YAML)
//	-manifest string   Component manifest (required)
//	-host string       Board address
//	-find string       Board name to discover via mDNS
//	-result string     Build result directory holding csr.csv
//	-token string      Session token
//	-log-level string  Log level: debug, info, warn, error (default "warn")
//
// Examples:
//
//	# Connect to a simulator
//	csrlink-shell -manifest led.yaml -host 127.0.0.1 -token <token> -result out/sim/LedBlock/3f2a
//
//	# Discover a board on the local network
//	csrlink-shell -manifest led.yaml -find redpitaya -token <token>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"strings"

	"github.com/chzyer/readline"

	"github.com/csrlink/csrlink-go/pkg/buildcache"
	"github.com/csrlink/csrlink-go/pkg/config"
	"github.com/csrlink/csrlink-go/pkg/device"
	"github.com/csrlink/csrlink-go/pkg/discovery"
	"github.com/csrlink/csrlink-go/pkg/interaction"
	plog "github.com/csrlink/csrlink-go/pkg/log"
)

// Options holds the command line.
type Options struct {
	ConfigFile string
	Manifest   string
	Host       string
	Find       string
	ResultDir  string
	Token      string
	LogLevel   string
}

var opts Options

func init() {
	flag.StringVar(&opts.ConfigFile, "config", "", "Settings file (YAML)")
	flag.StringVar(&opts.Manifest, "manifest", "", "Component manifest (required)")
	flag.StringVar(&opts.Host, "host", "", "Board address")
	flag.StringVar(&opts.Find, "find", "", "Board name to discover via mDNS")
	flag.StringVar(&opts.ResultDir, "result", "", "Build result directory holding csr.csv")
	flag.StringVar(&opts.Token, "token", "", "Session token")
	flag.StringVar(&opts.LogLevel, "log-level", "warn", "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if opts.Manifest == "" {
		log.Fatalf("-manifest is required")
	}
	if opts.Host != "" {
		cfg.Host = opts.Host
	}
	if opts.Token != "" {
		cfg.Token = opts.Token
	}

	m, err := device.LoadManifest(opts.Manifest)
	if err != nil {
		log.Fatalf("Failed to load manifest: %v", err)
	}
	root, err := device.Build(m)
	if err != nil {
		log.Fatalf("Invalid manifest: %v", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "csr> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		log.Fatalf("Failed to create readline: %v", err)
	}
	defer rl.Close()

	// Route logs through readline so they do not interfere with input.
	log.SetOutput(rl.Stderr())
	logger := slog.New(slog.NewTextHandler(rl.Stderr(), &slog.HandlerOptions{Level: parseLevel(opts.LogLevel)}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resultDir := opts.ResultDir
	if cfg.Host == "" {
		if opts.Find == "" {
			log.Fatalf("one of -host or -find is required")
		}
		svc, err := discover(ctx, opts.Find)
		if err != nil {
			log.Fatalf("Discovery failed: %v", err)
		}
		if cfg.Host, _, err = net.SplitHostPort(svc.Address()); err != nil {
			log.Fatalf("Discovery failed: %v", err)
		}
		cfg.Port = int(svc.Port)
		if resultDir == "" {
			resultDir, err = cachedResult(cfg, svc)
			if err != nil {
				log.Fatalf("No build result for %s: %v", svc.Name(), err)
			}
		}
	}
	if resultDir == "" {
		log.Fatalf("-result is required")
	}

	var sinks []plog.Logger
	if cfg.ProtocolLog != "" {
		fl, err := plog.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			log.Fatalf("Failed to open protocol log: %v", err)
		}
		defer fl.Close()
		sinks = append(sinks, fl)
	}
	if opts.LogLevel == "debug" {
		sinks = append(sinks, plog.NewSlogAdapter(logger))
	}
	var protocol plog.Logger
	if len(sinks) > 0 {
		protocol = plog.NewMultiLogger(sinks...)
	}

	iface, err := interaction.Connect(ctx, resultDir, cfg.Transport(logger, protocol), cfg.Interaction(logger, protocol))
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", cfg.Host, err)
	}
	defer iface.Stop()

	handle, err := interaction.Attach(root, iface)
	if err != nil {
		log.Fatalf("Address table does not match manifest: %v", err)
	}

	fmt.Fprintf(rl.Stdout(), "Connected to %s:%d (%d registers)\n", cfg.Host, cfg.Port, len(handle.Registers()))
	run(ctx, rl, NewShell(handle, rl.Stdout()))
}

// run is the interactive loop.
func run(ctx context.Context, rl *readline.Instance, sh *Shell) {
	sh.printHelp()
	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if !errors.Is(err, io.EOF) {
				fmt.Fprintf(rl.Stdout(), "Error: %v\n", err)
			}
			return
		}
		if !sh.Execute(ctx, strings.TrimSpace(line)) {
			return
		}
	}
}

// discover resolves a board by name.
func discover(ctx context.Context, name string) (*discovery.BoardService, error) {
	browser := discovery.NewMDNSBrowser(discovery.DefaultBrowserConfig())
	defer browser.Stop()

	svc, err := browser.Find(ctx, name)
	if err != nil {
		return nil, err
	}
	log.Printf("Found %s at %s (%s/%s)", svc.Name(), svc.Address(), svc.Board, svc.TopType)
	return svc, nil
}

// cachedResult locates the build result of an advertised design.
func cachedResult(cfg *config.Config, svc *discovery.BoardService) (string, error) {
	key := buildcache.Key{Hash: svc.Hash, Board: svc.Board, TopType: svc.TopType}
	r, err := cfg.Cache(nil).Lookup(key)
	if err != nil {
		return "", err
	}
	return r.Dir, nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	}
	return slog.LevelWarn
}
