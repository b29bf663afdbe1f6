// Command csrlink-sim serves a simulated register bank.
//
// The register space is built from the address table (csr.csv) of a build
// result. With -manifest, registers start at their declared defaults.
//
// Usage:
//
//	csrlink-sim [flags]
//
// Flags:
//
//	-config string     Settings file (YAML)
//	-result string     Build result directory holding csr.csv
//	-manifest string   Component manifest for reset values
//	-listen string     Listen address (default ":2222")
//	-token string      Session token (generated if empty)
//	-advertise         Announce the server via mDNS
//	-name string       mDNS instance name (default: hostname)
//	-log-level string  Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Serve a build result on the default port
//	csrlink-sim -result out/stemlab125/LedBlock/3f2a
//
//	# Serve with reset values and mDNS announcement
//	csrlink-sim -result out/stemlab125/LedBlock/3f2a -manifest led.yaml -advertise
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/csrlink/csrlink-go/pkg/buildcache"
	"github.com/csrlink/csrlink-go/pkg/config"
	"github.com/csrlink/csrlink-go/pkg/csrmap"
	"github.com/csrlink/csrlink-go/pkg/device"
	"github.com/csrlink/csrlink-go/pkg/discovery"
	plog "github.com/csrlink/csrlink-go/pkg/log"
	"github.com/csrlink/csrlink-go/pkg/transport"
)

// Options holds the command line.
type Options struct {
	ConfigFile string
	ResultDir  string
	Manifest   string
	Listen     string
	Token      string
	Advertise  bool
	Name       string
	LogLevel   string
}

var opts Options

func init() {
	flag.StringVar(&opts.ConfigFile, "config", "", "Settings file (YAML)")
	flag.StringVar(&opts.ResultDir, "result", "", "Build result directory holding csr.csv")
	flag.StringVar(&opts.Manifest, "manifest", "", "Component manifest for reset values")
	flag.StringVar(&opts.Listen, "listen", "", "Listen address (default \":<port>\")")
	flag.StringVar(&opts.Token, "token", "", "Session token (generated if empty)")
	flag.BoolVar(&opts.Advertise, "advertise", false, "Announce the server via mDNS")
	flag.StringVar(&opts.Name, "name", "", "mDNS instance name (default: hostname)")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()

	log.SetFlags(log.Ltime | log.Lmicroseconds)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(opts.LogLevel)}))

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if opts.ResultDir == "" {
		log.Fatalf("-result is required")
	}

	table, err := csrmap.Load(filepath.Join(opts.ResultDir, buildcache.AddressTableFile))
	if err != nil {
		log.Fatalf("Failed to load address table: %v", err)
	}

	var root *device.Node
	if opts.Manifest != "" {
		m, err := device.LoadManifest(opts.Manifest)
		if err != nil {
			log.Fatalf("Failed to load manifest: %v", err)
		}
		if root, err = device.Build(m); err != nil {
			log.Fatalf("Invalid manifest: %v", err)
		}
	}

	mem := transport.NewMemory()
	words, err := seedMemory(mem, table, root)
	if err != nil {
		log.Fatalf("Failed to seed memory: %v", err)
	}
	mem.OnWrite(func(addr uint32, values []uint32) {
		logger.Debug("write", "addr", fmt.Sprintf("0x%08x", addr), "words", len(values))
	})

	token := opts.Token
	if token == "" {
		token = cfg.Token
	}
	if token == "" {
		token = transport.NewToken()
	}

	listen := opts.Listen
	if listen == "" {
		listen = ":" + strconv.Itoa(cfg.Port)
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

	srv, err := transport.NewServer(transport.ServerConfig{
		Address:        listen,
		Token:          token,
		Memory:         mem,
		Logger:         logger,
		ProtocolLogger: protocol,
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("csrlink simulator")
	log.Println("=================")
	log.Printf("Address table: %d registers, %d words", table.Len(), words)
	log.Printf("Listening on %s", srv.Addr())
	log.Printf("Token: %s", token)

	if opts.Advertise {
		adv, err := advertise(ctx, cfg, opts.ResultDir, srv)
		if err != nil {
			log.Printf("Warning: mDNS advertisement failed: %v", err)
		} else {
			defer adv.Stop()
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	log.Printf("Received signal: %v", sig)
	if err := srv.Stop(); err != nil {
		log.Printf("Error stopping server: %v", err)
	}
	log.Printf("Served %d sessions", srv.Sessions())
}

// advertise announces srv with the identity recorded in build.json when
// present.
func advertise(ctx context.Context, cfg *config.Config, resultDir string, srv *transport.Server) (discovery.Advertiser, error) {
	info := &discovery.BoardInfo{
		Name:    opts.Name,
		Board:   cfg.Board,
		TopType: filepath.Base(filepath.Dir(resultDir)),
	}
	if meta, err := cfg.Cache(nil).Metadata(buildcache.Result{Dir: resultDir}); err == nil {
		info.Board = meta.Key.Board
		info.TopType = meta.Key.TopType
		info.Hash = meta.Key.Hash
	}
	if info.Board == "" {
		info.Board = "sim"
	}
	if info.Name == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, err
		}
		info.Name = host
	}
	if tcp, ok := srv.Addr().(*net.TCPAddr); ok {
		info.Port = uint16(tcp.Port)
	}

	adv := discovery.NewMDNSAdvertiser(discovery.DefaultAdvertiserConfig())
	if err := adv.Advertise(ctx, info); err != nil {
		return nil, err
	}
	log.Printf("Advertising %s", info.InstanceName())
	return adv, nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
