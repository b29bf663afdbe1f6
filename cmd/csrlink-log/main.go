// Command csrlink-log views and analyzes protocol capture files.
//
// Capture files are written when a settings file sets protocol_log, for
// csrlink-shell and csrlink-sim alike.
//
// Usage:
//
//	csrlink-log <command> [flags] <file.cbor>
//
// Commands:
//
//	view     View capture file in human-readable format
//	filter   Filter capture file and write to new file
//	stats    Show statistics about the capture file
//
// Examples:
//
//	# View all events
//	csrlink-log view capture.cbor
//
//	# View register-level writes only
//	csrlink-log view -layer register -op write capture.cbor
//
//	# Keep the traffic of one register
//	csrlink-log filter -register top.led0_rate_csr -o rate.cbor capture.cbor
//
//	# Show statistics
//	csrlink-log stats capture.cbor
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/csrlink/csrlink-go/cmd/csrlink-log/commands"
)

const usage = `csrlink-log - csrlink Capture Analyzer

Usage:
  csrlink-log <command> [flags] <file.cbor>

Commands:
  view     View capture file in human-readable format
  filter   Filter capture file and write to new file
  stats    Show statistics about the capture file

Use "csrlink-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func filterFlags(fs *flag.FlagSet) *commands.ViewOptions {
	opts := &commands.ViewOptions{}
	fs.StringVar(&opts.Layer, "layer", "", "Filter by layer (transport, wire, register)")
	fs.StringVar(&opts.Direction, "direction", "", "Filter by direction (in, out)")
	fs.StringVar(&opts.Category, "category", "", "Filter by category (transaction, control, state, error)")
	fs.StringVar(&opts.Op, "op", "", "Filter transactions by operation (read, write, close)")
	fs.StringVar(&opts.Register, "register", "", "Filter by fully-qualified register name")
	fs.StringVar(&opts.ConnID, "conn-id", "", "Filter by connection ID")
	return opts
}

func parseArgs(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `csrlink-log view - View capture file in human-readable format

Usage:
  csrlink-log view [flags] <file.cbor>

Flags:
`)
		fs.PrintDefaults()
	}
	opts := filterFlags(fs)
	path := parseArgs(fs, args)

	filter, err := commands.BuildFilter(*opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `csrlink-log filter - Filter capture file and write to new file

Usage:
  csrlink-log filter -o <output.cbor> [flags] <file.cbor>

Flags:
`)
		fs.PrintDefaults()
	}
	output := fs.String("o", "", "Output file path (required)")
	opts := filterFlags(fs)
	path := parseArgs(fs, args)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file path required (-o)")
		fs.Usage()
		os.Exit(1)
	}

	filter, err := commands.BuildFilter(*opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	n, err := commands.RunFilter(path, filter, *output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Filtered %d events to %s\n", n, *output)
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `csrlink-log stats - Show statistics about the capture file

Usage:
  csrlink-log stats <file.cbor>
`)
	}
	path := parseArgs(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
