package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/csrlink/csrlink-go/pkg/interaction"
	"github.com/csrlink/csrlink-go/pkg/register"
)

// Shell executes register commands against an attached tree.
type Shell struct {
	handle *interaction.Handle
	out    io.Writer
}

// NewShell creates a shell writing its output to out.
func NewShell(h *interaction.Handle, out io.Writer) *Shell {
	return &Shell{handle: h, out: out}
}

// Execute runs one command line. It returns false when the shell should
// exit.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		s.printHelp()
	case "list", "ls":
		s.cmdList(args)
	case "read", "r":
		err = s.cmdRead(ctx, args)
	case "write", "w":
		err = s.cmdWrite(ctx, args)
	case "fire", "f":
		err = s.cmdFire(ctx, args)
	case "dump", "d":
		s.cmdDump(ctx)
	case "raw":
		err = s.cmdRaw(ctx, args)
	case "ram":
		err = s.cmdRAM(ctx, args)
	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Exiting...")
		return false
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
	return true
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
csrlink Commands:
  Registers:
    list [prefix]          - List registers
    read <path>            - Read a register
    write <path> <value>   - Write a register (memories: comma-separated)
    fire <path>            - Pulse a trigger register
    dump                   - Read every readable register

  Bus:
    raw <addr> [n]         - Read n words at a bus address
    ram <offset> [n]       - Read n words of the bulk memory window

  General:
    help                   - Show this help
    quit                   - Exit

  Path Format:
    component.register - e.g., led0to3.led1_rate`)
}

func (s *Shell) cmdList(args []string) {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}
	for _, r := range s.handle.Registers() {
		if !strings.HasPrefix(r.Path(), prefix) {
			continue
		}
		spec := r.Spec()
		fmt.Fprintf(s.out, "  %-32s %-10s %s\n", r.Path(), spec.Kind, describe(r))
	}
}

func describe(r *interaction.Register) string {
	spec := r.Spec()
	var b strings.Builder
	fmt.Fprintf(&b, "w=%d", spec.Width)
	if spec.IsArray() {
		fmt.Fprintf(&b, " depth=%d", spec.Elements())
	}
	if spec.Readonly {
		b.WriteString(" ro")
	}
	if spec.InRAM() {
		fmt.Fprintf(&b, " ram+0x%x", *spec.RAMOffset)
	} else if e, ok := r.Entry(); ok {
		fmt.Fprintf(&b, " @0x%08x", e.Address)
	}
	return b.String()
}

func (s *Shell) cmdRead(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: read <path>")
	}
	v, err := s.handle.Get(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s = %s\n", args[0], formatValue(v))
	return nil
}

func (s *Shell) cmdWrite(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: write <path> <value>")
	}
	r, err := s.handle.Register(args[0])
	if err != nil {
		return err
	}
	spec := r.Spec()
	if spec.IsArray() {
		values, err := parseValues(&spec, args[1])
		if err != nil {
			return err
		}
		if err := r.SetArray(ctx, values); err != nil {
			return err
		}
	} else {
		v, err := parseValue(&spec, args[1])
		if err != nil {
			return err
		}
		if err := r.Set(ctx, v); err != nil {
			return err
		}
	}
	fmt.Fprintf(s.out, "%s written\n", args[0])
	return nil
}

func (s *Shell) cmdFire(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: fire <path>")
	}
	if err := s.handle.Fire(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s fired\n", args[0])
	return nil
}

func (s *Shell) cmdDump(ctx context.Context) {
	for _, r := range s.handle.Registers() {
		if r.Spec().Kind == register.KindTrigger {
			continue
		}
		v, err := r.Get(ctx)
		if err != nil {
			fmt.Fprintf(s.out, "  %-32s error: %v\n", r.Path(), err)
			continue
		}
		fmt.Fprintf(s.out, "  %-32s %s\n", r.Path(), formatValue(v))
	}
}

func (s *Shell) cmdRaw(ctx context.Context, args []string) error {
	addr, n, err := parseRange(args, "raw <addr> [n]")
	if err != nil {
		return err
	}
	words, err := s.handle.Interface().ReadAddress(ctx, addr, n)
	if err != nil {
		return err
	}
	s.printWords(addr, words)
	return nil
}

func (s *Shell) cmdRAM(ctx context.Context, args []string) error {
	offset, n, err := parseRange(args, "ram <offset> [n]")
	if err != nil {
		return err
	}
	iface := s.handle.Interface()
	words, err := iface.ReadRAM(ctx, offset, n)
	if err != nil {
		return err
	}
	s.printWords(iface.RAMBase()+offset, words)
	return nil
}

func (s *Shell) printWords(addr uint32, words []uint32) {
	for i, w := range words {
		fmt.Fprintf(s.out, "  0x%08x: 0x%08x (%d)\n", addr+uint32(4*i), w, w)
	}
}

func parseRange(args []string, usage string) (uint32, int, error) {
	if len(args) < 1 || len(args) > 2 {
		return 0, 0, errors.New("usage: " + usage)
	}
	addr, err := strconv.ParseUint(args[0], 0, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid address %q: %w", args[0], err)
	}
	n := 1
	if len(args) == 2 {
		if n, err = strconv.Atoi(args[1]); err != nil || n < 1 {
			return 0, 0, fmt.Errorf("invalid count %q", args[1])
		}
	}
	return uint32(addr), n, nil
}
