package csrmap

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Address table errors.
var (
	// ErrUnknownRegister is returned by Lookup for names not in the table.
	ErrUnknownRegister = errors.New("unknown register")

	// ErrMalformedRow indicates a row that cannot be parsed.
	ErrMalformedRow = errors.New("malformed row")
)

// Mode is the access mode of a register as seen by the bus.
type Mode string

const (
	ModeReadOnly  Mode = "ro"
	ModeReadWrite Mode = "rw"
)

// Entry is one row of the address table.
type Entry struct {
	Name    string
	Address uint32
	Size    int
	Mode    Mode
}

// Writable reports whether the bus allows writes to the register.
func (e Entry) Writable() bool {
	return e.Mode == ModeReadWrite
}

// RowError locates a malformed row.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Map is an immutable name to entry table.
type Map struct {
	entries map[string]Entry
}

// Load reads an address table from a file.
func Load(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open address table: %w", err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse reads an address table.
func Parse(r io.Reader) (*Map, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	m := &Map{entries: make(map[string]Entry)}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.StartLine
			}
			return nil, &RowError{Line: line, Err: fmt.Errorf("%w: %v", ErrMalformedRow, err)}
		}
		line, _ := cr.FieldPos(0)
		e, err := parseRecord(record)
		if err != nil {
			return nil, &RowError{Line: line, Err: err}
		}
		if _, dup := m.entries[e.Name]; dup {
			return nil, &RowError{Line: line, Err: fmt.Errorf("%w: duplicate name %q", ErrMalformedRow, e.Name)}
		}
		m.entries[e.Name] = e
	}
	return m, nil
}

// New builds a map from entries, for tests and generated tables.
func New(entries ...Entry) *Map {
	m := &Map{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		m.entries[e.Name] = e
	}
	return m
}

func parseRecord(record []string) (Entry, error) {
	if len(record) != 4 {
		return Entry{}, fmt.Errorf("%w: expected 4 fields, got %d", ErrMalformedRow, len(record))
	}
	name := strings.TrimSpace(record[0])
	if name == "" {
		return Entry{}, fmt.Errorf("%w: empty name", ErrMalformedRow)
	}
	addr, err := strconv.ParseUint(strings.TrimSpace(record[1]), 0, 32)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: address %q", ErrMalformedRow, record[1])
	}
	size, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil || size < 1 {
		return Entry{}, fmt.Errorf("%w: size %q", ErrMalformedRow, record[2])
	}
	mode := Mode(strings.ToLower(strings.TrimSpace(record[3])))
	if mode != ModeReadOnly && mode != ModeReadWrite {
		return Entry{}, fmt.Errorf("%w: mode %q", ErrMalformedRow, record[3])
	}
	return Entry{Name: name, Address: uint32(addr), Size: size, Mode: mode}, nil
}

// Lookup returns the entry for a fully-qualified register name.
func (m *Map) Lookup(name string) (Entry, error) {
	e, ok := m.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownRegister, name)
	}
	return e, nil
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.entries)
}

// Entries returns all entries sorted by address.
func (m *Map) Entries() []Entry {
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		if a.Address != b.Address {
			if a.Address < b.Address {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Write emits the table in the format Parse reads, sorted by address.
func (m *Map) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	for _, e := range m.Entries() {
		record := []string{e.Name, fmt.Sprintf("0x%08x", e.Address), strconv.Itoa(e.Size), string(e.Mode)}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
