package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/csrlink/csrlink-go/pkg/log"
	"github.com/csrlink/csrlink-go/pkg/wire"
)

// Stats holds aggregate statistics about a capture file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Connections       map[string]*ConnectionStats
	Registers         map[string]*RegisterStats
	Errors            int
	Resyncs           int
	DrainedBytes      int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// ConnectionStats holds statistics for a single connection.
type ConnectionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Remote    string
	Reads     int
	Writes    int
}

// RegisterStats holds register-layer statistics for one register.
type RegisterStats struct {
	Reads     int
	Writes    int
	Saturated int
	Total     time.Duration
	Max       time.Duration
	timed     int
}

// Mean returns the mean round-trip time.
func (r *RegisterStats) Mean() time.Duration {
	if r.timed == 0 {
		return 0
	}
	return r.Total / time.Duration(r.timed)
}

// Collect aggregates the events of reader.
func Collect(reader *log.Reader) (*Stats, error) {
	stats := &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Connections:       make(map[string]*ConnectionStats),
		Registers:         make(map[string]*RegisterStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}
	return stats, nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	conn, ok := s.Connections[event.ConnectionID]
	if !ok {
		conn = &ConnectionStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
		s.Connections[event.ConnectionID] = conn
	}
	conn.Events++
	if event.Timestamp.After(conn.LastSeen) {
		conn.LastSeen = event.Timestamp
	}
	if event.RemoteAddr != "" && conn.Remote == "" {
		conn.Remote = event.RemoteAddr
	}

	if tx := event.Transaction; tx != nil {
		if event.Layer == log.LayerWire {
			switch tx.Opcode {
			case wire.OpRead:
				conn.Reads++
			case wire.OpWrite:
				conn.Writes++
			}
		}
		if event.Layer == log.LayerRegister && tx.Register != "" {
			s.addRegister(tx)
		}
	}

	if c := event.Control; c != nil && c.Type == log.ControlResync {
		s.Resyncs++
		s.DrainedBytes += c.Drained
	}
	if event.Error != nil {
		s.Errors++
	}
}

func (s *Stats) addRegister(tx *log.TransactionEvent) {
	reg, ok := s.Registers[tx.Register]
	if !ok {
		reg = &RegisterStats{}
		s.Registers[tx.Register] = reg
	}
	switch tx.Opcode {
	case wire.OpRead:
		reg.Reads++
	case wire.OpWrite:
		reg.Writes++
	}
	reg.Saturated += tx.Saturated
	if tx.Duration != nil {
		reg.timed++
		reg.Total += *tx.Duration
		reg.Max = max(reg.Max, *tx.Duration)
	}
}

// RunStats analyzes the capture file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats, err := Collect(reader)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== csrlink Capture Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerWire, log.LayerRegister} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryTransaction, log.CategoryControl, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Connections: %d\n", len(stats.Connections))
	if len(stats.Connections) > 0 {
		type connInfo struct {
			id    string
			stats *ConnectionStats
		}
		conns := make([]connInfo, 0, len(stats.Connections))
		for id, cs := range stats.Connections {
			conns = append(conns, connInfo{id, cs})
		}
		sort.Slice(conns, func(i, j int) bool {
			return conns[i].stats.FirstSeen.Before(conns[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, c := range conns {
			duration := c.stats.LastSeen.Sub(c.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s, %d reads, %d writes\n",
				shortenConnID(c.id), c.stats.Events, duration, c.stats.Reads, c.stats.Writes)
			if c.stats.Remote != "" {
				fmt.Fprintf(w, "           Remote: %s\n", c.stats.Remote)
			}
		}
	}

	if len(stats.Registers) > 0 {
		names := make([]string, 0, len(stats.Registers))
		for name := range stats.Registers {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Fprintln(w)
		fmt.Fprintln(w, "Registers:")
		for _, name := range names {
			r := stats.Registers[name]
			fmt.Fprintf(w, "  %-40s %d reads, %d writes", name, r.Reads, r.Writes)
			if r.timed > 0 {
				fmt.Fprintf(w, ", mean %s, max %s", formatDuration(r.Mean()), formatDuration(r.Max))
			}
			if r.Saturated > 0 {
				fmt.Fprintf(w, ", %d saturated", r.Saturated)
			}
			fmt.Fprintln(w)
		}
	}

	if stats.Resyncs > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Resyncs: %d (%d bytes drained)\n", stats.Resyncs, stats.DrainedBytes)
	}
	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
