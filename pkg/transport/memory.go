package transport

import (
	"maps"
	"slices"
	"sync"

	"github.com/csrlink/csrlink-go/pkg/wire"
)

// Memory is a sparse word-addressed store backing a Server. Word i of a
// transaction at address a lives at a + 4*i; unset words read as zero.
type Memory struct {
	mu    sync.RWMutex
	words map[uint32]uint32
	hook  func(addr uint32, values []uint32)
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{words: make(map[uint32]uint32)}
}

// Read returns n consecutive words starting at addr.
func (m *Memory) Read(addr uint32, n int) []uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]uint32, n)
	for i := range out {
		out[i] = m.words[addr+uint32(i*wire.WordSize)]
	}
	return out
}

// Write stores values at consecutive words starting at addr and calls the
// write hook, if any.
func (m *Memory) Write(addr uint32, values []uint32) {
	m.Load(addr, values)

	m.mu.RLock()
	hook := m.hook
	m.mu.RUnlock()
	if hook != nil {
		hook(addr, values)
	}
}

// Load stores values without calling the write hook, for initial images.
func (m *Memory) Load(addr uint32, values []uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, v := range values {
		m.words[addr+uint32(i*wire.WordSize)] = v
	}
}

// OnWrite installs a hook called after every Write.
func (m *Memory) OnWrite(hook func(addr uint32, values []uint32)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = hook
}

// Len returns the number of words ever stored.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.words)
}

// Addresses returns the stored addresses in ascending order.
func (m *Memory) Addresses() []uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.words))
}
