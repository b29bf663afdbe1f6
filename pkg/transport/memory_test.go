package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryWordAddressing(t *testing.T) {
	m := NewMemory()
	m.Write(0x100, []uint32{1, 2, 3})

	assert.Equal(t, []uint32{2}, m.Read(0x104, 1))
	assert.Equal(t, []uint32{3, 0}, m.Read(0x108, 2))
	assert.Equal(t, []uint32{0x100, 0x104, 0x108}, m.Addresses())
	assert.Equal(t, 3, m.Len())
}

func TestMemoryHook(t *testing.T) {
	m := NewMemory()
	var seen []uint32
	m.OnWrite(func(addr uint32, values []uint32) {
		seen = append(seen, addr)
	})

	m.Load(0x10, []uint32{9})
	m.Write(0x20, []uint32{1})
	assert.Equal(t, []uint32{0x20}, seen)
}
