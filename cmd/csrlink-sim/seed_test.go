package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csrlink/csrlink-go/pkg/csrmap"
	"github.com/csrlink/csrlink-go/pkg/device"
	"github.com/csrlink/csrlink-go/pkg/register"
	"github.com/csrlink/csrlink-go/pkg/transport"
)

func testTable() *csrmap.Map {
	return csrmap.New(
		csrmap.Entry{Name: "top.rate_csr", Address: 0x10, Size: 16, Mode: csrmap.ModeReadWrite},
		csrmap.Entry{Name: "top.lut_csr", Address: 0x20, Size: 8, Mode: csrmap.ModeReadWrite},
	)
}

func TestSeedMemoryWithoutManifest(t *testing.T) {
	mem := transport.NewMemory()
	words, err := seedMemory(mem, testTable(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, words)
	assert.Equal(t, []uint32{0x10, 0x20}, mem.Addresses())
}

func TestSeedMemoryDefaults(t *testing.T) {
	m := &device.Manifest{Type: "Blink"}
	m.Register(register.Spec{Name: "rate", Width: 16, Default: 500})
	m.Register(register.Spec{Name: "lut", Width: 8, Depth: 3, Init: []float64{1, 2, 3}, Reverse: true})
	m.Register(register.Spec{Name: "trace", Width: 32, Depth: 4, Readonly: true, RAMOffset: register.Offset32(0)})
	root, err := device.Build(m)
	require.NoError(t, err)

	mem := transport.NewMemory()
	words, err := seedMemory(mem, testTable(), root)
	require.NoError(t, err)

	assert.Equal(t, 4, words)
	assert.Equal(t, []uint32{500}, mem.Read(0x10, 1))
	assert.Equal(t, []uint32{3, 2, 1}, mem.Read(0x20, 3))
}

func TestSeedMemoryMissingEntry(t *testing.T) {
	m := &device.Manifest{Type: "Blink"}
	m.Register(register.Spec{Name: "phase", Width: 8})
	root, err := device.Build(m)
	require.NoError(t, err)

	_, err = seedMemory(transport.NewMemory(), testTable(), root)
	assert.ErrorIs(t, err, csrmap.ErrUnknownRegister)
}
