package main

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/imports"

	"github.com/csrlink/csrlink-go/pkg/csrmap"
	"github.com/csrlink/csrlink-go/pkg/device"
	"github.com/csrlink/csrlink-go/pkg/register"
)

func ledTree(t *testing.T) *device.Node {
	t.Helper()
	led := &device.Manifest{Type: "Led"}
	led.Register(register.Spec{Name: "led1_rate", Width: 16})

	m := &device.Manifest{Type: "LedBlock"}
	m.Register(register.Spec{Name: "enable", Kind: register.KindBool})
	m.Register(register.Spec{Name: "trace", Width: 32, Depth: 8, Readonly: true, RAMOffset: register.Offset32(0x40)})
	m.Add("led0to3", led)
	root, err := device.Build(m)
	require.NoError(t, err)
	return root
}

func TestGoIdent(t *testing.T) {
	tests := map[string]string{
		"led0to3.led1_rate": "Led0to3Led1Rate",
		"enable":            "Enable",
		"a.b-c":             "ABC",
		"0x":                "R0x",
	}
	for in, want := range tests {
		assert.Equal(t, want, goIdent(in), in)
	}
}

func TestGenerate(t *testing.T) {
	code, err := Generate(ledTree(t), nil, "regs", "led.yaml")
	require.NoError(t, err)

	assert.Contains(t, code, "// Code generated by csrlink-gen from led.yaml. DO NOT EDIT.")
	assert.Contains(t, code, `Led0to3Led1RatePath = "led0to3.led1_rate"`)
	assert.Contains(t, code, `Led0to3Led1RateKey = "top.led0to3_led1_rate_csr"`)
	assert.Contains(t, code, "in RAM at offset 0x40, read-only")
	assert.NotContains(t, code, "Addr uint32")

	_, err = parser.ParseFile(token.NewFileSet(), "regs.go", code, parser.ParseComments)
	assert.NoError(t, err)
}

func TestGenerateWithAddresses(t *testing.T) {
	table := csrmap.New(
		csrmap.Entry{Name: "top.enable_csr", Address: 0x8000_0800, Size: 1, Mode: csrmap.ModeReadWrite},
		csrmap.Entry{Name: "top.led0to3_led1_rate_csr", Address: 0x8000_0810, Size: 16, Mode: csrmap.ModeReadWrite},
	)
	code, err := Generate(ledTree(t), table, "regs", "led.yaml")
	require.NoError(t, err)

	assert.Contains(t, code, "EnableAddr uint32 = 0x80000800")
	assert.Contains(t, code, "Led0to3Led1RateAddr uint32 = 0x80000810")
	assert.NotContains(t, code, "TraceAddr")

	formatted, err := imports.Process("regs.go", []byte(code), nil)
	require.NoError(t, err)
	assert.Contains(t, string(formatted), "package regs")
}

func TestGenerateMissingEntry(t *testing.T) {
	table := csrmap.New(csrmap.Entry{Name: "top.enable_csr", Address: 0, Size: 1, Mode: csrmap.ModeReadWrite})
	_, err := Generate(ledTree(t), table, "regs", "led.yaml")
	assert.ErrorIs(t, err, csrmap.ErrUnknownRegister)
}

func TestGenerateIdentifierClash(t *testing.T) {
	sub := &device.Manifest{Type: "Sub"}
	sub.Register(register.Spec{Name: "b", Width: 8})
	m := &device.Manifest{Type: "Top"}
	m.Register(register.Spec{Name: "a_b", Width: 8})
	m.Add("a", sub)
	root, err := device.Build(m)
	require.NoError(t, err)

	_, err = Generate(root, nil, "regs", "top.yaml")
	assert.ErrorContains(t, err, "both map to AB")
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "led.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(`
top:
  type: Blink
  registers:
    - name: rate
      width: 16
`), 0o644))

	out := filepath.Join(dir, "regs", "blink_gen.go")
	require.NoError(t, run(manifest, out, "", ""))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "package regs")
	assert.Contains(t, string(data), `RateKey = "top.rate_csr"`)
}
