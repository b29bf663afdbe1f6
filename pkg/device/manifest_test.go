package device

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/csrlink/csrlink-go/pkg/register"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const blinkyYAML = `
types:
  LedBlock:
    type: LedBlock
    registers:
      - {name: led3_on, kind: bool}
      - {name: led0_rate, kind: number, width: 32}
      - {name: led1_rate, kind: number, width: 32}
      - {name: led2_rate, kind: number, width: 32}
top:
  type: Blinky
  registers:
    - name: state0
      kind: bool
    - name: state1
      width: 32
  children:
    - name: led0to3
      type: LedBlock
    - name: led4to7
      type: LedBlock
    - name: filter
      type: Filter
      registers:
        - name: coeffs
          kind: number
          width: 16
          signed: true
          depth: 4
          reverse: true
          init: [1, 2, 3, 4]
        - name: gain
          kind: fixed
          width: 14
          decimals: 13
          max: 0.5
        - name: start
          kind: trigger
`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(blinkyYAML))
	require.NoError(t, err)

	root, err := Build(m)
	require.NoError(t, err)

	flat := root.Flatten()
	require.Len(t, flat, 13)
	assert.Equal(t, "top.led4to7_led2_rate_csr", flat[9].Key)
	assert.Equal(t, "top.filter_coeffs_csr", flat[10].Key)

	f, err := root.Lookup("filter.coeffs")
	require.NoError(t, err)
	assert.Equal(t, 4, f.Spec.Depth)
	assert.True(t, f.Spec.Reverse)
	assert.Equal(t, []float64{1, 2, 3, 4}, f.Spec.Init)

	f, err = root.Lookup("filter.gain")
	require.NoError(t, err)
	assert.Equal(t, register.KindFixedPoint, f.Spec.Kind)
	assert.True(t, f.Spec.Signed)

	f, err = root.Lookup("filter.start")
	require.NoError(t, err)
	assert.Equal(t, register.KindTrigger, f.Spec.Kind)

	led, ok := root.Child("led0to3")
	require.True(t, ok)
	assert.Equal(t, "LedBlock", led.Type())
}

func TestParseManifestErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no top", "types: {}\n"},
		{"unknown type", "top:\n  children:\n    - name: a\n      type: Missing\n"},
		{"child without name", "top:\n  children:\n    - type: X\n      registers: [{name: r, width: 1}]\n"},
		{"recursive", "types:\n  A:\n    type: A\n    children:\n      - name: a\n        type: A\ntop:\n  children:\n    - name: a\n      type: A\n"},
		{"bad kind", "top:\n  registers:\n    - {name: r, kind: matrix}\n"},
		{"not yaml", "top: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blinky.yaml")
	require.NoError(t, os.WriteFile(path, []byte(blinkyYAML), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "Blinky", m.Type)

	_, err = LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestManifestYAMLRoundTrip(t *testing.T) {
	data, err := yaml.Marshal(File{Top: blinky()})
	require.NoError(t, err)

	m, err := ParseManifest(data)
	require.NoError(t, err)

	a, err := Build(blinky())
	require.NoError(t, err)
	b, err := Build(m)
	require.NoError(t, err)

	var ka, kb []string
	for _, f := range a.Flatten() {
		ka = append(ka, f.Key)
	}
	for _, f := range b.Flatten() {
		kb = append(kb, f.Key)
	}
	assert.Equal(t, ka, kb)
}
