package device

import (
	"testing"

	"github.com/csrlink/csrlink-go/pkg/register"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ledBlock() *Manifest {
	m := &Manifest{Type: "LedBlock"}
	m.Register(register.Spec{Name: "led3_on", Kind: register.KindBool})
	for _, name := range []string{"led0_rate", "led1_rate", "led2_rate"} {
		m.Register(register.Spec{Name: name, Kind: register.KindNumber, Width: 32})
	}
	return m
}

func blinky() *Manifest {
	m := &Manifest{Type: "Blinky"}
	m.Register(register.Spec{Name: "state0", Kind: register.KindBool})
	m.Register(register.Spec{Name: "state1", Width: 32})
	m.Add("led0to3", ledBlock())
	m.Add("led4to7", ledBlock())
	return m
}

func TestBuildAndFlatten(t *testing.T) {
	root, err := Build(blinky())
	require.NoError(t, err)
	assert.Equal(t, "top", root.Name())
	assert.Equal(t, "Blinky", root.Type())
	assert.Nil(t, root.Parent())

	var keys []string
	for _, f := range root.Flatten() {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{
		"top.state0_csr",
		"top.state1_csr",
		"top.led0to3_led3_on_csr",
		"top.led0to3_led0_rate_csr",
		"top.led0to3_led1_rate_csr",
		"top.led0to3_led2_rate_csr",
		"top.led4to7_led3_on_csr",
		"top.led4to7_led0_rate_csr",
		"top.led4to7_led1_rate_csr",
		"top.led4to7_led2_rate_csr",
	}, keys)
}

func TestBuildAppliesDefaults(t *testing.T) {
	root, err := Build(blinky())
	require.NoError(t, err)

	spec, ok := root.Register("state0")
	require.True(t, ok)
	assert.Equal(t, 1, spec.Width)
	assert.Equal(t, 1, spec.Depth)
}

func TestFullNameNested(t *testing.T) {
	inner := (&Manifest{Type: "Inner"}).Register(register.Spec{Name: "gain", Width: 8})
	mid := (&Manifest{Type: "Mid"}).Add("child", inner)
	top := (&Manifest{Type: "Top"}).Add("sub", mid)

	root, err := Build(top)
	require.NoError(t, err)

	f, err := root.Lookup("sub.child.gain")
	require.NoError(t, err)
	assert.Equal(t, "top.sub_child_gain_csr", f.Key)
	assert.Equal(t, "sub.child.gain", f.Path)
	assert.Equal(t, []string{"top", "sub", "child"}, f.Node.Path())
	assert.Equal(t, "top.sub.child", f.Node.String())
	assert.Same(t, root, f.Node.Root())

	sub, err := root.Find("sub")
	require.NoError(t, err)
	f2, err := sub.Lookup("child.gain")
	require.NoError(t, err)
	assert.Equal(t, f.Key, f2.Key)
}

func TestBuildNamed(t *testing.T) {
	n, err := BuildNamed("led", ledBlock())
	require.NoError(t, err)
	assert.Equal(t, "led.led1_rate_csr", n.FullName("led1_rate"))
}

func TestLookupUnknown(t *testing.T) {
	root, err := Build(blinky())
	require.NoError(t, err)

	_, err = root.Lookup("missing")
	assert.ErrorIs(t, err, ErrUnknownPath)

	_, err = root.Lookup("led0to3.missing")
	assert.ErrorIs(t, err, ErrUnknownPath)

	_, err = root.Lookup("nowhere.led0_rate")
	assert.ErrorIs(t, err, ErrUnknownPath)

	_, err = root.Find("led0to3.deeper")
	assert.ErrorIs(t, err, ErrUnknownPath)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name     string
		manifest *Manifest
		want     error
	}{
		{
			name: "duplicate register",
			manifest: (&Manifest{}).
				Register(register.Spec{Name: "a", Width: 8}).
				Register(register.Spec{Name: "a", Width: 8}),
			want: ErrDuplicateName,
		},
		{
			name:     "duplicate child",
			manifest: (&Manifest{}).Add("c", ledBlock()).Add("c", ledBlock()),
			want:     ErrDuplicateName,
		},
		{
			name: "child shadows register",
			manifest: (&Manifest{}).
				Register(register.Spec{Name: "c", Width: 8}).
				Add("c", ledBlock()),
			want: ErrDuplicateName,
		},
		{
			name:     "invalid register",
			manifest: (&Manifest{}).Register(register.Spec{Name: "wide", Width: 64}),
			want:     register.ErrInvalidSpec,
		},
		{
			name: "invalid nested register",
			manifest: (&Manifest{}).Add("c", (&Manifest{}).
				Register(register.Spec{Name: "f", Kind: register.KindFixedPoint, Width: 8})),
			want: register.ErrInvalidSpec,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.manifest)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAccessorsCopy(t *testing.T) {
	root, err := Build(blinky())
	require.NoError(t, err)

	regs := root.Registers()
	regs[0].Name = "changed"
	_, ok := root.Register("state0")
	assert.True(t, ok)

	children := root.Children()
	require.Len(t, children, 2)
	c, ok := root.Child("led4to7")
	require.True(t, ok)
	assert.Same(t, children[1], c)
}
