package register

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plain(width int) *Spec {
	s := Spec{Name: "r", Kind: KindPlain, Width: width}.WithDefaults()
	return &s
}

func TestPlainSaturation(t *testing.T) {
	s := plain(8)

	tests := []struct {
		name      string
		value     any
		word      uint32
		saturated bool
	}{
		{"in range", 42, 42, false},
		{"max", 255, 255, false},
		{"above max", 300, 255, true},
		{"negative", -5, 0, true},
		{"integral float", 7.0, 7, false},
		{"uint64 beyond int64", uint64(math.MaxUint64), 255, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := s.Encode(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.word, r.Word)
			assert.Equal(t, tt.saturated, r.HardSaturated)
			assert.False(t, r.SoftSaturated)
		})
	}
}

func TestPlainOffset(t *testing.T) {
	s := plain(8)
	s.Offset = 10

	r, err := s.Encode(15)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), r.Word)
	assert.Equal(t, int64(15), s.DecodeInt(r.Word))

	r, err = s.Encode(5)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), r.Word)
	assert.True(t, r.Saturated())

	lo, hi := s.Range()
	assert.Equal(t, int64(10), lo)
	assert.Equal(t, int64(265), hi)
}

func TestPlainFullWidth(t *testing.T) {
	s := plain(32)

	r, err := s.Encode(uint32(math.MaxUint32))
	require.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), r.Word)
	assert.False(t, r.Saturated())

	r, err = s.Encode(int64(1) << 40)
	require.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), r.Word)
	assert.True(t, r.HardSaturated)
}

func TestSignedNumberRoundTrip(t *testing.T) {
	s := Spec{Name: "n", Kind: KindNumber, Width: 8, Signed: true}.WithDefaults()

	r, err := s.Encode(-1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFF), r.Word)

	v, err := s.Decode(0xFF)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), v)

	for _, x := range []int64{-128, -64, -1, 0, 1, 100, 127} {
		assert.Equal(t, x, s.DecodeInt(s.EncodeInt(x).Word), "value %d", x)
	}

	r = s.EncodeInt(-200)
	assert.Equal(t, uint32(0x80), r.Word)
	assert.True(t, r.HardSaturated)

	r = s.EncodeInt(200)
	assert.Equal(t, uint32(0x7F), r.Word)
	assert.True(t, r.HardSaturated)
}

func TestSignedFullWidth(t *testing.T) {
	s := Spec{Name: "n", Kind: KindNumber, Width: 32, Signed: true}.WithDefaults()

	r := s.EncodeInt(-1)
	assert.Equal(t, uint32(0xFFFFFFFF), r.Word)
	assert.Equal(t, int64(-1), s.DecodeInt(r.Word))
	assert.Equal(t, int64(math.MinInt32), s.DecodeInt(s.EncodeInt(math.MinInt32).Word))
}

func TestSignedNumberOffset(t *testing.T) {
	s := Spec{Name: "n", Kind: KindNumber, Width: 8, Signed: true, Offset: 3}.WithDefaults()

	lo, hi := s.Range()
	assert.Equal(t, int64(-125), lo)
	assert.Equal(t, int64(130), hi)

	tests := []struct {
		name      string
		value     int64
		word      uint32
		decoded   int64
		saturated bool
	}{
		{"zero", 0, 0xFD, 0, false},
		{"minus one", -1, 0xFC, -1, false},
		{"offset", 3, 0x00, 3, false},
		{"low end", -125, 0x80, -125, false},
		{"high end", 130, 0x7F, 130, false},
		{"below range", -128, 0x80, -125, true},
		{"above range", 200, 0x7F, 130, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := s.EncodeInt(tt.value)
			assert.Equal(t, tt.word, r.Word)
			assert.Equal(t, tt.saturated, r.HardSaturated)
			assert.Equal(t, tt.decoded, s.DecodeInt(r.Word))
		})
	}
}

func TestFixedPointOffset(t *testing.T) {
	s := Spec{Name: "gain", Kind: KindFixedPoint, Width: 14, Decimals: 13, Offset: 4}.WithDefaults()

	r, err := s.EncodeFloat(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x3FFC), r.Word)
	assert.False(t, r.Saturated())
	assert.Equal(t, 0.0, s.DecodeFloat(r.Word))

	for _, x := range []float64{-0.5, -0.25, 0.25, 0.5} {
		r, err := s.EncodeFloat(x)
		require.NoError(t, err)
		assert.False(t, r.Saturated(), "value %v", x)
		assert.InDelta(t, x, s.DecodeFloat(r.Word), s.Resolution(), "value %v", x)
	}
}

func TestNumberSoftAndHardSaturation(t *testing.T) {
	s := Spec{Name: "n", Kind: KindNumber, Width: 8, Min: Float(10), Max: Float(100)}.WithDefaults()

	r := s.EncodeInt(150)
	assert.Equal(t, uint32(100), r.Word)
	assert.True(t, r.SoftSaturated)
	assert.False(t, r.HardSaturated)

	r = s.EncodeInt(3)
	assert.Equal(t, uint32(10), r.Word)
	assert.True(t, r.SoftSaturated)

	wide := Spec{Name: "n", Kind: KindNumber, Width: 8, Max: Float(1000)}.WithDefaults()
	r = wide.EncodeInt(500)
	assert.Equal(t, uint32(255), r.Word)
	assert.False(t, r.SoftSaturated)
	assert.True(t, r.HardSaturated)

	r = wide.EncodeInt(50)
	assert.False(t, r.Saturated())
}

func TestFixedPointUnitRange(t *testing.T) {
	s := Spec{Name: "gain", Kind: KindFixedPoint, Width: 14, Decimals: 13}.WithDefaults()
	require.NoError(t, s.Validate())
	assert.True(t, s.Signed)

	r, err := s.Encode(1.0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1FFF), r.Word)
	assert.False(t, r.Saturated())
	assert.Equal(t, 1.0, s.DecodeFloat(r.Word))

	r, err = s.Encode(-1.0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x2001), r.Word)
	assert.False(t, r.Saturated())
	assert.Equal(t, -1.0, s.DecodeFloat(r.Word))
}

func TestFixedPointRoundTrip(t *testing.T) {
	s := Spec{Name: "gain", Kind: KindFixedPoint, Width: 14, Decimals: 13}.WithDefaults()

	for _, x := range []float64{-0.999, -0.5, -0.1234, 0, 0.001, 0.25, 0.5, 0.75} {
		r, err := s.EncodeFloat(x)
		require.NoError(t, err)
		v, err := s.Decode(r.Word)
		require.NoError(t, err)
		assert.InDelta(t, x, v, s.Resolution(), "value %v", x)
	}

	r, err := s.EncodeFloat(1.5)
	require.NoError(t, err)
	assert.True(t, r.HardSaturated)
	assert.Equal(t, 1.0, s.DecodeFloat(r.Word))
}

func TestFixedPointSoftBound(t *testing.T) {
	s := Spec{Name: "gain", Kind: KindFixedPoint, Width: 14, Decimals: 13, Max: Float(0.5)}.WithDefaults()

	r, err := s.EncodeFloat(0.9)
	require.NoError(t, err)
	assert.True(t, r.SoftSaturated)
	assert.False(t, r.HardSaturated)
	assert.InDelta(t, 0.5, s.DecodeFloat(r.Word), s.Resolution())
}

func TestFixedPointRejectsNaN(t *testing.T) {
	s := Spec{Name: "gain", Kind: KindFixedPoint, Width: 14, Decimals: 13}.WithDefaults()

	_, err := s.EncodeFloat(math.NaN())
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = s.Encode(math.Inf(1))
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestBoolBitAndInvert(t *testing.T) {
	s := Spec{Name: "en", Kind: KindBool, Width: 8, Bit: 3}.WithDefaults()

	r, err := s.Encode(true)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x08), r.Word)
	assert.True(t, s.DecodeBool(0x08))
	assert.False(t, s.DecodeBool(0xF7))

	inv := Spec{Name: "rst_n", Kind: KindBool, Bit: 0, Invert: true}.WithDefaults()
	assert.Equal(t, 1, inv.Width)

	r, err = inv.Encode(true)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), r.Word)

	r, err = inv.Encode(false)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), r.Word)

	v, err := inv.Decode(0)
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestTrigger(t *testing.T) {
	s := Spec{Name: "start", Kind: KindTrigger}.WithDefaults()
	require.NoError(t, s.Validate())

	r, err := s.Encode(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), r.Word)

	_, err = s.Decode(0)
	assert.ErrorIs(t, err, ErrInvalidOperation)
	assert.ErrorIs(t, err, ErrPermission)
	assert.NoError(t, s.CheckWrite())
}

func TestEncodeRejectsUnrepresentable(t *testing.T) {
	s := plain(8)

	tests := []struct {
		name  string
		value any
	}{
		{"string", "12"},
		{"fractional float", 1.5},
		{"nil", nil},
		{"slice", []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Encode(tt.value)
			assert.True(t, errors.Is(err, ErrInvalidValue), "got %v", err)
		})
	}
}

func TestCheckWrite(t *testing.T) {
	ro := Spec{Name: "status", Width: 8, Readonly: true}.WithDefaults()
	assert.ErrorIs(t, ro.CheckWrite(), ErrPermission)

	ram := Spec{Name: "buf", Width: 32, Depth: 16, RAMOffset: Offset32(0x100)}.WithDefaults()
	assert.ErrorIs(t, ram.CheckWrite(), ErrPermission)
	assert.True(t, ram.InRAM())
	assert.True(t, ram.IsArray())

	rw := plain(8)
	assert.NoError(t, rw.CheckWrite())
	assert.NoError(t, rw.CheckRead())
	assert.False(t, rw.IsArray())
}
