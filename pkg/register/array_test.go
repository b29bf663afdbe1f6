package register

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrayReverse(t *testing.T) {
	s := Spec{Name: "coeffs", Kind: KindNumber, Width: 8, Depth: 5, Reverse: true}.WithDefaults()
	require.NoError(t, s.Validate())

	results, err := s.EncodeArray([]any{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, []uint32{5, 4, 3, 2, 1}, Words(results))

	values, err := s.DecodeArray(Words(results))
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2), int64(3), int64(4), int64(5)}, values)
}

func TestArrayInOrder(t *testing.T) {
	s := Spec{Name: "taps", Kind: KindNumber, Width: 8, Depth: 3, Signed: true}.WithDefaults()

	results, err := s.EncodeArray([]any{-1, 0, 300})
	require.NoError(t, err)
	assert.Equal(t, []uint32{0xFF, 0, 0x7F}, Words(results))
	assert.Equal(t, 1, CountSaturated(results))
}

func TestArrayLengthMismatch(t *testing.T) {
	s := Spec{Name: "coeffs", Kind: KindNumber, Width: 8, Depth: 5}.WithDefaults()

	_, err := s.EncodeArray([]any{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = s.EncodeArray([]any{1, 2, 3, 4, 5, 6})
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestArrayElementError(t *testing.T) {
	s := Spec{Name: "coeffs", Kind: KindNumber, Width: 8, Depth: 2}.WithDefaults()

	_, err := s.EncodeArray([]any{1, "x"})
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Contains(t, err.Error(), "element 1")
}

func TestInitialImage(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want []uint32
	}{
		{
			name: "scalar default",
			spec: Spec{Name: "r", Width: 8, Default: 7},
			want: []uint32{7},
		},
		{
			name: "memory without init",
			spec: Spec{Name: "m", Width: 8, Depth: 4},
			want: []uint32{0, 0, 0, 0},
		},
		{
			name: "memory with init reversed",
			spec: Spec{Name: "m", Width: 8, Depth: 3, Reverse: true, Init: []float64{1, 2, 3}},
			want: []uint32{3, 2, 1},
		},
		{
			name: "fixed point init",
			spec: Spec{Name: "g", Kind: KindFixedPoint, Width: 14, Decimals: 13, Depth: 2, Init: []float64{1, -1}},
			want: []uint32{0x1FFF, 0x2001},
		},
		{
			name: "inverted flag default",
			spec: Spec{Name: "f", Kind: KindBool, Invert: true, Default: 0},
			want: []uint32{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.spec.WithDefaults()
			require.NoError(t, s.Validate())
			got, err := s.InitialImage()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
