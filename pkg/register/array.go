package register

import (
	"fmt"
	"slices"
)

// EncodeArray encodes a full memory image. The number of values must equal
// the register depth; the returned results are in wire order.
func (s *Spec) EncodeArray(values []any) ([]EncodeResult, error) {
	if len(values) != s.Elements() {
		return nil, fmt.Errorf("%w: %s expects %d values, got %d", ErrInvalidValue, s.Name, s.Elements(), len(values))
	}
	out := make([]EncodeResult, len(values))
	for i, v := range values {
		r, err := s.Encode(v)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = r
	}
	if s.Reverse {
		slices.Reverse(out)
	}
	return out, nil
}

// DecodeArray decodes words in wire order into host values in logical order.
func (s *Spec) DecodeArray(words []uint32) ([]any, error) {
	if err := s.CheckRead(); err != nil {
		return nil, err
	}
	out := make([]any, len(words))
	for i, w := range words {
		v, err := s.Decode(w)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	if s.Reverse {
		slices.Reverse(out)
	}
	return out, nil
}

// InitialImage returns the reset content of the register in wire order:
// the encoded Init values for memories (zeros if none), or the encoded
// Default for scalars.
func (s *Spec) InitialImage() ([]uint32, error) {
	if s.Elements() == 1 {
		r, err := s.Encode(s.Default)
		if err != nil {
			return nil, err
		}
		return []uint32{r.Word}, nil
	}
	if len(s.Init) == 0 {
		return make([]uint32, s.Elements()), nil
	}
	values := make([]any, len(s.Init))
	for i, v := range s.Init {
		values[i] = v
	}
	results, err := s.EncodeArray(values)
	if err != nil {
		return nil, err
	}
	return Words(results), nil
}

// Words extracts the bus words from encode results.
func Words(results []EncodeResult) []uint32 {
	out := make([]uint32, len(results))
	for i, r := range results {
		out[i] = r.Word
	}
	return out
}

// CountSaturated returns how many results were clamped.
func CountSaturated(results []EncodeResult) int {
	n := 0
	for _, r := range results {
		if r.Saturated() {
			n++
		}
	}
	return n
}
