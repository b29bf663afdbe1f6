package register

import (
	"fmt"
	"math"
)

// EncodeResult is the outcome of encoding one value.
type EncodeResult struct {
	// Word is the value to put on the bus.
	Word uint32

	// SoftSaturated is set when the software range (Min/Max) clamped the value.
	SoftSaturated bool

	// HardSaturated is set when the bit-width range clamped the value.
	HardSaturated bool
}

// Saturated reports whether any clamping happened.
func (r EncodeResult) Saturated() bool {
	return r.SoftSaturated || r.HardSaturated
}

// Encode converts a host value to a bus word, dispatching on the kind.
// Accepted host types are Go integers, floats and bools.
func (s *Spec) Encode(v any) (EncodeResult, error) {
	switch s.Kind {
	case KindTrigger:
		return EncodeResult{}, nil
	case KindBool:
		b, err := toBool(v)
		if err != nil {
			return EncodeResult{}, fmt.Errorf("%s: %w", s.Name, err)
		}
		return s.EncodeBool(b), nil
	case KindFixedPoint:
		f, err := toFloat(v)
		if err != nil {
			return EncodeResult{}, fmt.Errorf("%s: %w", s.Name, err)
		}
		return s.EncodeFloat(f)
	default:
		i, err := toInt(v)
		if err != nil {
			return EncodeResult{}, fmt.Errorf("%s: %w", s.Name, err)
		}
		return s.EncodeInt(i), nil
	}
}

// Decode converts a bus word to a host value: int64 for Plain and Number,
// bool for Bool, float64 for FixedPoint. Triggers cannot be decoded.
func (s *Spec) Decode(word uint32) (any, error) {
	switch s.Kind {
	case KindTrigger:
		return nil, s.CheckRead()
	case KindBool:
		return s.DecodeBool(word), nil
	case KindFixedPoint:
		return s.DecodeFloat(word), nil
	default:
		return s.DecodeInt(word), nil
	}
}

// EncodeInt encodes an integer. For FixedPoint registers the integer is
// treated as a real value; for Bool registers any non-zero value is true.
func (s *Spec) EncodeInt(v int64) EncodeResult {
	switch s.Kind {
	case KindTrigger:
		return EncodeResult{}
	case KindBool:
		return s.EncodeBool(v != 0)
	case KindFixedPoint:
		r, _ := s.EncodeFloat(float64(v))
		return r
	case KindNumber:
		return s.encodeNumber(s.softBoundInt(v))
	default:
		return s.encodePlain(v)
	}
}

// EncodeFloat encodes a real value. NaN and infinities are not representable.
func (s *Spec) EncodeFloat(f float64) (EncodeResult, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return EncodeResult{}, fmt.Errorf("%w: %s: %v", ErrInvalidValue, s.Name, f)
	}
	if s.Kind != KindFixedPoint {
		i, err := toInt(f)
		if err != nil {
			return EncodeResult{}, fmt.Errorf("%s: %w", s.Name, err)
		}
		return s.EncodeInt(i), nil
	}

	var res EncodeResult
	if s.Max != nil && f > *s.Max {
		f = *s.Max
		res.SoftSaturated = true
	} else if s.Min != nil && f < *s.Min {
		f = *s.Min
		res.SoftSaturated = true
	}

	scaled := math.Round(f * s.scale())
	lo, hi := s.Range()
	var i int64
	switch {
	case scaled < float64(lo):
		i = lo
		res.HardSaturated = true
	case scaled > float64(hi):
		i = hi
		res.HardSaturated = true
	default:
		i = int64(scaled)
	}

	n := s.encodeNumber(i, false)
	res.Word = n.Word
	res.HardSaturated = res.HardSaturated || n.HardSaturated
	return res, nil
}

// EncodeBool encodes a flag at the configured bit position.
func (s *Spec) EncodeBool(b bool) EncodeResult {
	if s.Kind != KindBool {
		if b {
			return s.EncodeInt(1)
		}
		return s.EncodeInt(0)
	}
	if s.Invert {
		b = !b
	}
	var v int64
	if b {
		v = int64(1) << s.Bit
	}
	return s.encodePlain(v)
}

// DecodeInt decodes a word as an integer. FixedPoint values are rounded.
func (s *Spec) DecodeInt(word uint32) int64 {
	switch s.Kind {
	case KindBool:
		if s.DecodeBool(word) {
			return 1
		}
		return 0
	case KindFixedPoint:
		return int64(math.Round(s.DecodeFloat(word)))
	case KindNumber:
		return s.decodeNumber(word)
	default:
		return s.decodePlain(word)
	}
}

// DecodeFloat decodes a word as a real value.
func (s *Spec) DecodeFloat(word uint32) float64 {
	if s.Kind == KindFixedPoint {
		return float64(s.decodeNumber(word)) / s.scale()
	}
	return float64(s.DecodeInt(word))
}

// DecodeBool decodes a word as a flag. For non-Bool kinds any non-zero
// value is true.
func (s *Spec) DecodeBool(word uint32) bool {
	if s.Kind != KindBool {
		return s.DecodeInt(word) != 0
	}
	v := s.decodePlain(word)
	set := (v>>s.Bit)&1 == 1
	return set != s.Invert
}

// Resolution returns the host value of one least significant bit.
func (s *Spec) Resolution() float64 {
	if s.Kind == KindFixedPoint {
		return 1 / s.scale()
	}
	return 1
}

func (s *Spec) scale() float64 {
	return float64(int64(1)<<s.Decimals - 1)
}

func (s *Spec) softBoundInt(v int64) (int64, bool) {
	if s.Max != nil && float64(v) > *s.Max {
		return int64(math.Floor(*s.Max)), true
	}
	if s.Min != nil && float64(v) < *s.Min {
		return int64(math.Ceil(*s.Min)), true
	}
	return v, false
}

// encodeNumber removes the offset, clamps to the signed or unsigned bit
// range and applies two's complement.
func (s *Spec) encodeNumber(v int64, soft bool) EncodeResult {
	res := EncodeResult{SoftSaturated: soft}
	lo, hi := s.intRange()
	w, overflow := subSat(v, s.Offset)
	switch {
	case overflow && s.Offset > 0, !overflow && w < lo:
		w = lo
		res.HardSaturated = true
	case overflow, w > hi:
		w = hi
		res.HardSaturated = true
	}
	if s.Signed && w < 0 {
		w += int64(1) << s.Width
	}
	res.Word = uint32(w) & s.mask()
	return res
}

func (s *Spec) decodeNumber(word uint32) int64 {
	v := int64(word & s.mask())
	if s.Signed && v >= int64(1)<<(s.Width-1) {
		v -= int64(1) << s.Width
	}
	return v + s.Offset
}

func (s *Spec) encodePlain(v int64) EncodeResult {
	w, overflow := subSat(v, s.Offset)
	hi := int64(s.mask())
	switch {
	case w < 0 || (overflow && v < 0):
		return EncodeResult{Word: 0, HardSaturated: true}
	case w > hi || overflow:
		return EncodeResult{Word: uint32(hi), HardSaturated: true}
	}
	return EncodeResult{Word: uint32(w)}
}

func (s *Spec) decodePlain(word uint32) int64 {
	return int64(word&s.mask()) + s.Offset
}

// subSat computes a-b and reports int64 overflow.
func subSat(a, b int64) (int64, bool) {
	d := a - b
	if (b > 0 && d > a) || (b < 0 && d < a) {
		return d, true
	}
	return d, false
}
