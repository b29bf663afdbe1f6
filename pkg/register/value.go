package register

import (
	"fmt"
	"math"
)

// Helper functions for host value conversion.

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return clampUint(uint64(n)), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return clampUint(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	default:
		return 0, fmt.Errorf("%w: expected integer, got %T", ErrInvalidValue, v)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		i, err := toInt(v)
		if err != nil {
			return 0, fmt.Errorf("%w: expected number, got %T", ErrInvalidValue, v)
		}
		return float64(i), nil
	}
}

func toBool(v any) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	i, err := toInt(v)
	if err != nil {
		return false, fmt.Errorf("%w: expected bool, got %T", ErrInvalidValue, v)
	}
	return i != 0, nil
}

// floatToInt accepts integral floats only. Values beyond the int64 range
// clamp to it and saturate later in the codec.
func floatToInt(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidValue, f)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %v is not an integer", ErrInvalidValue, f)
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64, nil
	}
	if f <= math.MinInt64 {
		return math.MinInt64, nil
	}
	return int64(f), nil
}

func clampUint(u uint64) int64 {
	if u > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(u)
}
