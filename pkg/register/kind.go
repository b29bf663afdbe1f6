package register

import (
	"fmt"
	"strings"
)

// Kind is the register variant tag.
type Kind uint8

const (
	// KindPlain is an unsigned integer register.
	KindPlain Kind = iota

	// KindBool is a single-bit flag register.
	KindBool

	// KindNumber is a (possibly signed) integer register with a software range.
	KindNumber

	// KindFixedPoint is a signed register holding a scaled real number.
	KindFixedPoint

	// KindTrigger is a write-only strobe register.
	KindTrigger
)

// String returns the kind name as used in manifests.
func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindFixedPoint:
		return "fixed"
	case KindTrigger:
		return "trigger"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "plain", "register":
		*k = KindPlain
	case "bool", "boolean":
		*k = KindBool
	case "number", "int", "integer":
		*k = KindNumber
	case "fixed", "fixedpoint", "fixed-point":
		*k = KindFixedPoint
	case "trigger":
		*k = KindTrigger
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidSpec, text)
	}
	return nil
}
