package register

import (
	"errors"
	"fmt"
)

// MaxWidth is the widest register a single bus word can carry.
const MaxWidth = 32

// Register errors.
var (
	// ErrInvalidSpec indicates a register declaration that violates an invariant.
	ErrInvalidSpec = errors.New("invalid register spec")

	// ErrPermission indicates a write to a read-only register.
	ErrPermission = errors.New("permission denied")

	// ErrInvalidValue indicates a value that cannot be represented at all,
	// as opposed to one that merely saturates.
	ErrInvalidValue = errors.New("invalid value")

	// ErrInvalidOperation indicates an operation the register kind does not
	// support, such as reading a trigger.
	ErrInvalidOperation = errors.New("invalid operation")
)

// Spec declares one register.
type Spec struct {
	// Name is the register name within its node.
	Name string `yaml:"name"`

	// Kind selects the codec.
	Kind Kind `yaml:"kind"`

	// Width is the number of significant bits (1..32).
	Width int `yaml:"width"`

	// Default is the reset value of a scalar register.
	Default float64 `yaml:"default,omitempty"`

	// Init is the initial content of a memory register (Depth > 1).
	Init []float64 `yaml:"init,omitempty"`

	// Readonly registers are written by the device only.
	Readonly bool `yaml:"readonly,omitempty"`

	// Depth is the number of elements; 0 and 1 both mean scalar.
	Depth int `yaml:"depth,omitempty"`

	// Reverse flips the element order of memory registers.
	Reverse bool `yaml:"reverse,omitempty"`

	// Signed selects two's complement for Number and FixedPoint.
	Signed bool `yaml:"signed,omitempty"`

	// Decimals is the fixed-point fraction size; the scale is 2^Decimals - 1.
	Decimals int `yaml:"decimals,omitempty"`

	// Offset is subtracted from the host value before clamping and
	// two's complement. FixedPoint offsets count raw steps.
	Offset int64 `yaml:"offset,omitempty"`

	// Min and Max are optional software bounds applied before the
	// bit-width clamp (Number and FixedPoint).
	Min *float64 `yaml:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty"`

	// Bit is the flag position of a Bool register.
	Bit int `yaml:"bit,omitempty"`

	// Invert negates a Bool register.
	Invert bool `yaml:"invert,omitempty"`

	// RAMOffset, when set, places the register in the bulk memory space
	// instead of the per-register bus.
	RAMOffset *uint32 `yaml:"ram_offset,omitempty"`

	// Doc is a human-readable description.
	Doc string `yaml:"doc,omitempty"`
}

// WithDefaults fills in the implicit parts of a declaration: scalar depth,
// width 1 for flags and triggers, and the sign of fixed-point registers.
func (s Spec) WithDefaults() Spec {
	if s.Depth == 0 {
		s.Depth = 1
	}
	if s.Width == 0 && (s.Kind == KindBool || s.Kind == KindTrigger) {
		s.Width = 1
	}
	if s.Kind == KindFixedPoint {
		s.Signed = true
	}
	return s
}

// Validate checks the invariants of the declaration.
func (s *Spec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidSpec)
	}
	if s.Width < 1 || s.Width > MaxWidth {
		return fmt.Errorf("%w: %s: width %d outside 1..%d", ErrInvalidSpec, s.Name, s.Width, MaxWidth)
	}
	if s.Depth < 0 {
		return fmt.Errorf("%w: %s: negative depth", ErrInvalidSpec, s.Name)
	}
	if s.Kind > KindTrigger {
		return fmt.Errorf("%w: %s: unknown kind %d", ErrInvalidSpec, s.Name, s.Kind)
	}
	if s.Min != nil && s.Max != nil && *s.Min > *s.Max {
		return fmt.Errorf("%w: %s: min %v > max %v", ErrInvalidSpec, s.Name, *s.Min, *s.Max)
	}
	if len(s.Init) > 0 && len(s.Init) != s.Elements() {
		return fmt.Errorf("%w: %s: %d init values for depth %d", ErrInvalidSpec, s.Name, len(s.Init), s.Elements())
	}

	switch s.Kind {
	case KindBool:
		if s.Bit < 0 || s.Bit >= s.Width {
			return fmt.Errorf("%w: %s: bit %d outside width %d", ErrInvalidSpec, s.Name, s.Bit, s.Width)
		}
	case KindFixedPoint:
		if !s.Signed {
			return fmt.Errorf("%w: %s: fixed-point registers are signed", ErrInvalidSpec, s.Name)
		}
		if s.Decimals < 1 || s.Decimals > 62 {
			return fmt.Errorf("%w: %s: decimals %d outside 1..62", ErrInvalidSpec, s.Name, s.Decimals)
		}
	case KindTrigger:
		if s.Width != 1 {
			return fmt.Errorf("%w: %s: trigger width must be 1", ErrInvalidSpec, s.Name)
		}
		if s.Elements() != 1 {
			return fmt.Errorf("%w: %s: trigger cannot be a memory", ErrInvalidSpec, s.Name)
		}
		if s.Readonly {
			return fmt.Errorf("%w: %s: trigger cannot be read-only", ErrInvalidSpec, s.Name)
		}
		if s.RAMOffset != nil {
			return fmt.Errorf("%w: %s: trigger cannot live in RAM", ErrInvalidSpec, s.Name)
		}
	}
	return nil
}

// Elements returns the number of elements (1 for scalars).
func (s *Spec) Elements() int {
	if s.Depth <= 1 {
		return 1
	}
	return s.Depth
}

// IsArray reports whether the register is a memory or a RAM window.
func (s *Spec) IsArray() bool {
	return s.Depth > 1 || s.RAMOffset != nil
}

// InRAM reports whether the register is read through the bulk memory space.
func (s *Spec) InRAM() bool {
	return s.RAMOffset != nil
}

// CheckWrite returns ErrPermission if the register cannot be written.
func (s *Spec) CheckWrite() error {
	if s.Readonly {
		return fmt.Errorf("%w: register %s is read-only", ErrPermission, s.Name)
	}
	if s.RAMOffset != nil {
		return fmt.Errorf("%w: register %s is a RAM window", ErrPermission, s.Name)
	}
	return nil
}

// CheckRead returns an error if the register cannot be read. Reading a
// trigger matches both ErrInvalidOperation and ErrPermission.
func (s *Spec) CheckRead() error {
	if s.Kind == KindTrigger {
		return fmt.Errorf("%w: %w: trigger %s cannot be read, fire it instead", ErrInvalidOperation, ErrPermission, s.Name)
	}
	return nil
}

// Range returns the representable host range of an integer register
// (before any software bound), taking the offset into account. For
// FixedPoint registers the range is in raw steps.
func (s *Spec) Range() (lo, hi int64) {
	lo, hi = s.intRange()
	return lo + s.Offset, hi + s.Offset
}

func (s *Spec) intRange() (lo, hi int64) {
	if s.Signed && (s.Kind == KindNumber || s.Kind == KindFixedPoint) {
		return -(int64(1) << (s.Width - 1)), int64(1)<<(s.Width-1) - 1
	}
	return 0, int64(1)<<s.Width - 1
}

func (s *Spec) mask() uint32 {
	if s.Width >= MaxWidth {
		return 0xFFFFFFFF
	}
	return uint32(1)<<s.Width - 1
}

// Float returns a pointer to v, for filling Min and Max.
func Float(v float64) *float64 {
	return &v
}

// Offset32 returns a pointer to v, for filling RAMOffset.
func Offset32(v uint32) *uint32 {
	return &v
}
