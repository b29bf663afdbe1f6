// Package register implements the typed register model.
//
// A register is described by a Spec: a tagged union over the kinds Plain,
// Bool, Number, FixedPoint and Trigger. Encoding turns a host value into the
// 32-bit word that travels over the bus; decoding does the reverse. Both are
// pure functions of the Spec, so permission checks and I/O live in the
// callers.
//
// # Kinds
//
//   - Plain: unsigned integer, wire = value - Offset, clamped to [0, 2^width).
//   - Bool: one flag at bit position Bit, optionally inverted.
//   - Number: Plain plus signedness and an optional software range (Min/Max).
//   - FixedPoint: Number scaled by 2^decimals - 1, so +1.0 and -1.0 are both
//     exactly representable.
//   - Trigger: write-only strobe; reading is an invalid operation.
//
// # Saturation
//
// Out-of-range values are clamped to the nearest representable bound and the
// fact is reported in EncodeResult. Saturation is never an error; callers log
// it. Malformed input (wrong array length, NaN, non-numeric values) fails
// with ErrInvalidValue.
//
// # Arrays
//
// A Depth greater than one turns the register into a memory. Every element
// goes through the scalar codec. Reverse flips the element order in both
// directions to model hardware that stores index 0 last.
package register
