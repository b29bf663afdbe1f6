package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/csrlink/csrlink-go/pkg/register"
)

// parseValue converts text to the host type of the register kind.
func parseValue(spec *register.Spec, text string) (any, error) {
	switch spec.Kind {
	case register.KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("%s expects true or false, got %q", spec.Name, text)
		}
		return b, nil
	case register.KindFixedPoint:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%s expects a number, got %q", spec.Name, text)
		}
		return f, nil
	default:
		i, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("%s expects an integer, got %q", spec.Name, text)
		}
		return i, nil
	}
}

// parseValues converts a comma-separated list for a memory register.
func parseValues(spec *register.Spec, text string) ([]any, error) {
	fields := strings.Split(text, ",")
	out := make([]any, len(fields))
	for i, f := range fields {
		v, err := parseValue(spec, strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
