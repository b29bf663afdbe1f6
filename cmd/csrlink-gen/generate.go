package main

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/csrlink/csrlink-go/pkg/csrmap"
	"github.com/csrlink/csrlink-go/pkg/device"
	"github.com/csrlink/csrlink-go/pkg/register"
)

// Generate renders the constants file of root. The address table is
// optional; with it, RAM-less registers also get their bus address.
func Generate(root *device.Node, table *csrmap.Map, pkg, source string) (string, error) {
	data := fileData{
		Package:   pkg,
		Source:    source,
		TopType:   root.Type(),
		Addressed: table != nil,
	}

	seen := make(map[string]string)
	for _, f := range root.Flatten() {
		ident := goIdent(f.Path)
		if prev, ok := seen[ident]; ok {
			return "", fmt.Errorf("registers %s and %s both map to %s", prev, f.Path, ident)
		}
		seen[ident] = f.Path

		r := registerData{
			Ident:   ident,
			Path:    f.Path,
			Key:     f.Key,
			Comment: describe(f.Spec),
		}
		if table != nil && !f.Spec.InRAM() {
			e, err := table.Lookup(f.Key)
			if err != nil {
				return "", err
			}
			r.Address, r.HasAddr = e.Address, true
		}
		data.Registers = append(data.Registers, r)
	}

	var b strings.Builder
	renderTemplate(&b, "file", data)
	return b.String(), nil
}

// describe summarizes a declaration for the constant comment.
func describe(s register.Spec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "a %d-bit %s register", s.Width, strings.ToLower(s.Kind.String()))
	if s.IsArray() {
		fmt.Fprintf(&b, " of depth %d", s.Elements())
	}
	if s.InRAM() {
		fmt.Fprintf(&b, " in RAM at offset 0x%x", *s.RAMOffset)
	}
	if s.Readonly {
		b.WriteString(", read-only")
	}
	return b.String()
}

// goIdent converts "led0to3.led1_rate" to "Led0to3Led1Rate".
func goIdent(path string) string {
	var b strings.Builder
	upper := true
	for _, r := range path {
		switch {
		case r == '.' || r == '_' || r == '-':
			upper = true
		case upper:
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		default:
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" || unicode.IsDigit(rune(s[0])) {
		s = "R" + s
	}
	return s
}
