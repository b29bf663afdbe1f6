package main

import (
	"fmt"

	"github.com/csrlink/csrlink-go/pkg/csrmap"
	"github.com/csrlink/csrlink-go/pkg/device"
	"github.com/csrlink/csrlink-go/pkg/transport"
)

// seedMemory fills mem with the reset image of the address table. Without
// a tree every entry is one zero word; with one, registers get their
// declared depth and defaults. Returns the number of words loaded.
func seedMemory(mem *transport.Memory, table *csrmap.Map, root *device.Node) (int, error) {
	if root == nil {
		for _, e := range table.Entries() {
			mem.Load(e.Address, []uint32{0})
		}
		return table.Len(), nil
	}

	words := 0
	for _, f := range root.Flatten() {
		if f.Spec.InRAM() {
			continue
		}
		e, err := table.Lookup(f.Key)
		if err != nil {
			return 0, err
		}
		image, err := f.Spec.InitialImage()
		if err != nil {
			return 0, fmt.Errorf("%s: %w", f.Path, err)
		}
		mem.Load(e.Address, image)
		words += len(image)
	}
	return words, nil
}
