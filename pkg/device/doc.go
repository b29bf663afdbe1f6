// Package device builds the named register tree of a design.
//
// A design is declared by a Manifest: a type name, a list of register
// declarations and a list of named sub-components, each itself a Manifest.
// Build turns a manifest into a tree of Nodes rooted at "top" and checks
// that sibling names are unique. Flatten walks the tree depth-first and
// yields the fully-qualified key under which the hardware build publishes
// each register in its address table:
//
//	top.<path>_<register>_csr
//
// where <path> joins the names of the sub-components below the root with
// underscores.
package device
