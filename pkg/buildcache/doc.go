// Package buildcache decides whether a previous hardware build can be reused.
//
// The netlist produced for a device tree is hashed; the digest together with
// the board and the top-level type name forms the cache key. A non-empty
// result directory under
//
//	<root>/<board>/<top type>/<digest>
//
// means the bitstream and address table in it belong to an identical design,
// and the external build is skipped unless a rebuild is forced. Digest
// collisions are not handled.
package buildcache
