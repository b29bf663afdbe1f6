// Package csrmap loads the address table produced by a hardware build.
//
// The table is a CSV file with one row per register:
//
//	name,address,size,mode
//	top.led0to3_led1_rate_csr,0x80000810,32,rw
//
// Addresses may be written in hex (0x prefix) or decimal. Size is the
// register width in bits and mode is "ro" or "rw". Blank lines and lines
// starting with '#' are ignored.
package csrmap
