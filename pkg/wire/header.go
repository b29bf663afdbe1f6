package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Framing constants.
const (
	// HeaderSize is the size of a request header in bytes.
	HeaderSize = 8

	// WordSize is the size of one payload element in bytes.
	WordSize = 4

	// MaxReadLength is the largest word count a single read may request.
	MaxReadLength = 65535

	// MaxWriteLength is the largest word count a single write may carry.
	MaxWriteLength = 65535 - 2

	// TokenSize is the length of the session token sent on connect.
	TokenSize = 32
)

// Framing errors.
var (
	// ErrInvalidOpcode indicates an unknown opcode byte.
	ErrInvalidOpcode = errors.New("invalid opcode")

	// ErrShortHeader indicates fewer than HeaderSize bytes.
	ErrShortHeader = errors.New("short header")

	// ErrReservedByte indicates a non-zero reserved header byte.
	ErrReservedByte = errors.New("reserved header byte is not zero")

	// ErrPayloadSize indicates a payload that is not a whole number of words.
	ErrPayloadSize = errors.New("payload size is not a multiple of the word size")
)

// Header is a decoded request header.
type Header struct {
	Opcode  Opcode
	Length  uint16
	Address uint32
}

// ReadHeader returns the header of a read request.
func ReadHeader(address uint32, length uint16) Header {
	return Header{Opcode: OpRead, Length: length, Address: address}
}

// WriteHeader returns the header of a write request.
func WriteHeader(address uint32, length uint16) Header {
	return Header{Opcode: OpWrite, Length: length, Address: address}
}

// CloseHeader returns the header of a close request.
func CloseHeader() Header {
	return Header{Opcode: OpClose}
}

// Encode returns the 8-byte wire representation of the header.
func (h Header) Encode() [HeaderSize]byte {
	var b [HeaderSize]byte
	b[0] = byte(h.Opcode)
	b[1] = 0
	binary.LittleEndian.PutUint16(b[2:4], h.Length)
	binary.LittleEndian.PutUint32(b[4:8], h.Address)
	return b
}

// PayloadSize returns the number of payload bytes that follow the header
// (for writes) or the echo (for reads).
func (h Header) PayloadSize() int {
	if h.Opcode == OpClose {
		return 0
	}
	return int(h.Length) * WordSize
}

// String returns a compact description used in logs and errors.
func (h Header) String() string {
	return fmt.Sprintf("%s(addr=0x%08x, len=%d)", h.Opcode, h.Address, h.Length)
}

// DecodeHeader parses an 8-byte header.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrShortHeader, len(data))
	}
	op := Opcode(data[0])
	if !op.IsValid() {
		return Header{}, fmt.Errorf("%w: 0x%02x", ErrInvalidOpcode, data[0])
	}
	if data[1] != 0 {
		return Header{}, fmt.Errorf("%w: 0x%02x", ErrReservedByte, data[1])
	}
	return Header{
		Opcode:  op,
		Length:  binary.LittleEndian.Uint16(data[2:4]),
		Address: binary.LittleEndian.Uint32(data[4:8]),
	}, nil
}

// IsEcho reports whether ack is a byte-exact copy of the encoded header.
func (h Header) IsEcho(ack []byte) bool {
	enc := h.Encode()
	return bytes.Equal(enc[:], ack)
}
