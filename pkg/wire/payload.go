package wire

import (
	"encoding/binary"
	"fmt"
)

// EncodeWords serializes values as consecutive little-endian uint32 words.
func EncodeWords(values []uint32) []byte {
	buf := make([]byte, len(values)*WordSize)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*WordSize:], v)
	}
	return buf
}

// AppendWords appends the little-endian encoding of values to dst.
func AppendWords(dst []byte, values []uint32) []byte {
	for _, v := range values {
		dst = binary.LittleEndian.AppendUint32(dst, v)
	}
	return dst
}

// DecodeWords parses a payload of little-endian uint32 words.
func DecodeWords(data []byte) ([]uint32, error) {
	if len(data)%WordSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadSize, len(data))
	}
	out := make([]uint32, len(data)/WordSize)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(data[i*WordSize:])
	}
	return out, nil
}

// EncodeWriteRequest returns header and payload as one buffer, ready to send.
func EncodeWriteRequest(address uint32, values []uint32) (Header, []byte) {
	h := WriteHeader(address, uint16(len(values)))
	enc := h.Encode()
	buf := make([]byte, 0, HeaderSize+len(values)*WordSize)
	buf = append(buf, enc[:]...)
	return h, AppendWords(buf, values)
}
