package log

import (
	"fmt"
	"io"

	"github.com/csrlink/csrlink-go/pkg/wire"
	"github.com/fxamacker/cbor/v2"
)

// A capture record holds at most one transaction worth of words and a
// handful of keyed fields. Anything larger is a corrupt file.
const (
	maxRecordWords  = wire.MaxReadLength
	maxRecordFields = 32
)

var (
	captureEnc = mustEncMode(cbor.EncOptions{
		Sort:          cbor.SortCoreDeterministic,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	})
	captureDec = mustDecMode(cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		IndefLength:      cbor.IndefLengthForbidden,
		MaxArrayElements: maxRecordWords,
		MaxMapPairs:      maxRecordFields,
	})
)

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	m, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("log: capture encoder: %v", err))
	}
	return m
}

func mustDecMode(opts cbor.DecOptions) cbor.DecMode {
	m, err := opts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("log: capture decoder: %v", err))
	}
	return m
}

// NewEncoder returns a capture stream encoder writing to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return captureEnc.NewEncoder(w)
}

// NewDecoder returns a capture stream decoder reading from r. Records with
// more than a full read of words are rejected.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return captureDec.NewDecoder(r)
}
