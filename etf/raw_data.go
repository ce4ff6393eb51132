package etf

import (
	"bytes"
	"fmt"

	"github.com/arloliu/erlport/errs"
	"github.com/arloliu/erlport/format"
	"github.com/arloliu/erlport/internal/hash"
)

// BinaryHeaderSize is the number of bytes in front of a Binary's content:
// the BINARY_EXT tag and the 4-byte length.
const BinaryHeaderSize = 5

// RawData is a tagged, privately owned copy of an encoded term.
//
// Equality compares the encoded bytes only; the tag is not considered.
type RawData struct {
	tag  format.Tag
	data []byte
}

func newRawData(tag format.Tag, span []byte) RawData {
	data := make([]byte, len(span))
	copy(data, span)

	return RawData{tag: tag, data: data}
}

// Tag returns the wire tag the value was decoded from.
func (r RawData) Tag() format.Tag {
	return r.tag
}

// Len returns the size of the encoded term in bytes.
func (r RawData) Len() int {
	return len(r.data)
}

// IsZero reports whether r holds no term.
func (r RawData) IsZero() bool {
	return len(r.data) == 0
}

// ID returns the xxHash64 of the encoded term, suitable as a map key.
func (r RawData) ID() uint64 {
	return hash.Sum(r.data)
}

// Binary is an opaque BINARY_EXT term.
//
// The stored bytes are the whole encoded term, header included, so Len is the
// content length plus BinaryHeaderSize.
type Binary struct {
	RawData
}

// Equal reports whether b and other encode the same binary.
func (b Binary) Equal(other Binary) bool {
	return bytes.Equal(b.data, other.data)
}

// Bytes returns a copy of the encoded term, BINARY_EXT header included.
func (b Binary) Bytes() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)

	return out
}

// Reference is an opaque Erlang reference. It cannot be inspected, only
// compared and written back with Encoder.WriteReference.
type Reference struct {
	RawData
}

func newReference(tag format.Tag, span []byte) (Reference, error) {
	if len(span) == 0 {
		return Reference{}, fmt.Errorf("%w: empty reference span", errs.ErrInvalidInput)
	}

	return Reference{RawData: newRawData(tag, span)}, nil
}

// Equal reports whether r and other encode the same reference.
func (r Reference) Equal(other Reference) bool {
	return bytes.Equal(r.data, other.data)
}

func (r Reference) String() string {
	return fmt.Sprintf("#Ref<%016x>", r.ID())
}
