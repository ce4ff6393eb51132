package trace

import (
	"fmt"
	"time"

	"github.com/arloliu/erlport/compress"
	"github.com/arloliu/erlport/endian"
	"github.com/arloliu/erlport/errs"
	"github.com/arloliu/erlport/format"
)

const (
	// Magic starts every record header.
	Magic uint16 = 0xE7F1
	// HeaderSize is the size of a record header in bytes.
	HeaderSize = 28
	// MaxRecordSize bounds the raw and stored lengths a Reader accepts.
	MaxRecordSize = compress.MaxDecodedSize
)

// Direction tells which way a traced message travelled.
type Direction uint8

const (
	DirectionIn       Direction = 1 // DirectionIn is a message read from the port.
	DirectionOut      Direction = 2 // DirectionOut is a reply written to the port.
	DirectionRejected Direction = 3 // DirectionRejected is a message that could not be handled.
)

// Valid reports whether d is one of the defined directions.
func (d Direction) Valid() bool {
	return d >= DirectionIn && d <= DirectionRejected
}

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "in"
	case DirectionOut:
		return "out"
	case DirectionRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Header is the fixed-size prefix of a trace record. All fields are little-endian.
type Header struct {
	Magic       uint16                 // byte offset 0-1
	Direction   Direction              // byte offset 2
	Compression format.CompressionType // byte offset 3
	Timestamp   int64                  // byte offset 4-11, unix microseconds
	RawSize     uint32                 // byte offset 12-15
	StoredSize  uint32                 // byte offset 16-19
	Checksum    uint64                 // byte offset 20-27, xxHash64 of the raw message
}

// Parse decodes data into h and validates the magic, direction and size fields.
// The compression type is checked by the caller when it picks a codec.
func (h *Header) Parse(data []byte) error {
	if len(data) != HeaderSize {
		return fmt.Errorf("%w: header of %d bytes", errs.ErrInvalidTraceRecord, len(data))
	}

	engine := endian.GetLittleEndianEngine()

	h.Magic = engine.Uint16(data[0:2])
	h.Direction = Direction(data[2])
	h.Compression = format.CompressionType(data[3])
	h.Timestamp = int64(engine.Uint64(data[4:12])) //nolint: gosec
	h.RawSize = engine.Uint32(data[12:16])
	h.StoredSize = engine.Uint32(data[16:20])
	h.Checksum = engine.Uint64(data[20:28])

	return h.Validate()
}

// Validate checks the fields that do not depend on the record body.
func (h *Header) Validate() error {
	if h.Magic != Magic {
		return fmt.Errorf("%w: bad magic %#04x", errs.ErrInvalidTraceRecord, h.Magic)
	}
	if !h.Direction.Valid() {
		return fmt.Errorf("%w: bad direction %d", errs.ErrInvalidTraceRecord, h.Direction)
	}
	if h.RawSize > MaxRecordSize || h.StoredSize > MaxRecordSize {
		return fmt.Errorf("%w: record of %d/%d bytes exceeds %d",
			errs.ErrInvalidTraceRecord, h.RawSize, h.StoredSize, MaxRecordSize)
	}

	return nil
}

// Put encodes h into the first HeaderSize bytes of b.
func (h *Header) Put(b []byte) {
	engine := endian.GetLittleEndianEngine()

	engine.PutUint16(b[0:2], h.Magic)
	b[2] = byte(h.Direction)
	b[3] = byte(h.Compression)
	engine.PutUint64(b[4:12], uint64(h.Timestamp)) //nolint: gosec
	engine.PutUint32(b[12:16], h.RawSize)
	engine.PutUint32(b[16:20], h.StoredSize)
	engine.PutUint64(b[20:28], h.Checksum)
}

// Bytes returns the encoded header.
func (h *Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	h.Put(b)

	return b
}

// Time returns the timestamp as a time.Time.
func (h *Header) Time() time.Time {
	return time.UnixMicro(h.Timestamp)
}
