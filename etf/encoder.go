package etf

import (
	"fmt"
	"math"
	"unicode/utf16"

	"github.com/arloliu/erlport/endian"
	"github.com/arloliu/erlport/errs"
	"github.com/arloliu/erlport/format"
	"github.com/arloliu/erlport/internal/options"
	"github.com/arloliu/erlport/internal/pool"
)

// EncoderConfig holds the buffer settings of an Encoder.
type EncoderConfig struct {
	initialCapacity int
	maxSize         int
}

// EncoderOption represents a functional option for configuring an Encoder.
type EncoderOption = options.Option[*EncoderConfig]

// WithInitialCapacity sets the initial buffer capacity, which is also the
// quantum the buffer grows by. Values <= 0 keep the default of 1024 bytes.
func WithInitialCapacity(n int) EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		if n > 0 {
			c.initialCapacity = n
		}
	})
}

// WithMaxSize limits the encoded message to n bytes, version byte included.
// A write that would exceed it fails with errs.ErrOverflow. Values <= 0 remove
// the limit.
func WithMaxSize(n int) EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.maxSize = n
	})
}

// Encoder builds one external term format message.
//
// Write methods return the encoder for chaining. The first failure is kept and
// every later write becomes a no-op; check it with Err or Finish.
//
// Note: The Encoder is NOT thread-safe.
type Encoder struct {
	buf    *pool.ByteBuffer
	engine endian.EndianEngine
	err    error
}

// NewEncoder creates an encoder whose buffer already holds the version byte.
func NewEncoder(opts ...EncoderOption) *Encoder {
	cfg := &EncoderConfig{initialCapacity: pool.EncoderBufferDefaultSize}
	optErr := options.Apply(cfg, opts...)

	if cfg.maxSize > 0 && cfg.maxSize < cfg.initialCapacity {
		cfg.initialCapacity = cfg.maxSize
	}

	var buf *pool.ByteBuffer
	if cfg.initialCapacity == pool.EncoderBufferDefaultSize {
		buf = pool.GetEncoderBuffer()
	} else {
		buf = pool.NewByteBuffer(cfg.initialCapacity)
	}
	buf.SetMaxSize(cfg.maxSize)

	e := &Encoder{
		buf:    buf,
		engine: endian.GetBigEndianEngine(),
		err:    optErr,
	}
	e.append(format.Version)

	return e
}

// Err returns the first error encountered by a write, if any.
func (e *Encoder) Err() error {
	return e.err
}

// Bytes returns the encoded message so far.
//
// The returned slice shares the encoder's buffer and is only valid until the
// next write or Release. Do not modify it.
func (e *Encoder) Bytes() []byte {
	if e.buf == nil {
		return nil
	}

	return e.buf.Bytes()
}

// Len returns the number of bytes written, version byte included.
func (e *Encoder) Len() int {
	if e.buf == nil {
		return 0
	}

	return e.buf.Len()
}

// Cap returns the current buffer capacity.
func (e *Encoder) Cap() int {
	if e.buf == nil {
		return 0
	}

	return e.buf.Cap()
}

// Finish returns the encoded message, or the first write error.
// The returned slice follows the same rules as Bytes.
func (e *Encoder) Finish() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}

	return e.buf.Bytes(), nil
}

// Clone returns an independent encoder with a copy of the buffer and error state.
func (e *Encoder) Clone() *Encoder {
	clone := &Encoder{engine: e.engine, err: e.err}
	if e.buf != nil {
		clone.buf = e.buf.Clone()
	}

	return clone
}

// Release returns the buffer to the pool. The encoder must not be used afterwards.
func (e *Encoder) Release() {
	if e.buf != nil {
		pool.PutEncoderBuffer(e.buf)
		e.buf = nil
	}
	if e.err == nil {
		e.err = fmt.Errorf("%w: encoder released", errs.ErrInvalidOperation)
	}
}

// reserve makes room for n more bytes so the following appends cannot fail.
func (e *Encoder) reserve(n int) bool {
	if e.err != nil {
		return false
	}
	if err := e.buf.Grow(n); err != nil {
		e.err = err
		return false
	}

	return true
}

func (e *Encoder) append(data ...byte) {
	if e.err != nil {
		return
	}
	if err := e.buf.Append(data...); err != nil {
		e.err = err
	}
}

func (e *Encoder) fail(err error) *Encoder {
	if e.err == nil {
		e.err = err
	}

	return e
}

// WriteTupleHeader writes a LARGE_TUPLE_EXT header; the caller writes the
// arity elements next. The small tuple form is never emitted.
func (e *Encoder) WriteTupleHeader(arity uint32) *Encoder {
	var hdr [5]byte
	hdr[0] = byte(format.TagLargeTuple)
	e.engine.PutUint32(hdr[1:], arity)
	e.append(hdr[:]...)

	return e
}

// WriteInt writes v as INTEGER_EXT.
func (e *Encoder) WriteInt(v int32) *Encoder {
	var b [5]byte
	b[0] = byte(format.TagInteger)
	e.engine.PutUint32(b[1:], uint32(v))
	e.append(b[:]...)

	return e
}

// WriteFloat writes v as NEW_FLOAT_EXT.
func (e *Encoder) WriteFloat(v float64) *Encoder {
	var b [9]byte
	b[0] = byte(format.TagNewFloat)
	e.engine.PutUint64(b[1:], math.Float64bits(v))
	e.append(b[:]...)

	return e
}

// WriteNil writes NIL_EXT.
func (e *Encoder) WriteNil() *Encoder {
	e.append(byte(format.TagNil))
	return e
}

// WriteListHeader writes a LIST_EXT header. The caller writes count elements
// and then the tail, normally with WriteNil.
func (e *Encoder) WriteListHeader(count uint32) *Encoder {
	var hdr [5]byte
	hdr[0] = byte(format.TagList)
	e.engine.PutUint32(hdr[1:], count)
	e.append(hdr[:]...)

	return e
}

// WriteString writes s as a proper list with one SMALL_INTEGER_EXT per byte.
// An empty s is written as a zero-length list followed by nil.
func (e *Encoder) WriteString(s string) *Encoder {
	if uint64(len(s)) > math.MaxUint32 {
		return e.fail(fmt.Errorf("%w: string of %d bytes", errs.ErrInvalidLength, len(s)))
	}
	if !e.reserve(1 + 4 + 2*len(s) + 1) {
		return e
	}

	b := e.buf.B
	b = append(b, byte(format.TagList))
	b = e.engine.AppendUint32(b, uint32(len(s)))
	for i := range len(s) {
		b = append(b, byte(format.TagSmallInteger), s[i])
	}
	b = append(b, byte(format.TagNil))
	e.buf.B = b

	return e
}

// WriteUnicode writes s as a proper list with one INTEGER_EXT per UTF-16 code unit.
// An empty s is written as a zero-length list followed by nil.
func (e *Encoder) WriteUnicode(s string) *Encoder {
	units := utf16.Encode([]rune(s))
	if uint64(len(units)) > math.MaxUint32 {
		return e.fail(fmt.Errorf("%w: string of %d code units", errs.ErrInvalidLength, len(units)))
	}
	if !e.reserve(1 + 4 + 5*len(units) + 1) {
		return e
	}

	b := e.buf.B
	b = append(b, byte(format.TagList))
	b = e.engine.AppendUint32(b, uint32(len(units)))
	for _, u := range units {
		b = append(b, byte(format.TagInteger))
		b = e.engine.AppendUint32(b, uint32(u))
	}
	b = append(b, byte(format.TagNil))
	e.buf.B = b

	return e
}

// WriteAtom writes name as ATOM_EXT. The name must be 1 to MaxAtomLength bytes.
func (e *Encoder) WriteAtom(name string) *Encoder {
	if len(name) == 0 || len(name) > MaxAtomLength {
		return e.fail(fmt.Errorf("%w: atom length %d not in [1,%d]", errs.ErrInvalidLength, len(name), MaxAtomLength))
	}
	if !e.reserve(1 + 2 + len(name)) {
		return e
	}

	b := append(e.buf.B, byte(format.TagAtom))
	b = e.engine.AppendUint16(b, uint16(len(name)))
	e.buf.B = append(b, name...)

	return e
}

// WriteReference writes a reference obtained from Decoder.ReadReference verbatim.
func (e *Encoder) WriteReference(ref Reference) *Encoder {
	if ref.IsZero() {
		return e.fail(fmt.Errorf("%w: zero reference", errs.ErrInvalidInput))
	}
	e.append(ref.data...)

	return e
}

// WriteBinary writes a binary obtained from Decoder.ReadBinary verbatim.
func (e *Encoder) WriteBinary(bin Binary) *Encoder {
	if bin.IsZero() {
		return e.fail(fmt.Errorf("%w: zero binary", errs.ErrInvalidInput))
	}
	e.append(bin.data...)

	return e
}

// WriteBinaryBytes writes content as a BINARY_EXT term.
func (e *Encoder) WriteBinaryBytes(content []byte) *Encoder {
	if uint64(len(content)) > math.MaxUint32 {
		return e.fail(fmt.Errorf("%w: binary of %d bytes", errs.ErrInvalidLength, len(content)))
	}
	if !e.reserve(BinaryHeaderSize + len(content)) {
		return e
	}

	b := append(e.buf.B, byte(format.TagBinary))
	b = e.engine.AppendUint32(b, uint32(len(content)))
	e.buf.B = append(b, content...)

	return e
}
