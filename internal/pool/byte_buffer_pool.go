package pool

import (
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/arloliu/erlport/errs"
)

const (
	// EncoderBufferDefaultSize is the initial capacity of a term encoder buffer and
	// the quantum it grows by.
	EncoderBufferDefaultSize = 1024
	// EncoderBufferMaxThreshold is the largest buffer the encoder pool retains.
	EncoderBufferMaxThreshold = 1024 * 64
)

// ByteBuffer is an append-only byte buffer that grows in multiples of its
// initial capacity and refuses to grow past a maximum size.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte

	unit    int
	maxSize int
}

// NewByteBuffer creates a new ByteBuffer with the specified initial capacity.
// The initial capacity is also the growth quantum.
func NewByteBuffer(initialSize int) *ByteBuffer {
	if initialSize <= 0 {
		initialSize = EncoderBufferDefaultSize
	}

	return &ByteBuffer{
		B:       make([]byte, 0, initialSize),
		unit:    initialSize,
		maxSize: math.MaxInt,
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset resets the buffer to be empty, but retains the allocated memory for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// MaxSize returns the largest capacity the buffer may grow to.
func (bb *ByteBuffer) MaxSize() int {
	return bb.maxSize
}

// SetMaxSize limits the capacity the buffer may grow to. Values <= 0 remove the limit.
func (bb *ByteBuffer) SetMaxSize(n int) {
	if n <= 0 {
		n = math.MaxInt
	}
	bb.maxSize = n
}

// Grow ensures the buffer can hold requiredBytes more bytes without reallocating.
//
// When the free space is short, capacity is increased by the smallest multiple of
// the growth quantum that covers the shortfall. If that would take the capacity
// past the maximum size, the increase is clamped to the maximum; if the clamped
// increase still cannot cover the request, Grow returns errs.ErrOverflow and
// leaves the buffer untouched. The same error is returned when the buffer
// already has the capacity but its length would pass the maximum size.
func (bb *ByteBuffer) Grow(requiredBytes int) error {
	if requiredBytes > bb.maxSize-len(bb.B) {
		return fmt.Errorf("%w: %d bytes do not fit in %d of %d (max)",
			errs.ErrOverflow, requiredBytes, len(bb.B), bb.maxSize)
	}

	size := cap(bb.B)
	rest := size - len(bb.B)
	if requiredBytes <= rest {
		return nil
	}

	headroom := bb.maxSize - size
	if headroom < 0 {
		headroom = 0
	}

	chunks := (requiredBytes-rest)/bb.unit + 1
	addSize := headroom
	if chunks <= headroom/bb.unit {
		addSize = chunks * bb.unit
	}

	if addSize < requiredBytes-rest {
		return fmt.Errorf("%w: cannot grow buffer of %d bytes by %d (max %d)",
			errs.ErrOverflow, size, requiredBytes-rest, bb.maxSize)
	}

	newBuf := make([]byte, len(bb.B), size+addSize)
	copy(newBuf, bb.B)
	bb.B = newBuf

	return nil
}

// Append appends data to the buffer, growing it if necessary.
func (bb *ByteBuffer) Append(data ...byte) error {
	if err := bb.Grow(len(data)); err != nil {
		return err
	}
	bb.B = append(bb.B, data...)

	return nil
}

// Write implements io.Writer on top of Append.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	if err := bb.Append(data...); err != nil {
		return 0, err
	}

	return len(data), nil
}

// WriteTo writes the contents of the buffer to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

// Clone returns a deep copy of the buffer with the same capacity and limits.
func (bb *ByteBuffer) Clone() *ByteBuffer {
	b := make([]byte, len(bb.B), cap(bb.B))
	copy(b, bb.B)

	return &ByteBuffer{B: b, unit: bb.unit, maxSize: bb.maxSize}
}

// ByteBufferPool is a pool of ByteBuffers to minimize allocations.
//
// Buffers larger than maxThreshold are dropped on Put instead of being retained.
type ByteBufferPool struct {
	pool         sync.Pool
	defaultSize  int
	maxThreshold int
}

// NewByteBufferPool creates a new ByteBufferPool with buffers of the specified default size.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		defaultSize:  defaultSize,
		maxThreshold: maxThreshold,
	}
}

// Get retrieves an empty ByteBuffer with no size limit from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil || bb.unit != bbp.defaultSize {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bb.maxSize = math.MaxInt
	bbp.pool.Put(bb)
}

var encoderDefaultPool = NewByteBufferPool(EncoderBufferDefaultSize, EncoderBufferMaxThreshold)

// GetEncoderBuffer retrieves a ByteBuffer from the default encoder pool.
func GetEncoderBuffer() *ByteBuffer {
	return encoderDefaultPool.Get()
}

// PutEncoderBuffer returns a ByteBuffer to the default encoder pool.
func PutEncoderBuffer(bb *ByteBuffer) {
	encoderDefaultPool.Put(bb)
}
