package trace

import (
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/arloliu/erlport/compress"
	"github.com/arloliu/erlport/errs"
	"github.com/arloliu/erlport/format"
	"github.com/arloliu/erlport/internal/hash"
	"github.com/arloliu/erlport/internal/options"
	"github.com/arloliu/erlport/internal/pool"
)

// WriterConfig holds the settings of a Writer.
type WriterConfig struct {
	compression format.CompressionType
	clock       func() time.Time
}

// WriterOption represents a functional option for configuring a Writer.
type WriterOption = options.Option[*WriterConfig]

// WithCompression sets the codec used for record bodies. The default is
// format.CompressionNone.
func WithCompression(compression format.CompressionType) WriterOption {
	return options.New(func(c *WriterConfig) error {
		if _, err := compress.GetCodec(compression); err != nil {
			return err
		}
		c.compression = compression

		return nil
	})
}

// WithClock replaces time.Now as the source of record timestamps.
func WithClock(clock func() time.Time) WriterOption {
	return options.NoError(func(c *WriterConfig) {
		if clock != nil {
			c.clock = clock
		}
	})
}

// Writer appends records to an io.Writer. It is safe for concurrent use; each
// record reaches the underlying writer in a single Write call.
type Writer struct {
	mu    sync.Mutex
	w     io.Writer
	codec compress.Codec
	clock func() time.Time
	buf   *pool.ByteBuffer
}

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer, opts ...WriterOption) (*Writer, error) {
	cfg := &WriterConfig{
		compression: format.CompressionNone,
		clock:       time.Now,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	codec, err := compress.GetCodec(cfg.compression)
	if err != nil {
		return nil, err
	}

	return &Writer{
		w:     w,
		codec: codec,
		clock: cfg.clock,
		buf:   pool.NewByteBuffer(HeaderSize + pool.EncoderBufferDefaultSize),
	}, nil
}

// Compression returns the codec type of the records this writer produces.
func (w *Writer) Compression() format.CompressionType {
	return w.codec.Type()
}

// Write appends one record holding msg.
func (w *Writer) Write(dir Direction, msg []byte) error {
	if !dir.Valid() {
		return fmt.Errorf("%w: bad direction %d", errs.ErrInvalidTraceRecord, dir)
	}
	if len(msg) > MaxRecordSize || uint64(len(msg)) > math.MaxUint32 {
		return fmt.Errorf("%w: message of %d bytes exceeds %d", errs.ErrInvalidTraceRecord, len(msg), MaxRecordSize)
	}

	body, err := w.codec.Compress(msg)
	if err != nil {
		return fmt.Errorf("trace: compress %s record: %w", w.codec.Type(), err)
	}

	hdr := Header{
		Magic:       Magic,
		Direction:   dir,
		Compression: w.codec.Type(),
		RawSize:     uint32(len(msg)),  //nolint: gosec
		StoredSize:  uint32(len(body)), //nolint: gosec
		Checksum:    hash.Sum(msg),
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	hdr.Timestamp = w.clock().UnixMicro()

	w.buf.Reset()
	if _, err := w.buf.Write(hdr.Bytes()); err != nil {
		return fmt.Errorf("trace: buffer record: %w", err)
	}
	if _, err := w.buf.Write(body); err != nil {
		return fmt.Errorf("trace: buffer record: %w", err)
	}

	if _, err := w.buf.WriteTo(w.w); err != nil {
		return fmt.Errorf("trace: write record: %w", err)
	}

	return nil
}
