package port

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/arloliu/erlport/endian"
	"github.com/arloliu/erlport/errs"
	"github.com/arloliu/erlport/etf"
	"github.com/arloliu/erlport/internal/options"
)

// DefaultPacketSize matches an Erlang port opened with {packet, 2}.
const DefaultPacketSize = 2

// Config holds the framing settings of a Port.
type Config struct {
	packetSize     int
	maxMessageSize int
}

// Option represents a functional option for configuring a Port.
type Option = options.Option[*Config]

// WithPacketSize sets the length prefix size in bytes. It must match the
// {packet, N} option the Erlang side opened the port with: 1, 2 or 4.
func WithPacketSize(n int) Option {
	return options.New(func(c *Config) error {
		switch n {
		case 1, 2, 4:
			c.packetSize = n
			return nil
		default:
			return fmt.Errorf("%w: got %d", errs.ErrInvalidPacketSize, n)
		}
	})
}

// WithMaxMessageSize limits the size of messages read or written, length
// prefix excluded. The limit never exceeds what the length prefix can express;
// values <= 0 leave only that bound.
func WithMaxMessageSize(n int) Option {
	return options.NoError(func(c *Config) {
		c.maxMessageSize = n
	})
}

// Port exchanges length-prefixed messages with an Erlang node, normally over
// standard input and output.
//
// Reads and writes are serialised independently: one goroutine may read while
// another writes, and whole messages never interleave.
type Port struct {
	rmu  sync.Mutex
	r    io.Reader
	rhdr [4]byte

	wmu  sync.Mutex
	w    io.Writer
	wbuf []byte

	packetSize int
	maxSize    int
	engine     endian.EndianEngine
}

// New creates a Port reading from r and writing to w.
func New(r io.Reader, w io.Writer, opts ...Option) (*Port, error) {
	cfg := &Config{packetSize: DefaultPacketSize}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	limit := prefixLimit(cfg.packetSize)
	if cfg.maxMessageSize > 0 && cfg.maxMessageSize < limit {
		limit = cfg.maxMessageSize
	}

	return &Port{
		r:          r,
		w:          w,
		packetSize: cfg.packetSize,
		maxSize:    limit,
		engine:     endian.GetBigEndianEngine(),
	}, nil
}

func prefixLimit(packetSize int) int {
	switch packetSize {
	case 1:
		return math.MaxUint8
	case 2:
		return math.MaxUint16
	default:
		return int(min(uint64(math.MaxInt), math.MaxUint32))
	}
}

// PacketSize returns the length prefix size in bytes.
func (p *Port) PacketSize() int {
	return p.packetSize
}

// MaxMessageSize returns the largest message the port reads or writes.
func (p *Port) MaxMessageSize() int {
	return p.maxSize
}

// ReadMessage blocks until a whole message has arrived and returns it without
// its length prefix.
//
// It returns io.EOF when the stream ends before a message starts, which is how
// the Erlang side closes the port, and io.ErrUnexpectedEOF when it ends inside
// one. A message longer than the maximum size is errs.ErrMessageTooLarge; its
// body is left unread, so the stream cannot be used afterwards.
func (p *Port) ReadMessage() ([]byte, error) {
	p.rmu.Lock()
	defer p.rmu.Unlock()

	hdr := p.rhdr[:p.packetSize]
	if _, err := io.ReadFull(p.r, hdr); err != nil {
		return nil, err
	}

	var size uint64
	switch p.packetSize {
	case 1:
		size = uint64(hdr[0])
	case 2:
		size = uint64(p.engine.Uint16(hdr))
	default:
		size = uint64(p.engine.Uint32(hdr))
	}

	if size == 0 {
		return nil, errs.ErrEmptyMessage
	}
	if size > uint64(p.maxSize) {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", errs.ErrMessageTooLarge, size, p.maxSize)
	}

	msg := make([]byte, size)
	if _, err := io.ReadFull(p.r, msg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}

		return nil, err
	}

	return msg, nil
}

// WriteMessage writes msg with its length prefix in a single Write call.
func (p *Port) WriteMessage(msg []byte) error {
	if len(msg) == 0 {
		return errs.ErrEmptyMessage
	}
	if len(msg) > p.maxSize {
		return fmt.Errorf("%w: %d bytes, limit %d", errs.ErrMessageTooLarge, len(msg), p.maxSize)
	}

	p.wmu.Lock()
	defer p.wmu.Unlock()

	buf := p.wbuf[:0]
	switch p.packetSize {
	case 1:
		buf = append(buf, byte(len(msg)))
	case 2:
		buf = p.engine.AppendUint16(buf, uint16(len(msg))) //nolint: gosec
	default:
		buf = p.engine.AppendUint32(buf, uint32(len(msg))) //nolint: gosec
	}
	buf = append(buf, msg...)
	p.wbuf = buf

	if _, err := p.w.Write(buf); err != nil {
		return err
	}

	return nil
}

// Send finishes enc and writes the message it holds.
func (p *Port) Send(enc *etf.Encoder) error {
	msg, err := enc.Finish()
	if err != nil {
		return err
	}

	return p.WriteMessage(msg)
}
