package etf

import (
	"fmt"

	"github.com/arloliu/erlport/endian"
	"github.com/arloliu/erlport/errs"
	"github.com/arloliu/erlport/format"
)

// cursor is a scratch copy of the decoder position. Reads run on a cursor and
// the decoder adopts its position only when the whole term was read.
type cursor struct {
	buf    []byte
	pos    int
	engine endian.EndianEngine
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

func (c *cursor) need(n uint64) error {
	if uint64(c.remaining()) < n {
		return fmt.Errorf("%w: need %d bytes at offset %d, %d left",
			errs.ErrOutOfRange, n, c.pos, c.remaining())
	}

	return nil
}

func (c *cursor) take(n uint64) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+int(n)]
	c.pos += int(n)

	return b, nil
}

func (c *cursor) skip(n uint64) error {
	_, err := c.take(n)
	return err
}

func (c *cursor) tag() (format.Tag, error) {
	v, err := c.u8()
	return format.Tag(v), err
}

func (c *cursor) u8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.buf[c.pos]
	c.pos++

	return v, nil
}

func (c *cursor) u16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}

	return c.engine.Uint16(b), nil
}

func (c *cursor) u32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}

	return c.engine.Uint32(b), nil
}

func (c *cursor) u64() (uint64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}

	return c.engine.Uint64(b), nil
}

// atom reads the length and name of an atom whose tag has already been consumed.
func (c *cursor) atom(tag format.Tag) ([]byte, error) {
	var size uint16
	switch tag {
	case format.TagSmallAtom, format.TagSmallAtomUTF8:
		n, err := c.u8()
		if err != nil {
			return nil, err
		}
		size = uint16(n)
	case format.TagAtom, format.TagAtomUTF8:
		n, err := c.u16()
		if err != nil {
			return nil, err
		}
		size = n
	default:
		return nil, unexpectedTag(tag, "atom")
	}

	limit := uint16(MaxAtomLength)
	if tag == format.TagAtomUTF8 || tag == format.TagSmallAtomUTF8 {
		limit = MaxAtomUTF8Length
	}
	if size == 0 || size > limit {
		return nil, fmt.Errorf("%w: atom length %d not in [1,%d]", errs.ErrInvalidLength, size, limit)
	}

	return c.take(uint64(size))
}

func unexpectedTag(tag format.Tag, want string) error {
	return fmt.Errorf("%w: expected %s, got %s (%d)", errs.ErrInvalidOperation, want, tag, uint8(tag))
}
