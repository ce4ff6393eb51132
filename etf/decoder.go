package etf

import (
	"fmt"
	"unicode/utf16"

	"github.com/arloliu/erlport/endian"
	"github.com/arloliu/erlport/errs"
	"github.com/arloliu/erlport/format"
)

const (
	// MaxAtomLength is the longest atom name, in bytes, ATOM_EXT and SMALL_ATOM_EXT may carry.
	MaxAtomLength = 255
	// MaxAtomUTF8Length is the longest UTF-8 atom name in bytes (255 characters of up to 4 bytes).
	MaxAtomUTF8Length = 4 * MaxAtomLength
)

// Decoder reads terms from a private copy of one external term format message.
//
// Note: The Decoder is NOT thread-safe and NOT reusable across messages.
type Decoder struct {
	buf    []byte
	pos    int
	engine endian.EndianEngine
}

// NewDecoder copies msg and positions the decoder after its version byte.
//
// Returns errs.ErrInvalidInput if msg is empty or does not start with format.Version.
func NewDecoder(msg []byte) (*Decoder, error) {
	if len(msg) == 0 {
		return nil, fmt.Errorf("%w: empty message", errs.ErrInvalidInput)
	}
	if msg[0] != format.Version {
		return nil, fmt.Errorf("%w: version byte %d, expected %d", errs.ErrInvalidInput, msg[0], format.Version)
	}

	buf := make([]byte, len(msg))
	copy(buf, msg)

	return &Decoder{
		buf:    buf,
		pos:    1,
		engine: endian.GetBigEndianEngine(),
	}, nil
}

// Clone returns an independent decoder over its own copy of the message, at the
// same position.
func (d *Decoder) Clone() *Decoder {
	buf := make([]byte, len(d.buf))
	copy(buf, d.buf)

	return &Decoder{buf: buf, pos: d.pos, engine: d.engine}
}

// Len returns the size of the whole message, version byte included.
func (d *Decoder) Len() int {
	return len(d.buf)
}

// Consumed returns the number of bytes read so far, version byte included.
func (d *Decoder) Consumed() int {
	return d.pos
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// More reports whether unread bytes remain.
func (d *Decoder) More() bool {
	return d.Remaining() > 0
}

// Unread returns a copy of the unread tail of the message.
func (d *Decoder) Unread() []byte {
	out := make([]byte, d.Remaining())
	copy(out, d.buf[d.pos:])

	return out
}

// Bytes returns a copy of the whole message.
func (d *Decoder) Bytes() []byte {
	out := make([]byte, len(d.buf))
	copy(out, d.buf)

	return out
}

func (d *Decoder) cursor() cursor {
	return cursor{buf: d.buf, pos: d.pos, engine: d.engine}
}

func (d *Decoder) commit(c cursor) {
	d.pos = c.pos
}

// PeekTag returns the tag of the next term without consuming it, or 0 when the
// message is exhausted.
func (d *Decoder) PeekTag() format.Tag {
	if d.Remaining() < 1 {
		return 0
	}

	return format.Tag(d.buf[d.pos])
}

// ReadTupleHeader reads a SMALL_TUPLE_EXT or LARGE_TUPLE_EXT header and returns
// the arity. The elements are read by the caller.
func (d *Decoder) ReadTupleHeader() (uint32, error) {
	c := d.cursor()
	tag, err := c.tag()
	if err != nil {
		return 0, err
	}

	var arity uint32
	switch tag {
	case format.TagSmallTuple:
		n, err := c.u8()
		if err != nil {
			return 0, err
		}
		arity = uint32(n)
	case format.TagLargeTuple:
		if arity, err = c.u32(); err != nil {
			return 0, err
		}
	default:
		return 0, unexpectedTag(tag, "tuple")
	}

	d.commit(c)

	return arity, nil
}

// ReadNil reads a NIL_EXT.
func (d *Decoder) ReadNil() error {
	c := d.cursor()
	tag, err := c.tag()
	if err != nil {
		return err
	}
	if tag != format.TagNil {
		return unexpectedTag(tag, "nil")
	}

	d.commit(c)

	return nil
}

// ReadListHeader reads a LIST_EXT header and returns its element count.
//
// Unlike ReadUnicode, the elements and the tail are left for the caller, who
// must read count elements followed by the terminating nil.
func (d *Decoder) ReadListHeader() (uint32, error) {
	c := d.cursor()
	tag, err := c.tag()
	if err != nil {
		return 0, err
	}
	if tag != format.TagList {
		return 0, unexpectedTag(tag, "list")
	}

	n, err := c.u32()
	if err != nil {
		return 0, err
	}

	d.commit(c)

	return n, nil
}

// ReadASCII reads a byte string. NIL_EXT yields an empty slice; STRING_EXT
// yields its bytes. A STRING_EXT with a zero length is errs.ErrInvalidLength.
func (d *Decoder) ReadASCII() ([]byte, error) {
	c := d.cursor()
	tag, err := c.tag()
	if err != nil {
		return nil, err
	}

	switch tag {
	case format.TagNil:
		d.commit(c)
		return []byte{}, nil
	case format.TagString:
	default:
		return nil, unexpectedTag(tag, "string")
	}

	size, err := c.u16()
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, fmt.Errorf("%w: zero string length", errs.ErrInvalidLength)
	}

	b, err := c.take(uint64(size))
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(b))
	copy(out, b)
	d.commit(c)

	return out, nil
}

// ReadUnicode reads a string sent as a proper list of integers and returns its
// 16-bit code units. NIL_EXT yields an empty slice.
//
// Every element must be a SMALL_INTEGER_EXT or an INTEGER_EXT in [0, 0xFFFF]
// and the list must end with NIL_EXT.
func (d *Decoder) ReadUnicode() ([]uint16, error) {
	c := d.cursor()
	tag, err := c.tag()
	if err != nil {
		return nil, err
	}

	switch tag {
	case format.TagNil:
		d.commit(c)
		return []uint16{}, nil
	case format.TagList:
	default:
		return nil, unexpectedTag(tag, "list")
	}

	count, err := c.u32()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: zero list length", errs.ErrInvalidLength)
	}
	// every element takes at least two bytes
	if err := c.need(2 * uint64(count)); err != nil {
		return nil, err
	}

	units := make([]uint16, 0, count)
	for range count {
		tag, err := c.tag()
		if err != nil {
			return nil, err
		}

		switch tag {
		case format.TagSmallInteger:
			v, err := c.u8()
			if err != nil {
				return nil, err
			}
			units = append(units, uint16(v))
		case format.TagInteger:
			v, err := c.u32()
			if err != nil {
				return nil, err
			}
			if v > 0xFFFF {
				return nil, fmt.Errorf("%w: code unit %d does not fit 16 bits", errs.ErrCast, int32(v))
			}
			units = append(units, uint16(v))
		default:
			return nil, unexpectedTag(tag, "integer list element")
		}
	}

	tail, err := c.tag()
	if err != nil {
		return nil, err
	}
	if tail != format.TagNil {
		return nil, unexpectedTag(tail, "nil list tail")
	}

	d.commit(c)

	return units, nil
}

// ReadText reads a string in any of the forms an Erlang node sends it: NIL_EXT,
// STRING_EXT or a list of code units, and returns it as a Go string.
// STRING_EXT bytes are Latin-1 code points; list elements are decoded as UTF-16.
func (d *Decoder) ReadText() (string, error) {
	if d.PeekTag() == format.TagString {
		b, err := d.ReadASCII()
		if err != nil {
			return "", err
		}
		runes := make([]rune, len(b))
		for i, ch := range b {
			runes[i] = rune(ch)
		}

		return string(runes), nil
	}

	units, err := d.ReadUnicode()
	if err != nil {
		return "", err
	}

	return string(utf16.Decode(units)), nil
}

// ReadAtom reads an atom and returns its name.
func (d *Decoder) ReadAtom() (string, error) {
	c := d.cursor()
	tag, err := c.tag()
	if err != nil {
		return "", err
	}
	if !tag.IsAtom() {
		return "", unexpectedTag(tag, "atom")
	}

	name, err := c.atom(tag)
	if err != nil {
		return "", err
	}

	d.commit(c)

	return string(name), nil
}

// ReadReference reads a REFERENCE_EXT, NEW_REFERENCE_EXT or NEWER_REFERENCE_EXT.
//
// The node name may be an atom of any form or an ATOM_CACHE_REF. The whole term,
// tag included, becomes the opaque payload of the returned Reference.
func (d *Decoder) ReadReference() (Reference, error) {
	c := d.cursor()
	start := c.pos

	tag, err := c.tag()
	if err != nil {
		return Reference{}, err
	}
	if !tag.IsReference() {
		return Reference{}, unexpectedTag(tag, "reference")
	}

	var words uint16
	if tag != format.TagReference {
		if words, err = c.u16(); err != nil {
			return Reference{}, err
		}
	}

	if err := c.skipNode(); err != nil {
		return Reference{}, err
	}

	switch tag {
	case format.TagReference:
		// id, creation
		err = c.skip(4 + 1)
	case format.TagNewReference:
		// creation, ids
		err = c.skip(1 + 4*uint64(words))
	case format.TagNewerReference:
		err = c.skip(4 + 4*uint64(words))
	}
	if err != nil {
		return Reference{}, err
	}

	ref, err := newReference(tag, c.buf[start:c.pos])
	if err != nil {
		return Reference{}, err
	}

	d.commit(c)

	return ref, nil
}

func (c *cursor) skipNode() error {
	tag, err := c.tag()
	if err != nil {
		return err
	}

	if tag == format.TagAtomCacheRef {
		return c.skip(1)
	}
	if !tag.IsAtom() {
		return unexpectedTag(tag, "node atom")
	}

	_, err = c.atom(tag)

	return err
}

// ReadBinary reads a BINARY_EXT. The returned Binary holds the whole term,
// including the BinaryHeaderSize bytes of tag and length.
func (d *Decoder) ReadBinary() (Binary, error) {
	c := d.cursor()
	start := c.pos

	tag, err := c.tag()
	if err != nil {
		return Binary{}, err
	}
	if tag != format.TagBinary {
		return Binary{}, unexpectedTag(tag, "binary")
	}

	size, err := c.u32()
	if err != nil {
		return Binary{}, err
	}
	if err := c.skip(uint64(size)); err != nil {
		return Binary{}, err
	}

	bin := Binary{RawData: newRawData(tag, c.buf[start:c.pos])}
	d.commit(c)

	return bin, nil
}
