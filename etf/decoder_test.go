package etf

import (
	"testing"

	"github.com/arloliu/erlport/errs"
	"github.com/arloliu/erlport/format"
	"github.com/stretchr/testify/require"
)

func TestNewDecoder(t *testing.T) {
	t.Run("empty message", func(t *testing.T) {
		_, err := NewDecoder(nil)
		require.ErrorIs(t, err, errs.ErrInvalidInput)

		_, err = NewDecoder([]byte{})
		require.ErrorIs(t, err, errs.ErrInvalidInput)
	})

	t.Run("wrong version byte", func(t *testing.T) {
		_, err := NewDecoder([]byte{130})
		require.ErrorIs(t, err, errs.ErrInvalidInput)

		_, err = NewDecoder([]byte{0, 106})
		require.ErrorIs(t, err, errs.ErrInvalidInput)
	})

	t.Run("version byte only", func(t *testing.T) {
		d, err := NewDecoder([]byte{131})
		require.NoError(t, err)
		require.Equal(t, 1, d.Len())
		require.Equal(t, 1, d.Consumed())
		require.Equal(t, 0, d.Remaining())
		require.False(t, d.More())
	})

	t.Run("private copy", func(t *testing.T) {
		msg := []byte{131, 97, 7}
		d, err := NewDecoder(msg)
		require.NoError(t, err)

		msg[2] = 99
		v, err := ReadNumber[int32](d)
		require.NoError(t, err)
		require.Equal(t, int32(7), v)
	})
}

func TestDecoder_PeekTag(t *testing.T) {
	d := mustDecoder(t, []byte{106})

	require.Equal(t, format.TagNil, d.PeekTag())
	require.Equal(t, format.TagNil, d.PeekTag(), "peek must not consume")
	require.NoError(t, d.ReadNil())
	require.Equal(t, format.Tag(0), d.PeekTag())
}

func TestDecoder_ReadTupleHeader(t *testing.T) {
	tests := []struct {
		name  string
		term  []byte
		arity uint32
		err   error
	}{
		{"small tuple", []byte{104, 3}, 3, nil},
		{"small tuple max", []byte{104, 255}, 255, nil},
		{"large tuple", []byte{105, 0, 1, 0, 0}, 65536, nil},
		{"empty tuple", []byte{104, 0}, 0, nil},
		{"atom instead", []byte{100, 0, 1, 'a'}, 0, errs.ErrInvalidOperation},
		{"missing arity", []byte{104}, 0, errs.ErrOutOfRange},
		{"short large arity", []byte{105, 0, 0, 1}, 0, errs.ErrOutOfRange},
		{"nothing left", nil, 0, errs.ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustDecoder(t, tt.term)
			arity, err := d.ReadTupleHeader()
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				require.Equal(t, 1, d.Consumed(), "cursor must not move on failure")
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.arity, arity)
			require.Equal(t, 0, d.Remaining())
		})
	}
}

func TestDecoder_ReadNil(t *testing.T) {
	d := mustDecoder(t, []byte{106, 108})

	require.NoError(t, d.ReadNil())
	err := d.ReadNil()
	require.ErrorIs(t, err, errs.ErrInvalidOperation)
	require.Equal(t, 2, d.Consumed())
}

func TestDecoder_ReadListHeader(t *testing.T) {
	d := mustDecoder(t, []byte{108, 0, 0, 0, 2, 97, 1, 97, 2, 106})

	n, err := d.ReadListHeader()
	require.NoError(t, err)
	require.Equal(t, uint32(2), n)

	// elements and the tail are left to the caller
	require.Equal(t, format.TagSmallInteger, d.PeekTag())
	for i := range n {
		v, err := ReadNumber[int](d)
		require.NoError(t, err)
		require.Equal(t, int(i+1), v)
	}
	require.NoError(t, d.ReadNil())
	require.False(t, d.More())

	_, err = mustDecoder(t, []byte{106}).ReadListHeader()
	require.ErrorIs(t, err, errs.ErrInvalidOperation, "nil is not a list header")
}

func TestDecoder_ReadASCII(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		d := mustDecoder(t, []byte{107, 0, 10, 'h', 'i', ' ', 't', 'h', 'e', 'r', 'e', ' ', '!'})
		s, err := d.ReadASCII()
		require.NoError(t, err)
		require.Equal(t, "hi there !", string(s))
		require.False(t, d.More())
	})

	t.Run("nil is empty", func(t *testing.T) {
		d := mustDecoder(t, []byte{106})
		s, err := d.ReadASCII()
		require.NoError(t, err)
		require.NotNil(t, s)
		require.Empty(t, s)
	})

	t.Run("zero length", func(t *testing.T) {
		d := mustDecoder(t, []byte{107, 0, 0})
		_, err := d.ReadASCII()
		require.ErrorIs(t, err, errs.ErrInvalidLength)
		require.Equal(t, 1, d.Consumed())
	})

	t.Run("declared length exceeds message", func(t *testing.T) {
		d := mustDecoder(t, []byte{107, 0, 5, 'a', 'b'})
		_, err := d.ReadASCII()
		require.ErrorIs(t, err, errs.ErrOutOfRange)
	})

	t.Run("wrong tag", func(t *testing.T) {
		d := mustDecoder(t, []byte{109, 0, 0, 0, 0})
		_, err := d.ReadASCII()
		require.ErrorIs(t, err, errs.ErrInvalidOperation)
	})

	t.Run("result is a copy", func(t *testing.T) {
		d := mustDecoder(t, []byte{107, 0, 1, 'x'})
		s, err := d.ReadASCII()
		require.NoError(t, err)
		s[0] = 'y'
		require.Equal(t, byte('x'), d.Bytes()[4])
	})
}

func TestDecoder_ReadUnicode(t *testing.T) {
	t.Run("integer elements", func(t *testing.T) {
		// [11025, 11206, 10255]
		d := mustDecoder(t, []byte{
			108, 0, 0, 0, 3,
			98, 0, 0, 0x2B, 0x11,
			98, 0, 0, 0x2B, 0xC6,
			98, 0, 0, 0x28, 0x0F,
			106,
		})
		units, err := d.ReadUnicode()
		require.NoError(t, err)
		require.Equal(t, []uint16{11025, 11206, 10255}, units)
		require.False(t, d.More())
	})

	t.Run("small integer elements", func(t *testing.T) {
		d := mustDecoder(t, []byte{108, 0, 0, 0, 2, 97, 'o', 97, 'k', 106})
		units, err := d.ReadUnicode()
		require.NoError(t, err)
		require.Equal(t, []uint16{'o', 'k'}, units)
	})

	t.Run("nil is empty", func(t *testing.T) {
		units, err := mustDecoder(t, []byte{106}).ReadUnicode()
		require.NoError(t, err)
		require.Empty(t, units)
	})

	t.Run("zero count", func(t *testing.T) {
		_, err := mustDecoder(t, []byte{108, 0, 0, 0, 0, 106}).ReadUnicode()
		require.ErrorIs(t, err, errs.ErrInvalidLength)
	})

	t.Run("code unit wider than 16 bits", func(t *testing.T) {
		_, err := mustDecoder(t, []byte{108, 0, 0, 0, 1, 98, 0, 1, 0, 0, 106}).ReadUnicode()
		require.ErrorIs(t, err, errs.ErrCast)
	})

	t.Run("negative code unit", func(t *testing.T) {
		_, err := mustDecoder(t, []byte{108, 0, 0, 0, 1, 98, 0xFF, 0xFF, 0xFF, 0xFF, 106}).ReadUnicode()
		require.ErrorIs(t, err, errs.ErrCast)
	})

	t.Run("non integer element", func(t *testing.T) {
		_, err := mustDecoder(t, []byte{108, 0, 0, 0, 1, 106, 106}).ReadUnicode()
		require.ErrorIs(t, err, errs.ErrInvalidOperation)
	})

	t.Run("improper tail", func(t *testing.T) {
		d := mustDecoder(t, []byte{108, 0, 0, 0, 1, 97, 'a', 97, 'b'})
		_, err := d.ReadUnicode()
		require.ErrorIs(t, err, errs.ErrInvalidOperation)
		require.Equal(t, 1, d.Consumed())
	})

	t.Run("missing tail", func(t *testing.T) {
		_, err := mustDecoder(t, []byte{108, 0, 0, 0, 1, 97, 'a'}).ReadUnicode()
		require.ErrorIs(t, err, errs.ErrOutOfRange)
	})

	t.Run("huge declared count", func(t *testing.T) {
		_, err := mustDecoder(t, []byte{108, 0xFF, 0xFF, 0xFF, 0xFF, 97, 'a', 106}).ReadUnicode()
		require.ErrorIs(t, err, errs.ErrOutOfRange)
	})
}

func TestDecoder_ReadText(t *testing.T) {
	tests := []struct {
		name string
		term []byte
		want string
	}{
		{"nil", []byte{106}, ""},
		{"string ext", []byte{107, 0, 2, 'h', 'i'}, "hi"},
		{"latin1 string ext", []byte{107, 0, 1, 0xE9}, "é"},
		{"unicode list", []byte{108, 0, 0, 0, 2, 98, 0, 0, 0x04, 0x27, 98, 0, 0, 0x04, 0x35, 106}, "Че"},
		{"surrogate pair", []byte{108, 0, 0, 0, 2, 98, 0, 0, 0xD8, 0x3D, 98, 0, 0, 0xDE, 0x00, 106}, "😀"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustDecoder(t, tt.term)
			s, err := d.ReadText()
			require.NoError(t, err)
			require.Equal(t, tt.want, s)
			require.False(t, d.More())
		})
	}

	_, err := mustDecoder(t, []byte{100, 0, 1, 'a'}).ReadText()
	require.ErrorIs(t, err, errs.ErrInvalidOperation)
}

func TestDecoder_ReadAtom(t *testing.T) {
	tests := []struct {
		name string
		term []byte
		want string
		err  error
	}{
		{"atom", []byte{100, 0, 7, 'a', '.', 't', '.', 'o', '.', 'm'}, "a.t.o.m", nil},
		{"small atom", []byte{115, 4, 'p', 'o', 'n', 'g'}, "pong", nil},
		{"utf8 atom", []byte{118, 0, 2, 0xC3, 0xA9}, "é", nil},
		{"small utf8 atom", []byte{119, 2, 'o', 'k'}, "ok", nil},
		{"zero length", []byte{100, 0, 0}, "", errs.ErrInvalidLength},
		{"too long", []byte{100, 1, 0}, "", errs.ErrInvalidLength},
		{"truncated name", []byte{115, 3, 'a'}, "", errs.ErrOutOfRange},
		{"string instead", []byte{107, 0, 1, 'a'}, "", errs.ErrInvalidOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustDecoder(t, tt.term)
			name, err := d.ReadAtom()
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				require.Equal(t, 1, d.Consumed())
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, name)
			require.False(t, d.More())
		})
	}
}

func TestDecoder_ReadAtom_MaxLength(t *testing.T) {
	term := []byte{100, 0, 255}
	for range 255 {
		term = append(term, 'x')
	}

	name, err := mustDecoder(t, term).ReadAtom()
	require.NoError(t, err)
	require.Len(t, name, MaxAtomLength)
}

func TestDecoder_ReadReference(t *testing.T) {
	t.Run("new reference", func(t *testing.T) {
		d := mustDecoder(t, nodeRef)
		ref, err := d.ReadReference()
		require.NoError(t, err)
		require.Equal(t, len(nodeRef), ref.Len())
		require.Equal(t, 32, ref.Len())
		require.Equal(t, format.TagNewReference, ref.Tag())
		require.Equal(t, 33, d.Consumed())
		require.Equal(t, 0, d.Remaining())
	})

	t.Run("old reference", func(t *testing.T) {
		term := []byte{101, 115, 1, 'n', 0, 0, 0, 7, 2}
		d := mustDecoder(t, term, []byte{106})
		ref, err := d.ReadReference()
		require.NoError(t, err)
		require.Equal(t, len(term), ref.Len())
		require.Equal(t, format.TagReference, ref.Tag())
		require.NoError(t, d.ReadNil())
	})

	t.Run("newer reference", func(t *testing.T) {
		term := []byte{90, 0, 2, 119, 1, 'n', 0, 0, 0, 9, 0, 0, 0, 1, 0, 0, 0, 2}
		ref, err := mustDecoder(t, term).ReadReference()
		require.NoError(t, err)
		require.Equal(t, len(term), ref.Len())
		require.Equal(t, format.TagNewerReference, ref.Tag())
	})

	t.Run("atom cache node", func(t *testing.T) {
		term := []byte{114, 0, 1, 82, 5, 0, 0, 0, 0, 1}
		ref, err := mustDecoder(t, term).ReadReference()
		require.NoError(t, err)
		require.Equal(t, len(term), ref.Len())
	})

	t.Run("not a reference", func(t *testing.T) {
		_, err := mustDecoder(t, []byte{97, 1}).ReadReference()
		require.ErrorIs(t, err, errs.ErrInvalidOperation)
	})

	t.Run("bad node", func(t *testing.T) {
		_, err := mustDecoder(t, []byte{114, 0, 1, 97, 1, 0, 0, 0, 0, 0}).ReadReference()
		require.ErrorIs(t, err, errs.ErrInvalidOperation)
	})

	t.Run("empty node name", func(t *testing.T) {
		_, err := mustDecoder(t, []byte{114, 0, 1, 100, 0, 0, 0, 0, 0, 0, 0}).ReadReference()
		require.ErrorIs(t, err, errs.ErrInvalidLength)
	})

	t.Run("missing id words", func(t *testing.T) {
		d := mustDecoder(t, nodeRef[:len(nodeRef)-4])
		_, err := d.ReadReference()
		require.ErrorIs(t, err, errs.ErrOutOfRange)
		require.Equal(t, 1, d.Consumed())
	})

	t.Run("equal references", func(t *testing.T) {
		a, err := mustDecoder(t, nodeRef).ReadReference()
		require.NoError(t, err)
		b, err := mustDecoder(t, nodeRef).ReadReference()
		require.NoError(t, err)
		require.True(t, a.Equal(b))
		require.Equal(t, a.ID(), b.ID())
	})
}

func TestDecoder_ReadBinary(t *testing.T) {
	t.Run("content", func(t *testing.T) {
		term := []byte{109, 0, 0, 0, 3, 'a', 'b', 'c'}
		d := mustDecoder(t, term)
		bin, err := d.ReadBinary()
		require.NoError(t, err)
		require.Equal(t, 8, bin.Len(), "stored size includes the tag and length")
		require.Equal(t, term, bin.Bytes())
		require.Equal(t, []byte("abc"), bin.Bytes()[BinaryHeaderSize:])
		require.Equal(t, format.TagBinary, bin.Tag())
	})

	t.Run("empty", func(t *testing.T) {
		bin, err := mustDecoder(t, []byte{109, 0, 0, 0, 0}).ReadBinary()
		require.NoError(t, err)
		require.Equal(t, BinaryHeaderSize, bin.Len())
		require.False(t, bin.IsZero())
	})

	t.Run("declared length exceeds message", func(t *testing.T) {
		d := mustDecoder(t, []byte{109, 0, 0, 0, 4, 'a'})
		_, err := d.ReadBinary()
		require.ErrorIs(t, err, errs.ErrOutOfRange)
		require.Equal(t, 1, d.Consumed())
	})

	t.Run("wrong tag", func(t *testing.T) {
		_, err := mustDecoder(t, []byte{107, 0, 1, 'a'}).ReadBinary()
		require.ErrorIs(t, err, errs.ErrInvalidOperation)
	})
}

// Every read must report ErrOutOfRange, and leave the cursor alone, when its
// term is cut short anywhere.
func TestDecoder_Truncation(t *testing.T) {
	reads := []struct {
		name string
		term []byte
		read func(d *Decoder) error
	}{
		{"tuple", []byte{105, 0, 0, 0, 2}, func(d *Decoder) error { _, err := d.ReadTupleHeader(); return err }},
		{"nil", []byte{106}, func(d *Decoder) error { return d.ReadNil() }},
		{"list header", []byte{108, 0, 0, 0, 1}, func(d *Decoder) error { _, err := d.ReadListHeader(); return err }},
		{"ascii", []byte{107, 0, 3, 'a', 'b', 'c'}, func(d *Decoder) error { _, err := d.ReadASCII(); return err }},
		{"unicode", []byte{108, 0, 0, 0, 2, 98, 0, 0, 1, 0, 97, 'a', 106}, func(d *Decoder) error { _, err := d.ReadUnicode(); return err }},
		{"atom", []byte{100, 0, 3, 'a', 'b', 'c'}, func(d *Decoder) error { _, err := d.ReadAtom(); return err }},
		{"reference", nodeRef, func(d *Decoder) error { _, err := d.ReadReference(); return err }},
		{"binary", []byte{109, 0, 0, 0, 2, 1, 2}, func(d *Decoder) error { _, err := d.ReadBinary(); return err }},
		{"integer", []byte{98, 0, 0, 1, 0}, func(d *Decoder) error { _, err := ReadNumber[int32](d); return err }},
		{"small integer", []byte{97, 5}, func(d *Decoder) error { _, err := ReadNumber[uint8](d); return err }},
		{"float", []byte{70, 0x40, 0x09, 0x21, 0xFB, 0x54, 0x44, 0x2D, 0x18}, func(d *Decoder) error { _, err := ReadNumber[float64](d); return err }},
		{"small big", smallBig(0, 1, 2, 3), func(d *Decoder) error { _, err := ReadNumber[int64](d); return err }},
		{"large big", largeBig(1, 1, 2), func(d *Decoder) error { _, err := ReadNumber[int64](d); return err }},
	}

	for _, r := range reads {
		t.Run(r.name, func(t *testing.T) {
			require.NoError(t, r.read(mustDecoder(t, r.term)), "complete term must decode")

			for cut := range len(r.term) {
				d := mustDecoder(t, r.term[:cut])
				err := r.read(d)
				require.ErrorIs(t, err, errs.ErrOutOfRange, "cut at %d", cut)
				require.Equal(t, 1, d.Consumed(), "cut at %d", cut)
			}
		})
	}
}

func TestDecoder_UnreadAfterFailure(t *testing.T) {
	d := mustDecoder(t, []byte{104, 2}, []byte{100, 0, 1, 'a'})

	_, err := d.ReadTupleHeader()
	require.NoError(t, err)

	_, err = ReadNumber[int32](d)
	require.ErrorIs(t, err, errs.ErrInvalidOperation)
	require.Equal(t, []byte{100, 0, 1, 'a'}, d.Unread())
	require.Equal(t, 4, d.Remaining())
}

func TestDecoder_Clone(t *testing.T) {
	d := mustDecoder(t, []byte{104, 3}, []byte{97, 1}, nodeRef, []byte{107, 0, 2, 'o', 'k'})
	_, err := d.ReadTupleHeader()
	require.NoError(t, err)

	clone := d.Clone()

	read := func(d *Decoder) (int32, Reference, []byte) {
		n, err := ReadNumber[int32](d)
		require.NoError(t, err)
		ref, err := d.ReadReference()
		require.NoError(t, err)
		s, err := d.ReadASCII()
		require.NoError(t, err)

		return n, ref, s
	}

	n1, ref1, s1 := read(d)
	n2, ref2, s2 := read(clone)

	require.Equal(t, n1, n2)
	require.True(t, ref1.Equal(ref2))
	require.Equal(t, s1, s2)
	require.Equal(t, d.Consumed(), clone.Consumed())
	require.Equal(t, d.Remaining(), clone.Remaining())
	require.Equal(t, d.Bytes(), clone.Bytes())
}

func BenchmarkDecoder_Request(b *testing.B) {
	msg := message([]byte{104, 3}, []byte{97, 2}, nodeRef, []byte{107, 0, 5, 'h', 'e', 'l', 'l', 'o'})

	for b.Loop() {
		d, _ := NewDecoder(msg)
		_, _ = d.ReadTupleHeader()
		_, _ = ReadNumber[int32](d)
		_, _ = d.ReadReference()
		_, _ = d.ReadASCII()
	}
}
