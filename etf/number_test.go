package etf

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/arloliu/erlport/errs"
	"github.com/stretchr/testify/require"
)

func integerTerm(v int32) []byte {
	return binary.BigEndian.AppendUint32([]byte{98}, uint32(v))
}

func floatTerm(f float64) []byte {
	return binary.BigEndian.AppendUint64([]byte{70}, math.Float64bits(f))
}

func readAs[T Number](t *testing.T, term []byte) (T, error) {
	t.Helper()
	d := mustDecoder(t, term)
	v, err := ReadNumber[T](d)
	if err != nil {
		require.Equal(t, 1, d.Consumed(), "failed read must not move the cursor")
	} else {
		require.False(t, d.More())
	}

	return v, err
}

func TestReadNumber_SmallInteger(t *testing.T) {
	v8, err := readAs[uint8](t, []byte{97, 200})
	require.NoError(t, err)
	require.Equal(t, uint8(200), v8)

	i16, err := readAs[int16](t, []byte{97, 200})
	require.NoError(t, err)
	require.Equal(t, int16(200), i16)

	i8, err := readAs[int8](t, []byte{97, 127})
	require.NoError(t, err)
	require.Equal(t, int8(127), i8)

	_, err = readAs[int8](t, []byte{97, 128})
	require.ErrorIs(t, err, errs.ErrCast)

	f, err := readAs[float64](t, []byte{97, 255})
	require.NoError(t, err)
	require.Equal(t, 255.0, f)
}

func TestReadNumber_Integer(t *testing.T) {
	t.Run("needs 32 bits", func(t *testing.T) {
		_, err := readAs[int16](t, integerTerm(1))
		require.ErrorIs(t, err, errs.ErrCast)

		_, err = readAs[uint8](t, integerTerm(1))
		require.ErrorIs(t, err, errs.ErrCast)
	})

	t.Run("signed", func(t *testing.T) {
		v, err := readAs[int32](t, integerTerm(-5))
		require.NoError(t, err)
		require.Equal(t, int32(-5), v)

		v64, err := readAs[int64](t, integerTerm(math.MinInt32))
		require.NoError(t, err)
		require.Equal(t, int64(math.MinInt32), v64)

		f, err := readAs[float64](t, integerTerm(-7))
		require.NoError(t, err)
		require.Equal(t, -7.0, f)
	})

	t.Run("unsigned", func(t *testing.T) {
		v, err := readAs[uint32](t, integerTerm(math.MaxInt32))
		require.NoError(t, err)
		require.Equal(t, uint32(math.MaxInt32), v)

		_, err = readAs[uint32](t, integerTerm(-1))
		require.ErrorIs(t, err, errs.ErrCast)

		_, err = readAs[uint64](t, integerTerm(-1))
		require.ErrorIs(t, err, errs.ErrCast)
	})
}

func TestReadNumber_Float(t *testing.T) {
	t.Run("float64", func(t *testing.T) {
		f, err := readAs[float64](t, floatTerm(-123.456))
		require.NoError(t, err)
		require.InDelta(t, -123.456, f, 1e-12)
	})

	t.Run("needs 64 bits", func(t *testing.T) {
		_, err := readAs[int32](t, floatTerm(1))
		require.ErrorIs(t, err, errs.ErrCast)

		_, err = readAs[uint16](t, floatTerm(1))
		require.ErrorIs(t, err, errs.ErrCast)
	})

	t.Run("integral into int64", func(t *testing.T) {
		v, err := readAs[int64](t, floatTerm(-42))
		require.NoError(t, err)
		require.Equal(t, int64(-42), v)

		u, err := readAs[uint64](t, floatTerm(1<<40))
		require.NoError(t, err)
		require.Equal(t, uint64(1<<40), u)
	})

	t.Run("fraction into int64", func(t *testing.T) {
		_, err := readAs[int64](t, floatTerm(1.5))
		require.ErrorIs(t, err, errs.ErrCast)
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := readAs[int64](t, floatTerm(1e19))
		require.ErrorIs(t, err, errs.ErrCast)

		_, err = readAs[uint64](t, floatTerm(-1))
		require.ErrorIs(t, err, errs.ErrCast)

		_, err = readAs[int64](t, floatTerm(math.Inf(1)))
		require.ErrorIs(t, err, errs.ErrCast)

		_, err = readAs[int64](t, floatTerm(math.NaN()))
		require.ErrorIs(t, err, errs.ErrCast)
	})
}

func TestReadNumber_Bignum(t *testing.T) {
	max64 := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x7F}
	min64 := []byte{0, 0, 0, 0, 0, 0, 0, 0x80}
	all64 := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

	t.Run("int64 boundaries", func(t *testing.T) {
		v, err := readAs[int64](t, smallBig(0, max64...))
		require.NoError(t, err)
		require.Equal(t, int64(math.MaxInt64), v)

		_, err = readAs[int64](t, smallBig(0, min64...))
		require.ErrorIs(t, err, errs.ErrOverflow, "max + 1")

		v, err = readAs[int64](t, smallBig(1, min64...))
		require.NoError(t, err)
		require.Equal(t, int64(math.MinInt64), v)

		_, err = readAs[int64](t, smallBig(1, 1, 0, 0, 0, 0, 0, 0, 0x80))
		require.ErrorIs(t, err, errs.ErrOverflow, "min - 1")
	})

	t.Run("uint64 boundaries", func(t *testing.T) {
		v, err := readAs[uint64](t, largeBig(0, all64...))
		require.NoError(t, err)
		require.Equal(t, uint64(math.MaxUint64), v)

		_, err = readAs[uint64](t, largeBig(0, append(all64[:8:8], 1)...))
		require.ErrorIs(t, err, errs.ErrOverflow)
	})

	t.Run("high zero digits", func(t *testing.T) {
		v, err := readAs[uint64](t, smallBig(0, 1, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0))
		require.NoError(t, err)
		require.Equal(t, uint64(0x0201), v)
	})

	t.Run("no digits", func(t *testing.T) {
		v, err := readAs[int32](t, smallBig(0))
		require.NoError(t, err)
		require.Zero(t, v)
	})

	t.Run("narrow types", func(t *testing.T) {
		v, err := readAs[int8](t, smallBig(1, 0x80))
		require.NoError(t, err)
		require.Equal(t, int8(math.MinInt8), v)

		_, err = readAs[int8](t, smallBig(0, 0x80))
		require.ErrorIs(t, err, errs.ErrOverflow)

		u, err := readAs[uint16](t, smallBig(0, 0xFF, 0xFF))
		require.NoError(t, err)
		require.Equal(t, uint16(math.MaxUint16), u)

		_, err = readAs[uint16](t, smallBig(0, 0, 0, 1))
		require.ErrorIs(t, err, errs.ErrOverflow)
	})

	t.Run("negative into unsigned", func(t *testing.T) {
		huge := append(all64[:8:8], all64...)

		tests := []struct {
			name string
			term []byte
		}{
			{"magnitude one", smallBig(1, 1)},
			{"no digits", smallBig(1)},
			{"zero digits", smallBig(1, 0, 0)},
			{"magnitude beyond uint64", largeBig(1, huge...)},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := readAs[uint64](t, tt.term)
				require.ErrorIs(t, err, errs.ErrCast)

				_, err = readAs[uint8](t, tt.term)
				require.ErrorIs(t, err, errs.ErrCast)

				_, err = readAs[uint](t, tt.term)
				require.ErrorIs(t, err, errs.ErrCast)
			})
		}
	})

	t.Run("float64", func(t *testing.T) {
		f, err := readAs[float64](t, smallBig(1, 0, 0, 0, 0, 0, 0, 0, 0, 1))
		require.NoError(t, err)
		require.Equal(t, -math.Pow(2, 64), f)

		huge := make([]byte, 200)
		for i := range huge {
			huge[i] = 0xFF
		}
		_, err = readAs[float64](t, largeBig(0, huge...))
		require.ErrorIs(t, err, errs.ErrOverflow)
	})
}

func TestReadNumber_WrongTag(t *testing.T) {
	_, err := readAs[int64](t, []byte{100, 0, 1, 'a'})
	require.ErrorIs(t, err, errs.ErrInvalidOperation)

	_, err = readAs[float64](t, []byte{106})
	require.ErrorIs(t, err, errs.ErrInvalidOperation)
}

func TestWriteNumber(t *testing.T) {
	tests := []struct {
		name  string
		write func(e *Encoder) *Encoder
		want  []byte
	}{
		{"int8", func(e *Encoder) *Encoder { return WriteNumber[int8](e, -3) }, integerTerm(-3)},
		{"uint16", func(e *Encoder) *Encoder { return WriteNumber[uint16](e, 500) }, integerTerm(500)},
		{"int32", func(e *Encoder) *Encoder { return WriteNumber[int32](e, math.MinInt32) }, integerTerm(math.MinInt32)},
		{"int64", func(e *Encoder) *Encoder { return WriteNumber[int64](e, 5) }, floatTerm(5)},
		{"uint64", func(e *Encoder) *Encoder { return WriteNumber[uint64](e, 1<<40) }, floatTerm(1 << 40)},
		{"float64", func(e *Encoder) *Encoder { return WriteNumber[float64](e, 2.5) }, floatTerm(2.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEncoder()
			defer e.Release()

			msg, err := tt.write(e).Finish()
			require.NoError(t, err)
			require.Equal(t, message(tt.want), msg)
		})
	}
}
