package etf

import (
	"fmt"
	"math"
	"math/bits"
	"strconv"

	"github.com/arloliu/erlport/errs"
	"github.com/arloliu/erlport/format"
)

// Number enumerates the Go types a term can be read into or written from.
// int and uint have the platform word size.
type Number interface {
	int8 | int16 | int32 | int64 | int | uint8 | uint16 | uint32 | uint64 | uint | float64
}

// numKind describes the width and signedness of a Number type.
type numKind struct {
	name   string
	bits   int
	signed bool
	float  bool
}

func kindOf[T Number]() numKind {
	var zero T
	switch any(zero).(type) {
	case int8:
		return numKind{name: "int8", bits: 8, signed: true}
	case int16:
		return numKind{name: "int16", bits: 16, signed: true}
	case int32:
		return numKind{name: "int32", bits: 32, signed: true}
	case int64:
		return numKind{name: "int64", bits: 64, signed: true}
	case int:
		return numKind{name: "int", bits: strconv.IntSize, signed: true}
	case uint8:
		return numKind{name: "uint8", bits: 8}
	case uint16:
		return numKind{name: "uint16", bits: 16}
	case uint32:
		return numKind{name: "uint32", bits: 32}
	case uint64:
		return numKind{name: "uint64", bits: 64}
	case uint:
		return numKind{name: "uint", bits: strconv.IntSize}
	default:
		return numKind{name: "float64", bits: 64, signed: true, float: true}
	}
}

// maxPositive is the largest magnitude a non-negative value may have.
func (k numKind) maxPositive() uint64 {
	if k.signed {
		return 1<<(k.bits-1) - 1
	}
	if k.bits == 64 {
		return math.MaxUint64
	}

	return 1<<k.bits - 1
}

// maxNegative is the largest magnitude a negative value may have.
func (k numKind) maxNegative() uint64 {
	if !k.signed {
		return 0
	}

	return 1 << (k.bits - 1)
}

func castError(k numKind, what string) error {
	return fmt.Errorf("%w: %s into %s", errs.ErrCast, what, k.name)
}

// ReadNumber reads SMALL_INTEGER_EXT, INTEGER_EXT, NEW_FLOAT_EXT, SMALL_BIG_EXT
// or LARGE_BIG_EXT into T.
//
// Width and sign rules:
//   - INTEGER_EXT needs a type of at least 32 bits; NEW_FLOAT_EXT needs 64 bits.
//   - A value outside the range of T is errs.ErrCast, as is any negative value
//     read into an unsigned type.
//   - A float read into an integer type must be integral.
//   - Bignum digits are accumulated with an overflow check at every step; a
//     magnitude beyond the range of T is errs.ErrOverflow.
func ReadNumber[T Number](d *Decoder) (T, error) {
	k := kindOf[T]()
	c := d.cursor()

	tag, err := c.tag()
	if err != nil {
		return 0, err
	}

	var v T
	switch tag {
	case format.TagSmallInteger:
		var b uint8
		if b, err = c.u8(); err != nil {
			return 0, err
		}
		v, err = fromUnsigned[T](k, uint64(b))
	case format.TagInteger:
		if err = c.need(4); err != nil {
			return 0, err
		}
		if k.bits < 32 {
			return 0, castError(k, "INTEGER_EXT")
		}
		u, _ := c.u32()
		v, err = fromSigned[T](k, int64(int32(u)))
	case format.TagNewFloat:
		if err = c.need(8); err != nil {
			return 0, err
		}
		if k.bits < 64 {
			return 0, castError(k, "NEW_FLOAT_EXT")
		}
		u, _ := c.u64()
		v, err = fromFloat[T](k, math.Float64frombits(u))
	case format.TagSmallBig, format.TagLargeBig:
		v, err = readBig[T](&c, k, tag)
	default:
		return 0, unexpectedTag(tag, "number")
	}
	if err != nil {
		return 0, err
	}

	d.commit(c)

	return v, nil
}

func fromUnsigned[T Number](k numKind, u uint64) (T, error) {
	if !k.float && u > k.maxPositive() {
		return 0, castError(k, fmt.Sprintf("value %d", u))
	}

	return T(u), nil
}

func fromSigned[T Number](k numKind, x int64) (T, error) {
	if x >= 0 {
		return fromUnsigned[T](k, uint64(x))
	}
	if !k.signed {
		return 0, castError(k, fmt.Sprintf("negative value %d", x))
	}
	if !k.float && uint64(-x) > k.maxNegative() {
		return 0, castError(k, fmt.Sprintf("value %d", x))
	}

	return T(x), nil
}

func fromFloat[T Number](k numKind, f float64) (T, error) {
	if k.float {
		return T(f), nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, castError(k, fmt.Sprintf("float %g", f))
	}

	if k.signed {
		if f < math.MinInt64 || f >= -math.MinInt64 {
			return 0, castError(k, fmt.Sprintf("float %g", f))
		}

		return T(int64(f)), nil
	}

	if f < 0 || f >= math.MaxUint64 {
		return 0, castError(k, fmt.Sprintf("float %g", f))
	}

	return T(uint64(f)), nil
}

func readBig[T Number](c *cursor, k numKind, tag format.Tag) (T, error) {
	var count uint64
	if tag == format.TagSmallBig {
		n, err := c.u8()
		if err != nil {
			return 0, err
		}
		count = uint64(n)
	} else {
		n, err := c.u32()
		if err != nil {
			return 0, err
		}
		count = uint64(n)
	}

	sign, err := c.u8()
	if err != nil {
		return 0, err
	}
	negative := sign == 1
	if negative && !k.signed {
		return 0, castError(k, "negative bignum")
	}

	digits, err := c.take(count)
	if err != nil {
		return 0, err
	}

	if k.float {
		var f float64
		for i := len(digits) - 1; i >= 0; i-- {
			f = f*256 + float64(digits[i])
		}
		if math.IsInf(f, 0) {
			return 0, fmt.Errorf("%w: bignum of %d digits exceeds %s", errs.ErrOverflow, count, k.name)
		}
		if negative {
			f = -f
		}

		return T(f), nil
	}

	limit := k.maxPositive()
	if negative {
		limit = k.maxNegative()
	}

	// digit i contributes digit * 256^i
	var acc uint64
	for i, digit := range digits {
		if digit == 0 {
			continue
		}
		if i >= 8 {
			return 0, fmt.Errorf("%w: bignum digit %d exceeds %s", errs.ErrOverflow, i, k.name)
		}

		sum, carry := bits.Add64(acc, uint64(digit)<<(8*i), 0)
		if carry != 0 || sum > limit {
			return 0, fmt.Errorf("%w: bignum exceeds %s", errs.ErrOverflow, k.name)
		}
		acc = sum
	}

	if negative {
		return T(-int64(acc)), nil
	}

	return T(acc), nil
}

// WriteNumber writes v in one of the two canonical number shapes: types wider
// than 32 bits become NEW_FLOAT_EXT (converted to float64), everything else
// becomes INTEGER_EXT (converted to int32).
func WriteNumber[T Number](e *Encoder, v T) *Encoder {
	k := kindOf[T]()
	if k.float || k.bits > 32 {
		return e.WriteFloat(float64(v))
	}

	return e.WriteInt(int32(v))
}
