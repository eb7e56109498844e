package binform

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

// Roundup rounds n up to the nearest multiple of align.
func Roundup[T constraints.Integer](n, align T) T { return (n + (align - 1)) &^ (align - 1) }

// bitmapLen is the presence bitmap size for n declared fields: one bit per
// field, padded to whole bytes.
func bitmapLen(n int) int { return Roundup(n, 8) / 8 }

// appendUintN appends the low size bytes of u in the given order.
// size must be 1, 2, 4 or 8.
func appendUintN(dst []byte, u uint64, size int, order binary.ByteOrder) []byte {
	var buf [8]byte
	switch size {
	case 1:
		return append(dst, byte(u))
	case 2:
		order.PutUint16(buf[:2], uint16(u))
	case 4:
		order.PutUint32(buf[:4], uint32(u))
	case 8:
		order.PutUint64(buf[:8], u)
	default:
		panic("binform: bad scalar width")
	}
	return append(dst, buf[:size]...)
}

// readUintN reads len(src) bytes as an unsigned integer in the given order.
// len(src) must be 1, 2, 4 or 8.
func readUintN(src []byte, order binary.ByteOrder) uint64 {
	switch len(src) {
	case 1:
		return uint64(src[0])
	case 2:
		return uint64(order.Uint16(src))
	case 4:
		return uint64(order.Uint32(src))
	case 8:
		return order.Uint64(src)
	}
	panic("binform: bad scalar width")
}

// signExtend interprets the low size bytes of u as a two's-complement value.
func signExtend(u uint64, size int) int64 {
	shift := uint(64 - size*8)
	return int64(u<<shift) >> shift
}

// toInt64 accepts any Go integer value. Float inputs are accepted only when
// they carry an exact integer, which is how numbers arrive from JSON schema
// descriptors.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d", ErrValueRange, n)
		}
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d", ErrValueRange, n)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrBadValue, n)
		}
		return int64(n), nil
	}
	return 0, fmt.Errorf("%w: %T is not an integer", ErrBadValue, v)
}

// toUint64 accepts any non-negative Go integer value.
func toUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case uint:
		return uint64(n), nil
	case uint8:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case uint64:
		return n, nil
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrValueRange, n)
	}
	return uint64(n), nil
}

// toFloat64 accepts float32 and float64 values, plus integers for
// descriptor-supplied defaults.
func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %T is not a float", ErrBadValue, v)
	}
	return float64(n), nil
}

// checkIntFits validates a signed value against a wire format code and
// returns its raw unsigned bit pattern for that width.
func checkIntFits(v any, code byte) (uint64, error) {
	min, max, err := intBounds(code)
	if err != nil {
		return 0, err
	}
	if isUnsignedCode(code) {
		u, err := toUint64(v)
		if err != nil {
			return 0, err
		}
		if u > max {
			return 0, fmt.Errorf("%w: %d exceeds %d", ErrValueRange, u, max)
		}
		return u, nil
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	if n < min || (n > 0 && uint64(n) > max) {
		return 0, fmt.Errorf("%w: %d outside [%d, %d]", ErrValueRange, n, min, max)
	}
	return uint64(n), nil
}
