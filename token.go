package binform

import (
	"fmt"
	"strconv"
	"strings"
)

// Token is the fixed-size wire symbol of one field: a classic struct-format
// code plus the number of bytes the field occupies on the wire. For the
// buffer code 's', Size is the buffer length; for every other code it is the
// scalar width.
type Token struct {
	Code byte
	Size int
}

// Struct-format codes. These follow the conventional packed-format alphabet
// so a rendered descriptor reads like "<dd10s?".
const (
	codeBool    byte = '?'
	codeInt8    byte = 'b'
	codeUint8   byte = 'B'
	codeInt16   byte = 'h'
	codeUint16  byte = 'H'
	codeInt32   byte = 'i'
	codeUint32  byte = 'I'
	codeInt64   byte = 'q'
	codeUint64  byte = 'Q'
	codeFloat32 byte = 'f'
	codeFloat64 byte = 'd'
	codeBytes   byte = 's'
)

// tokenForCode returns the scalar token for a fixed-width format code.
// The buffer code 's' has no intrinsic size and is rejected here.
func tokenForCode(code byte) (Token, bool) {
	switch code {
	case codeBool, codeInt8, codeUint8:
		return Token{Code: code, Size: 1}, true
	case codeInt16, codeUint16:
		return Token{Code: code, Size: 2}, true
	case codeInt32, codeUint32, codeFloat32:
		return Token{Code: code, Size: 4}, true
	case codeInt64, codeUint64, codeFloat64:
		return Token{Code: code, Size: 8}, true
	}
	return Token{}, false
}

func isIntCode(code byte) bool {
	switch code {
	case codeInt8, codeUint8, codeInt16, codeUint16, codeInt32, codeUint32, codeInt64, codeUint64:
		return true
	}
	return false
}

func isUnsignedCode(code byte) bool {
	switch code {
	case codeUint8, codeUint16, codeUint32, codeUint64:
		return true
	}
	return false
}

func (t Token) String() string {
	if t.Code == codeBytes {
		return strconv.Itoa(t.Size) + "s"
	}
	return string(t.Code)
}

// formatString renders a token sequence as a packed-format descriptor with a
// leading byte-order marker, e.g. "<dd10s?".
func formatString(order ByteOrder, tokens []Token) string {
	var b strings.Builder
	if order.resolve() == BigEndian {
		b.WriteByte('>')
	} else {
		b.WriteByte('<')
	}
	for _, t := range tokens {
		b.WriteString(t.String())
	}
	return b.String()
}

// intBounds reports the inclusive signed range of an integer format code.
// Unsigned codes are handled on the uint64 path and only need the max.
func intBounds(code byte) (min int64, max uint64, err error) {
	switch code {
	case codeInt8:
		return -1 << 7, 1<<7 - 1, nil
	case codeUint8:
		return 0, 1<<8 - 1, nil
	case codeInt16:
		return -1 << 15, 1<<15 - 1, nil
	case codeUint16:
		return 0, 1<<16 - 1, nil
	case codeInt32:
		return -1 << 31, 1<<31 - 1, nil
	case codeUint32:
		return 0, 1<<32 - 1, nil
	case codeInt64:
		return -1 << 63, 1<<63 - 1, nil
	case codeUint64:
		return 0, 1<<64 - 1, nil
	}
	return 0, 0, fmt.Errorf("%w: format code %q is not an integer code", ErrBadConfig, string(code))
}
