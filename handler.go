package binform

import (
	"fmt"
	"math"
)

// Env is the effective layout for one pack or unpack pass. The byte order is
// already resolved (never NativeEndian) so that handlers, headers and nested
// records all agree on a concrete order.
type Env struct {
	Mode      Mode
	ByteOrder ByteOrder
	Propagate bool
}

func (e Env) big() bool { return e.ByteOrder == BigEndian }

// TypeHandler converts one semantic kind to and from its wire
// representation. Handlers are stateless pure functions over their inputs;
// one instance per kind lives in the dispatch table for the life of the
// process.
type TypeHandler interface {
	// NeedsLength reports whether fields of this kind require a resolvable
	// wire length (strings, byte buffers, nested records).
	NeedsLength() bool

	// Token returns the fixed-size wire symbol for a field of this kind.
	Token(f *Field) (Token, error)

	// Append packs v and appends exactly Token(f).Size bytes to dst.
	Append(dst []byte, v any, f *Field, env Env) ([]byte, error)

	// Parse decodes a value from src, which holds exactly Token(f).Size
	// bytes.
	Parse(src []byte, f *Field, env Env) (any, error)
}

// handlers is the closed dispatch table from semantic kind to type handler.
// It is built once at init and never mutated, so lookups are safe from any
// goroutine.
var handlers = map[Kind]TypeHandler{
	Bool:    boolHandler{},
	Int8:    intHandler{kind: Int8, code: codeInt8},
	Uint8:   intHandler{kind: Uint8, code: codeUint8},
	Int16:   intHandler{kind: Int16, code: codeInt16},
	Uint16:  intHandler{kind: Uint16, code: codeUint16},
	Int:     intHandler{kind: Int, code: codeInt32, overridable: true},
	Float32: floatHandler{code: codeFloat32},
	Float64: floatHandler{code: codeFloat64},
	String:  stringHandler{},
	Bytes:   bytesHandler{},
	IPv4:    ipv4Handler{},
	IPv6:    ipv6Handler{},
	UUID:    uuidHandler{},
	Enum:    intHandler{kind: Enum, code: codeInt32, overridable: true},
	Struct:  structHandler{},
	Bits:    bitsHandler{},
}

// HandlerFor resolves the type handler for a semantic kind.
func HandlerFor(k Kind) (TypeHandler, error) {
	if h, ok := handlers[k]; ok {
		return h, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupportedKind, k)
}

// --- Boolean ---

type boolHandler struct{}

func (boolHandler) NeedsLength() bool { return false }

func (boolHandler) Token(*Field) (Token, error) {
	return Token{Code: codeBool, Size: 1}, nil
}

func (boolHandler) Append(dst []byte, v any, _ *Field, _ Env) ([]byte, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("%w: expected bool, got %T", ErrBadValue, v)
	}
	if b {
		return append(dst, 1), nil
	}
	return append(dst, 0), nil
}

func (boolHandler) Parse(src []byte, _ *Field, _ Env) (any, error) {
	// Nonzero is true.
	return src[0] != 0, nil
}

// --- Integers and enums ---

// intHandler serves the fixed-width integer kinds, the native integer kind
// and enums. The native integer and enum kinds default to a 4-byte signed
// representation and accept a Format override.
type intHandler struct {
	kind        Kind
	code        byte
	overridable bool
}

func (h intHandler) NeedsLength() bool { return false }

func (h intHandler) Token(f *Field) (Token, error) {
	code := h.code
	if f != nil && f.Format != 0 {
		if !h.overridable {
			return Token{}, fmt.Errorf("%w: kind %v does not accept a format override", ErrBadConfig, h.kind)
		}
		code = f.Format
	}
	if !isIntCode(code) {
		return Token{}, fmt.Errorf("%w: format code %q is not an integer code", ErrBadConfig, string(code))
	}
	t, _ := tokenForCode(code)
	return t, nil
}

func (h intHandler) Append(dst []byte, v any, f *Field, env Env) ([]byte, error) {
	t, err := h.Token(f)
	if err != nil {
		return nil, err
	}
	if h.kind == Enum && f != nil && len(f.Labels) > 0 {
		// String-valued enums travel as the label's declaration index.
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: labelled enum expects a string, got %T", ErrBadValue, v)
		}
		i, ok := f.labelIndex(s)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a declared label", ErrBadValue, s)
		}
		v = i
	}
	// Direct store: the value must already fit the wire width.
	u, err := checkIntFits(v, t.Code)
	if err != nil {
		return nil, err
	}
	return appendUintN(dst, u, t.Size, env.ByteOrder.order()), nil
}

func (h intHandler) Parse(src []byte, f *Field, env Env) (any, error) {
	t, err := h.Token(f)
	if err != nil {
		return nil, err
	}
	u := readUintN(src, env.ByteOrder.order())
	switch h.kind {
	case Int8:
		return int8(signExtend(u, t.Size)), nil
	case Uint8:
		return uint8(u), nil
	case Int16:
		return int16(signExtend(u, t.Size)), nil
	case Uint16:
		return uint16(u), nil
	}
	// Int and Enum decode to a canonical int64.
	var n int64
	if isUnsignedCode(t.Code) {
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %d", ErrValueRange, u)
		}
		n = int64(u)
	} else {
		n = signExtend(u, t.Size)
	}
	if h.kind == Enum && f != nil && len(f.Labels) > 0 {
		if n < 0 || n >= int64(len(f.Labels)) {
			return nil, fmt.Errorf("%w: label index %d outside [0, %d)", ErrValueRange, n, len(f.Labels))
		}
		return f.Labels[n], nil
	}
	return n, nil
}

// --- Floats ---

type floatHandler struct {
	code byte
}

func (h floatHandler) NeedsLength() bool { return false }

func (h floatHandler) Token(*Field) (Token, error) {
	t, _ := tokenForCode(h.code)
	return t, nil
}

func (h floatHandler) Append(dst []byte, v any, _ *Field, env Env) ([]byte, error) {
	x, err := toFloat64(v)
	if err != nil {
		return nil, err
	}
	order := env.ByteOrder.order()
	if h.code == codeFloat32 {
		return appendUintN(dst, uint64(math.Float32bits(float32(x))), 4, order), nil
	}
	return appendUintN(dst, math.Float64bits(x), 8, order), nil
}

func (h floatHandler) Parse(src []byte, _ *Field, env Env) (any, error) {
	u := readUintN(src, env.ByteOrder.order())
	if h.code == codeFloat32 {
		return math.Float32frombits(uint32(u)), nil
	}
	return math.Float64frombits(u), nil
}
