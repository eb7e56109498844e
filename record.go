package binform

import (
	"fmt"
	"io"
	"math"
	"net/netip"

	"github.com/google/uuid"
)

// Record is one validated instance of a compiled schema. Instances are owned
// by their caller; the codec never retains them across calls and does not
// support concurrent mutation of a single instance.
type Record struct {
	schema *Schema
	values []Value
}

// NewRecord constructs a validated instance from a field-name-to-value map.
// Omitted fields take their declared default; optional fields without a
// default become absent; a missing required field is an error.
func (s *Schema) NewRecord(fields map[string]any) (*Record, error) {
	r := &Record{schema: s, values: make([]Value, len(s.fields))}
	for name, v := range fields {
		i, ok := s.index[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
		if v == nil {
			continue // treated as omitted
		}
		cv, err := coerce(&s.fields[i], v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		r.values[i] = Some(cv)
	}
	for i := range s.fields {
		if r.values[i].Present() {
			continue
		}
		f := &s.fields[i]
		if dv, ok := f.defaultValue(); ok {
			cv, err := coerce(f, dv)
			if err != nil {
				return nil, fmt.Errorf("field %q default: %w", f.Name, err)
			}
			r.values[i] = Some(cv)
			continue
		}
		if !f.Optional {
			return nil, fmt.Errorf("%w: required field %q has no value", ErrBadValue, f.Name)
		}
		r.values[i] = None
	}
	return r, nil
}

// Schema returns the compiled schema this record belongs to.
func (r *Record) Schema() *Schema { return r.schema }

// Get returns the field's current value, which may be the absent marker.
func (r *Record) Get(name string) (Value, error) {
	i, ok := r.schema.index[name]
	if !ok {
		return None, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return r.values[i], nil
}

// MustGet returns the field's value, nil when absent. It panics on an
// unknown field name.
func (r *Record) MustGet(name string) any {
	v, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return v.Any()
}

// Set replaces the field's value after the same validation NewRecord
// applies.
func (r *Record) Set(name string, v any) error {
	i, ok := r.schema.index[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	cv, err := coerce(&r.schema.fields[i], v)
	if err != nil {
		return fmt.Errorf("field %q: %w", name, err)
	}
	r.values[i] = Some(cv)
	return nil
}

// Unset marks an optional field absent.
func (r *Record) Unset(name string) error {
	i, ok := r.schema.index[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if !r.schema.fields[i].Optional {
		return fmt.Errorf("%w: field %q is required", ErrBadValue, name)
	}
	r.values[i] = None
	return nil
}

// Clone re-creates the record from its own packed bytes, then applies the
// given field overrides. The round trip guarantees the copy holds exactly
// what the wire would carry.
func (r *Record) Clone(overrides map[string]any) (*Record, error) {
	data, err := r.MarshalBinary()
	if err != nil {
		return nil, err
	}
	nr, err := r.schema.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	for name, v := range overrides {
		if err := nr.Set(name, v); err != nil {
			return nil, err
		}
	}
	return nr, nil
}

// --- Codec surface ---

// Statically assert that Record is a complete self-sizing binary encoder.
var _ interface {
	Sizer
	Marshaler
} = (*Record)(nil)

// Size returns the encoded size in bytes. For C-compatible records this is
// the schema's fixed wire size; for dynamic records it accounts for the
// header, the bitmap and only the present fields.
func (r *Record) Size() int {
	if r.schema.cfg.Mode == CCompatible {
		return r.schema.size
	}
	n := headerSize + 1
	if r.schema.hasOptional {
		n = headerSize + bitmapLen(len(r.schema.fields))
	}
	for i := range r.schema.fields {
		if r.values[i].Present() {
			n += r.schema.tokens[i].Size
		}
	}
	return n
}

// MarshalTo encodes into a pre-allocated buffer, returning io.ErrShortBuffer
// when it is too small.
func (r *Record) MarshalTo(p []byte) (int, error) {
	b, err := r.MarshalBinary()
	if err != nil {
		return 0, err
	}
	if len(p) < len(b) {
		return 0, io.ErrShortBuffer
	}
	return copy(p, b), nil
}

// WriteTo implements io.WriterTo by marshalling and writing in one pass.
func (r *Record) WriteTo(w io.Writer) (int64, error) {
	b, err := r.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	if err != nil {
		return int64(n), err
	}
	if n < len(b) {
		return int64(n), io.ErrShortWrite
	}
	return int64(n), nil
}

// coerce validates an input value against a field declaration and converts
// it to the field's canonical Go type. Numeric range defects surface here,
// at construction, rather than at pack time.
func coerce(f *Field, v any) (any, error) {
	switch f.Kind {
	case Bool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: expected bool, got %T", ErrBadValue, v)
		}
		return b, nil

	case Int8:
		n, err := fitInt(v, codeInt8)
		return int8(n), err
	case Uint8:
		n, err := fitInt(v, codeUint8)
		return uint8(n), err
	case Int16:
		n, err := fitInt(v, codeInt16)
		return int16(n), err
	case Uint16:
		n, err := fitInt(v, codeUint16)
		return uint16(n), err

	case Int:
		code := f.Format
		if code == 0 {
			code = codeInt32
		}
		return fitInt(v, code)

	case Enum:
		if len(f.Labels) > 0 {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: labelled enum expects a string, got %T", ErrBadValue, v)
			}
			if _, ok := f.labelIndex(s); !ok {
				return nil, fmt.Errorf("%w: %q is not a declared label", ErrBadValue, s)
			}
			return s, nil
		}
		code := f.Format
		if code == 0 {
			code = codeInt32
		}
		n, err := fitInt(v, code)
		if err != nil {
			return nil, err
		}
		if !f.allowsEnumValue(n) {
			return nil, fmt.Errorf("%w: %d is not a declared enum value", ErrBadValue, n)
		}
		return n, nil

	case Float32:
		x, err := toFloat64(v)
		return float32(x), err
	case Float64:
		return toFloat64(v)

	case String:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected string, got %T", ErrBadValue, v)
		}
		return s, nil

	case Bytes:
		b, ok := v.([]byte)
		if !ok {
			if s, isStr := v.(string); isStr {
				b = []byte(s)
			} else {
				return nil, fmt.Errorf("%w: expected []byte, got %T", ErrBadValue, v)
			}
		}
		if n, ok := f.resolveLength(); ok && len(b) > n {
			return nil, fmt.Errorf("%w: %d bytes exceed field length %d", ErrValueRange, len(b), n)
		}
		return b, nil

	case IPv4:
		switch a := v.(type) {
		case netip.Addr:
			a = a.Unmap()
			if !a.Is4() {
				return nil, fmt.Errorf("%w: %s is not an IPv4 address", ErrBadValue, a)
			}
			return a, nil
		case string:
			addr, err := netip.ParseAddr(a)
			if err != nil || !addr.Unmap().Is4() {
				return nil, fmt.Errorf("%w: %q is not an IPv4 address", ErrBadValue, a)
			}
			return addr.Unmap(), nil
		}
		return nil, fmt.Errorf("%w: expected netip.Addr, got %T", ErrBadValue, v)

	case IPv6:
		switch a := v.(type) {
		case netip.Addr:
			if !a.Is6() || a.Is4() {
				return nil, fmt.Errorf("%w: %s is not an IPv6 address", ErrBadValue, a)
			}
			return a, nil
		case string:
			addr, err := netip.ParseAddr(a)
			if err != nil || !addr.Is6() || addr.Is4() {
				return nil, fmt.Errorf("%w: %q is not an IPv6 address", ErrBadValue, a)
			}
			return addr, nil
		}
		return nil, fmt.Errorf("%w: expected netip.Addr, got %T", ErrBadValue, v)

	case UUID:
		switch u := v.(type) {
		case uuid.UUID:
			return u, nil
		case string:
			parsed, err := uuid.Parse(u)
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a UUID", ErrBadValue, u)
			}
			return parsed, nil
		}
		return nil, fmt.Errorf("%w: expected uuid.UUID, got %T", ErrBadValue, v)

	case Struct:
		sub, ok := v.(*Record)
		if !ok {
			return nil, fmt.Errorf("%w: expected *Record, got %T", ErrBadValue, v)
		}
		if sub.schema != f.Nested {
			return nil, fmt.Errorf("%w: record is not an instance of the declared nested schema", ErrBadValue)
		}
		return sub, nil

	case Bits:
		switch b := v.(type) {
		case *BitRecord:
			if b.layout != f.Bits {
				return nil, fmt.Errorf("%w: bit record does not use the declared layout", ErrBadValue)
			}
			return b, nil
		default:
			// Accept a raw integer for the whole bit field.
			u, err := toUint64(v)
			if err != nil {
				return nil, err
			}
			if u > math.MaxUint32 {
				return nil, fmt.Errorf("%w: %d", ErrValueRange, u)
			}
			br := f.Bits.New()
			if err := br.SetRaw(uint32(u)); err != nil {
				return nil, err
			}
			return br, nil
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupportedKind, f.Kind)
}

// fitInt range-checks an integer against a wire format code and returns the
// canonical signed value.
func fitInt(v any, code byte) (int64, error) {
	u, err := checkIntFits(v, code)
	if err != nil {
		return 0, err
	}
	if isUnsignedCode(code) {
		if u > math.MaxInt64 {
			// The canonical in-memory form is a signed 64-bit value.
			return 0, fmt.Errorf("%w: %d", ErrValueRange, u)
		}
		return int64(u), nil
	}
	t, _ := tokenForCode(code)
	return signExtend(u, t.Size), nil
}
