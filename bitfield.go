package binform

import (
	"fmt"
	"math"
)

// BitDef declares one named sub-field of a bit-field layout: a contiguous
// run of bits starting at Start. Single-bit sub-fields are booleans,
// multi-bit sub-fields hold unsigned integers in [0, 2^Bits).
type BitDef struct {
	Name  string
	Start int
	Bits  int
	Bool  bool
}

// Flag declares a single-bit boolean sub-field.
func Flag(name string, bit int) BitDef {
	return BitDef{Name: name, Start: bit, Bits: 1, Bool: true}
}

// BitRange declares a multi-bit unsigned integer sub-field occupying
// [start, start+bits).
func BitRange(name string, start, bits int) BitDef {
	return BitDef{Name: name, Start: start, Bits: bits}
}

func (d BitDef) mask() uint32 {
	return uint32((uint64(1)<<uint(d.Bits) - 1) << uint(d.Start))
}

// BitLayout is the compiled form of a bit-field record type: a fixed integer
// width and a set of pairwise-disjoint sub-field runs. Like a Schema it is
// built once, validated eagerly and immutable afterwards.
type BitLayout struct {
	width int
	defs  []BitDef
	index map[string]int
}

// NewBitLayout compiles a bit-field layout. width must be 8, 16 or 32; every
// sub-field run must lie within [0, width) and runs must not overlap.
func NewBitLayout(width int, defs ...BitDef) (*BitLayout, error) {
	if width != 8 && width != 16 && width != 32 {
		return nil, schemaErrf("", "", ErrBadConfig, "bit width %d (must be 8, 16 or 32)", width)
	}
	l := &BitLayout{
		width: width,
		defs:  append([]BitDef(nil), defs...),
		index: make(map[string]int, len(defs)),
	}
	var used uint32
	for i, d := range l.defs {
		if d.Name == "" {
			return nil, schemaErrf("", "", ErrBitRange, "sub-field %d has no name", i)
		}
		if _, dup := l.index[d.Name]; dup {
			return nil, schemaErrf("", d.Name, ErrBitRange, "duplicate sub-field name")
		}
		if d.Bits < 1 {
			return nil, schemaErrf("", d.Name, ErrBitRange, "bit count %d", d.Bits)
		}
		if d.Bool && d.Bits != 1 {
			return nil, schemaErrf("", d.Name, ErrBitRange, "boolean sub-field spans %d bits", d.Bits)
		}
		if d.Start < 0 || d.Start+d.Bits > width {
			return nil, schemaErrf("", d.Name, ErrBitRange, "bits [%d, %d) exceed width %d", d.Start, d.Start+d.Bits, width)
		}
		if used&d.mask() != 0 {
			return nil, schemaErrf("", d.Name, ErrBitRange, "bits [%d, %d) overlap another sub-field", d.Start, d.Start+d.Bits)
		}
		used |= d.mask()
		l.index[d.Name] = i
	}
	return l, nil
}

// Width returns the underlying integer width in bits.
func (l *BitLayout) Width() int { return l.width }

// Defs returns a copy of the sub-field definitions in declaration order.
func (l *BitLayout) Defs() []BitDef { return append([]BitDef(nil), l.defs...) }

// token is the wire symbol of the whole layout: one unsigned integer of the
// configured width.
func (l *BitLayout) token() Token {
	switch l.width {
	case 8:
		return Token{Code: codeUint8, Size: 1}
	case 16:
		return Token{Code: codeUint16, Size: 2}
	}
	return Token{Code: codeUint32, Size: 4}
}

func (l *BitLayout) def(name string) (BitDef, error) {
	i, ok := l.index[name]
	if !ok {
		return BitDef{}, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return l.defs[i], nil
}

// New returns an all-zero instance of the layout.
func (l *BitLayout) New() *BitRecord { return &BitRecord{layout: l} }

// FromBytes interprets exactly width/8 bytes in the given byte order as the
// raw integer of a new instance.
func (l *BitLayout) FromBytes(b []byte, order ByteOrder) (*BitRecord, error) {
	if len(b) != l.width/8 {
		return nil, unpackErrf("", ErrSizeMismatch, "bit field needs %d bytes, got %d", l.width/8, len(b))
	}
	return &BitRecord{layout: l, raw: uint32(readUintN(b, order.order()))}, nil
}

// FromBytesWith decodes like FromBytes, then applies explicit sub-field
// overrides on top of the decoded values.
func (l *BitLayout) FromBytesWith(b []byte, order ByteOrder, overrides map[string]any) (*BitRecord, error) {
	r, err := l.FromBytes(b, order)
	if err != nil {
		return nil, err
	}
	for name, v := range overrides {
		if err := r.Set(name, v); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// BitRecord is one instance of a bit-field layout: the raw underlying
// integer plus accessors for the named sub-fields. Instances are owned by
// their caller and are not safe for concurrent mutation.
type BitRecord struct {
	layout *BitLayout
	raw    uint32
}

// Layout returns the compiled layout this instance belongs to.
func (r *BitRecord) Layout() *BitLayout { return r.layout }

// Raw returns the whole underlying integer.
func (r *BitRecord) Raw() uint32 { return r.raw }

// SetRaw replaces the whole underlying integer. The value must fit the
// configured bit width.
func (r *BitRecord) SetRaw(v uint32) error {
	if r.layout.width < 32 && v >= 1<<uint(r.layout.width) {
		return fmt.Errorf("%w: %d exceeds %d-bit field", ErrValueRange, v, r.layout.width)
	}
	r.raw = v
	return nil
}

// Bool reads a single-bit boolean sub-field.
func (r *BitRecord) Bool(name string) (bool, error) {
	d, err := r.layout.def(name)
	if err != nil {
		return false, err
	}
	if !d.Bool {
		return false, fmt.Errorf("%w: %q is not a boolean sub-field", ErrBadValue, name)
	}
	return r.raw&d.mask() != 0, nil
}

// Uint reads a multi-bit integer sub-field.
func (r *BitRecord) Uint(name string) (uint32, error) {
	d, err := r.layout.def(name)
	if err != nil {
		return 0, err
	}
	return (r.raw >> uint(d.Start)) & uint32(uint64(1)<<uint(d.Bits)-1), nil
}

// SetBool writes a single-bit boolean sub-field.
func (r *BitRecord) SetBool(name string, v bool) error {
	d, err := r.layout.def(name)
	if err != nil {
		return err
	}
	if !d.Bool {
		return fmt.Errorf("%w: %q is not a boolean sub-field", ErrBadValue, name)
	}
	r.raw &^= d.mask()
	if v {
		r.raw |= d.mask()
	}
	return nil
}

// SetUint writes a multi-bit integer sub-field. The value must lie in
// [0, 2^bits).
func (r *BitRecord) SetUint(name string, v uint32) error {
	d, err := r.layout.def(name)
	if err != nil {
		return err
	}
	if d.Bool {
		return fmt.Errorf("%w: %q is a boolean sub-field", ErrBadValue, name)
	}
	if uint64(v) >= uint64(1)<<uint(d.Bits) {
		return fmt.Errorf("%w: %d exceeds %d-bit sub-field %q", ErrValueRange, v, d.Bits, name)
	}
	r.raw &^= d.mask()
	r.raw |= v << uint(d.Start)
	return nil
}

// Set writes a sub-field from an untyped value, dispatching on the
// sub-field's boolean flag.
func (r *BitRecord) Set(name string, v any) error {
	d, err := r.layout.def(name)
	if err != nil {
		return err
	}
	if d.Bool {
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("%w: sub-field %q requires a bool, got %T", ErrBadValue, name, v)
		}
		return r.SetBool(name, b)
	}
	u, err := toUint64(v)
	if err != nil {
		return err
	}
	if u > math.MaxUint32 {
		return fmt.Errorf("%w: %d", ErrValueRange, u)
	}
	return r.SetUint(name, uint32(u))
}
