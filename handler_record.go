package binform

import "fmt"

// --- Nested records ---

// structHandler packs a nested record as a fixed-length buffer whose length
// equals the nested record's own wire size. Only C-compatible nested schemas
// are accepted (enforced at schema compile): a dynamic nested record has no
// fixed size to embed.
type structHandler struct{}

func (structHandler) NeedsLength() bool { return true }

func (structHandler) Token(f *Field) (Token, error) {
	n, ok := f.resolveLength()
	if !ok {
		return Token{}, ErrNoLength
	}
	return Token{Code: codeBytes, Size: n}, nil
}

func (structHandler) Append(dst []byte, v any, f *Field, env Env) ([]byte, error) {
	sub, ok := v.(*Record)
	if !ok {
		return nil, fmt.Errorf("%w: expected *Record, got %T", ErrBadValue, v)
	}
	if f.Nested == nil || sub.schema != f.Nested {
		return nil, fmt.Errorf("%w: record is not an instance of the declared nested schema", ErrBadValue)
	}
	n, _ := f.resolveLength()
	var b []byte
	var err error
	if env.Propagate {
		// The parent's byte order overrides the nested record's own.
		b, err = sub.marshalWith(env.ByteOrder)
	} else {
		b, err = sub.MarshalBinary()
	}
	if err != nil {
		return nil, err
	}
	if len(b) != n {
		return nil, fmt.Errorf("%w: nested record packed %d bytes, field holds %d", ErrSizeMismatch, len(b), n)
	}
	return append(dst, b...), nil
}

func (structHandler) Parse(src []byte, f *Field, env Env) (any, error) {
	if f.Nested == nil {
		return nil, fmt.Errorf("%w: field declares no nested schema", ErrBadValue)
	}
	if env.Propagate {
		return f.Nested.decodeWith(src, env.ByteOrder)
	}
	return f.Nested.Unmarshal(src)
}

// --- Bit-field records ---

// bitsHandler packs a bit-field record as its raw underlying integer, using
// the same integer machinery as the scalar kinds.
type bitsHandler struct{}

func (bitsHandler) NeedsLength() bool { return false }

func (bitsHandler) Token(f *Field) (Token, error) {
	if f == nil || f.Bits == nil {
		return Token{}, fmt.Errorf("%w: field declares no bit layout", ErrBadValue)
	}
	return f.Bits.token(), nil
}

func (bitsHandler) Append(dst []byte, v any, f *Field, env Env) ([]byte, error) {
	r, ok := v.(*BitRecord)
	if !ok {
		return nil, fmt.Errorf("%w: expected *BitRecord, got %T", ErrBadValue, v)
	}
	if f.Bits == nil || r.layout != f.Bits {
		return nil, fmt.Errorf("%w: bit record does not use the declared layout", ErrBadValue)
	}
	t := f.Bits.token()
	return appendUintN(dst, uint64(r.raw), t.Size, env.ByteOrder.order()), nil
}

func (bitsHandler) Parse(src []byte, f *Field, env Env) (any, error) {
	if f.Bits == nil {
		return nil, fmt.Errorf("%w: field declares no bit layout", ErrBadValue)
	}
	raw := uint32(readUintN(src, env.ByteOrder.order()))
	return &BitRecord{layout: f.Bits, raw: raw}, nil
}
