package binform

// Schema is the compiled form of one record type: the ordered field list,
// its layout configuration and the per-field handler and token bindings.
// A Schema is computed once, validated eagerly and immutable afterwards, so
// it is safe to share across goroutines without locking.
type Schema struct {
	name        string
	cfg         Config
	fields      []Field
	index       map[string]int
	handlers    []TypeHandler
	tokens      []Token
	size        int
	hasOptional bool
}

// New compiles a record type from its layout configuration and ordered field
// declarations. Every schema defect (unknown kind, unresolvable length,
// optional field without a default in C-compatible mode, invalid
// configuration, bad bit layout) surfaces here as a SchemaError, before any
// instance exists.
func New(name string, cfg Config, fields []Field) (*Schema, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, &SchemaError{Schema: name, Err: err}
	}

	s := &Schema{
		name:     name,
		cfg:      cfg,
		fields:   append([]Field(nil), fields...),
		index:    make(map[string]int, len(fields)),
		handlers: make([]TypeHandler, len(fields)),
		tokens:   make([]Token, len(fields)),
	}

	for i := range s.fields {
		f := &s.fields[i]
		if f.Name == "" {
			return nil, schemaErrf(name, "", ErrBadConfig, "field %d has no name", i)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, schemaErrf(name, f.Name, ErrBadConfig, "duplicate field name")
		}
		s.index[f.Name] = i

		h, err := HandlerFor(f.Kind)
		if err != nil {
			return nil, &SchemaError{Schema: name, Field: f.Name, Err: err}
		}
		s.handlers[i] = h

		if err := s.validateField(f, h); err != nil {
			return nil, err
		}

		tok, err := h.Token(f)
		if err != nil {
			return nil, &SchemaError{Schema: name, Field: f.Name, Err: err}
		}
		s.tokens[i] = tok
		s.size += tok.Size

		if f.Optional {
			s.hasOptional = true
		}
	}
	return s, nil
}

// MustNew is New for schemas declared as program constants; it panics on a
// SchemaError.
func MustNew(name string, cfg Config, fields []Field) *Schema {
	s, err := New(name, cfg, fields)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) validateField(f *Field, h TypeHandler) error {
	if h.NeedsLength() {
		if _, ok := f.resolveLength(); !ok {
			return &SchemaError{Schema: s.name, Field: f.Name, Err: ErrNoLength}
		}
	}
	if f.Format != 0 && f.Kind != Int && f.Kind != Enum {
		return schemaErrf(s.name, f.Name, ErrBadConfig, "kind %v does not accept a format override", f.Kind)
	}
	if s.cfg.Mode == CCompatible && f.Optional && !f.hasDefault() {
		return &SchemaError{Schema: s.name, Field: f.Name, Err: ErrMissingDefault}
	}

	switch f.Kind {
	case Struct:
		if f.Nested == nil {
			return schemaErrf(s.name, f.Name, ErrBadConfig, "struct field declares no nested schema")
		}
		if f.Nested.cfg.Mode != CCompatible {
			return schemaErrf(s.name, f.Name, ErrBadConfig, "nested records must use C-compatible mode")
		}
		if n, _ := f.resolveLength(); n != f.Nested.WireSize() {
			return schemaErrf(s.name, f.Name, ErrBadConfig,
				"declared length %d does not match nested wire size %d", n, f.Nested.WireSize())
		}
	case Bits:
		if f.Bits == nil {
			return schemaErrf(s.name, f.Name, ErrBadConfig, "bits field declares no bit layout")
		}
	case Enum:
		// Declared enum values (or label indices) must fit the wire token.
		tok, err := h.Token(f)
		if err != nil {
			return &SchemaError{Schema: s.name, Field: f.Name, Err: err}
		}
		for _, v := range f.Enum {
			if _, err := checkIntFits(v, tok.Code); err != nil {
				return &SchemaError{Schema: s.name, Field: f.Name, Err: err}
			}
		}
		if len(f.Labels) > 0 {
			if len(f.Enum) > 0 {
				return schemaErrf(s.name, f.Name, ErrBadConfig, "enum declares both values and labels")
			}
			seen := make(map[string]bool, len(f.Labels))
			for i, l := range f.Labels {
				if l == "" {
					return schemaErrf(s.name, f.Name, ErrBadConfig, "label %d is empty", i)
				}
				if seen[l] {
					return schemaErrf(s.name, f.Name, ErrBadConfig, "duplicate label %q", l)
				}
				seen[l] = true
			}
			if _, err := checkIntFits(int64(len(f.Labels)-1), tok.Code); err != nil {
				return &SchemaError{Schema: s.name, Field: f.Name, Err: err}
			}
		}
	}

	// A static default is validated at compile so a misdeclared value fails
	// the type, not the first instance that relies on it. Factory-produced
	// defaults are validated when each instance is built; the factory is
	// never invoked during compile.
	if f.Default != nil {
		if _, err := coerce(f, f.Default); err != nil {
			return &SchemaError{Schema: s.name, Field: f.Name, Err: err}
		}
	}
	return nil
}

// Name returns the record type name.
func (s *Schema) Name() string { return s.name }

// Config returns the immutable layout configuration.
func (s *Schema) Config() Config { return s.cfg }

// NumFields returns the number of declared fields.
func (s *Schema) NumFields() int { return len(s.fields) }

// Fields returns a copy of the field declarations in wire order.
func (s *Schema) Fields() []Field { return append([]Field(nil), s.fields...) }

// Field returns the declaration of the named field.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// HasOptional reports whether any declared field is optional.
func (s *Schema) HasOptional() bool { return s.hasOptional }

// WireFormat returns the wire token of every field in declaration order.
func (s *Schema) WireFormat() []Token { return append([]Token(nil), s.tokens...) }

// Format renders the packed-format descriptor of the full field list,
// e.g. "<dd10s?" for a little-endian double, double, 10-byte string, bool.
func (s *Schema) Format() string { return formatString(s.cfg.ByteOrder, s.tokens) }

// WireSize returns the total encoded size of all fields. For C-compatible
// schemas this is the exact, constant size of every encoded instance. For
// dynamic schemas it is only an upper bound on the field section, since
// absent fields are not packed and the header and bitmap are excluded.
func (s *Schema) WireSize() int { return s.size }

// env builds the effective layout for one pass under the given resolved
// byte order.
func (s *Schema) env(bo ByteOrder) Env {
	return Env{Mode: s.cfg.Mode, ByteOrder: bo.resolve(), Propagate: s.cfg.PropagateByteOrder}
}

// presentTokens returns the token sequence and total size for the listed
// field indices.
func (s *Schema) presentTokens(present []int) ([]Token, int) {
	tokens := make([]Token, len(present))
	total := 0
	for i, fi := range present {
		tokens[i] = s.tokens[fi]
		total += tokens[i].Size
	}
	return tokens, total
}
