package binform

// MarshalBinary implements encoding.BinaryMarshaler. C-compatible records
// pack to their fixed wire size with no header; dynamic records pack to
// header, presence bitmap and the present fields.
func (r *Record) MarshalBinary() ([]byte, error) {
	return r.marshalWith(r.schema.cfg.ByteOrder.resolve())
}

// marshalWith packs under an explicit resolved byte order. Nested records
// use it to inherit the parent's order when propagation is configured.
func (r *Record) marshalWith(bo ByteOrder) ([]byte, error) {
	switch r.schema.cfg.Mode {
	case CCompatible:
		return r.packC(bo)
	default:
		return r.packDynamic(bo)
	}
}

// packC concatenates every field's wire representation in declaration
// order. The output length is the schema's constant wire size.
func (r *Record) packC(bo ByteOrder) ([]byte, error) {
	s := r.schema
	env := s.env(bo)
	dst := make([]byte, 0, s.size)
	for i := range s.fields {
		f := &s.fields[i]
		v := r.values[i]
		if v.Absent() {
			if f.Kind == Struct {
				// A null nested record packs as zero fill of its size.
				dst = appendZeros(dst, s.tokens[i].Size)
				continue
			}
			return nil, packErrf(f.Name, ErrAbsentValue, "fixed layouts pack every field")
		}
		var err error
		dst, err = s.handlers[i].Append(dst, v.Any(), f, env)
		if err != nil {
			return nil, &PackError{Field: f.Name, Err: err}
		}
	}
	return dst, nil
}

// packDynamic emits header, presence bitmap, then only the present fields.
//
// Header layout: byte 0 version, byte 1 flags (bit 0 big-endian, bit 1
// has-optional-fields), bytes 2-3 reserved zero. The bitmap carries one bit
// per declared field in declaration order, padded to whole bytes; a schema
// with no optional fields emits a single zero byte instead.
func (r *Record) packDynamic(bo ByteOrder) ([]byte, error) {
	s := r.schema
	env := s.env(bo)

	flags := byte(0)
	if env.big() {
		flags |= flagBigEndian
	}
	if s.hasOptional {
		flags |= flagHasOptional
	}

	dst := make([]byte, 0, r.Size())
	dst = append(dst, byte(s.cfg.Version), flags, 0, 0)

	if s.hasOptional {
		bitmap := make([]byte, bitmapLen(len(s.fields)))
		for i := range s.fields {
			if r.values[i].Present() {
				bitmap[i/8] |= 1 << (i % 8)
			}
		}
		dst = append(dst, bitmap...)
	} else {
		dst = append(dst, 0)
	}

	for i := range s.fields {
		f := &s.fields[i]
		v := r.values[i]
		if v.Absent() {
			continue
		}
		var err error
		dst, err = s.handlers[i].Append(dst, v.Any(), f, env)
		if err != nil {
			return nil, &PackError{Field: f.Name, Err: err}
		}
	}
	return dst, nil
}
