package binform

// Unmarshal decodes one record instance from data.
//
// C-compatible schemas require data to be exactly the schema's wire size.
// Dynamic schemas read the header first; the byte order used for the rest of
// the decode comes from the header's endianness flag, so data produced with
// the opposite configuration still decodes correctly.
func (s *Schema) Unmarshal(data []byte) (*Record, error) {
	return s.decode(data, false, 0)
}

// UnmarshalStatic decodes like Unmarshal but ignores the header's endianness
// flag, always using the schema's configured byte order. Only meaningful for
// dynamic schemas.
func (s *Schema) UnmarshalStatic(data []byte) (*Record, error) {
	return s.decode(data, true, 0)
}

// decodeWith decodes under an explicit resolved byte order. Nested records
// use it to inherit the parent's order when propagation is configured.
func (s *Schema) decodeWith(data []byte, bo ByteOrder) (*Record, error) {
	return s.decode(data, true, bo)
}

func (s *Schema) decode(data []byte, ignoreHeaderEndian bool, override ByteOrder) (*Record, error) {
	bo := s.cfg.ByteOrder.resolve()
	if override != 0 {
		bo = override.resolve()
	}
	switch s.cfg.Mode {
	case CCompatible:
		return s.decodeC(data, bo)
	default:
		return s.decodeDynamic(data, bo, ignoreHeaderEndian)
	}
}

// decodeC unpacks a fixed layout positionally. The buffer must match the
// computed wire size exactly.
func (s *Schema) decodeC(data []byte, bo ByteOrder) (*Record, error) {
	if len(data) != s.size {
		return nil, unpackErrf("", ErrSizeMismatch, "expected %d bytes, got %d", s.size, len(data))
	}
	env := s.env(bo)
	r := &Record{schema: s, values: make([]Value, len(s.fields))}
	off := 0
	for i := range s.fields {
		n := s.tokens[i].Size
		v, err := s.handlers[i].Parse(data[off:off+n], &s.fields[i], env)
		if err != nil {
			return nil, &UnpackError{Field: s.fields[i].Name, Err: err}
		}
		r.values[i] = Some(v)
		off += n
	}
	return r, nil
}

func (s *Schema) decodeDynamic(data []byte, bo ByteOrder, ignoreHeaderEndian bool) (*Record, error) {
	if len(data) < headerSize {
		return nil, unpackErrf("", ErrShortBuffer, "no room for %d-byte header", headerSize)
	}
	if Version(data[0]) != s.cfg.Version {
		return nil, unpackErrf("", ErrVersionMismatch, "got %d, schema speaks %d", data[0], s.cfg.Version)
	}
	flags := data[1]
	rest := data[headerSize:]

	if !ignoreHeaderEndian {
		// The producer's byte order wins over the schema's static
		// configuration.
		if flags&flagBigEndian != 0 {
			bo = BigEndian
		} else {
			bo = LittleEndian
		}
	}

	present, err := s.parseBitmap(flags, &rest)
	if err != nil {
		return nil, err
	}

	r := &Record{schema: s, values: make([]Value, len(s.fields))}
	for i := range r.values {
		r.values[i] = None
	}
	if len(present) == 0 {
		// Wholly-absent instance; nothing left to unpack.
		return r, nil
	}

	_, want := s.presentTokens(present)
	if len(rest) != want {
		return nil, unpackErrf("", ErrSizeMismatch, "present fields need %d bytes, got %d", want, len(rest))
	}

	env := s.env(bo)
	off := 0
	for _, fi := range present {
		n := s.tokens[fi].Size
		v, err := s.handlers[fi].Parse(rest[off:off+n], &s.fields[fi], env)
		if err != nil {
			return nil, &UnpackError{Field: s.fields[fi].Name, Err: err}
		}
		r.values[fi] = Some(v)
		off += n
	}
	return r, nil
}

// parseBitmap consumes the bitmap section from *rest and returns the indices
// of the present fields in declaration order. Without the optional-fields
// flag a single placeholder byte is skipped and every field is present.
func (s *Schema) parseBitmap(flags byte, rest *[]byte) ([]int, error) {
	data := *rest
	if flags&flagHasOptional == 0 {
		if len(data) < 1 {
			return nil, unpackErrf("", ErrBadBitmap, "no room for placeholder byte")
		}
		*rest = data[1:]
		present := make([]int, len(s.fields))
		for i := range present {
			present[i] = i
		}
		return present, nil
	}

	bl := bitmapLen(len(s.fields))
	if len(data) < bl {
		return nil, unpackErrf("", ErrBadBitmap, "need %d bytes, got %d", bl, len(data))
	}
	bitmap := data[:bl]
	*rest = data[bl:]

	present := make([]int, 0, len(s.fields))
	for i := range s.fields {
		if bitmap[i/8]&(1<<(i%8)) != 0 {
			present = append(present, i)
			continue
		}
		if !s.fields[i].Optional {
			return nil, unpackErrf(s.fields[i].Name, ErrBadBitmap, "required field marked absent")
		}
	}
	return present, nil
}
