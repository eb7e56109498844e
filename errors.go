package binform

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedKind indicates that a field declares a semantic kind with
	// no registered type handler.
	ErrUnsupportedKind = errors.New("binform: unsupported field kind")

	// ErrNoLength indicates a variable-width field (string, byte buffer,
	// nested record) with neither an explicit length nor a max length.
	ErrNoLength = errors.New("binform: no resolvable wire length")

	// ErrMissingDefault indicates an optional field in C-compatible mode that
	// carries neither a default value nor a default factory. A fixed layout
	// cannot represent an absent value.
	ErrMissingDefault = errors.New("binform: optional field requires a default in C-compatible mode")

	// ErrBadConfig indicates an invalid layout configuration value
	// (mode, byte order, version or bit width).
	ErrBadConfig = errors.New("binform: invalid layout configuration")

	// ErrBitRange indicates an out-of-range, overlapping or otherwise invalid
	// bit definition inside a bit-field layout.
	ErrBitRange = errors.New("binform: invalid bit definition")

	// ErrUnknownField indicates a field name that does not exist in the schema.
	ErrUnknownField = errors.New("binform: unknown field")

	// ErrBadValue indicates a value whose Go type cannot be carried by the
	// field's declared kind.
	ErrBadValue = errors.New("binform: value incompatible with field kind")

	// ErrValueRange indicates a numeric value that does not fit the field's
	// wire representation.
	ErrValueRange = errors.New("binform: value out of range for wire representation")

	// ErrAbsentValue indicates an absent value where the layout requires one.
	ErrAbsentValue = errors.New("binform: absent value cannot be packed")

	// ErrShortBuffer indicates a decode buffer shorter than the layout requires.
	ErrShortBuffer = errors.New("binform: buffer too short")

	// ErrSizeMismatch indicates a decode buffer whose length does not match
	// the computed wire size of the layout.
	ErrSizeMismatch = errors.New("binform: buffer length does not match wire size")

	// ErrVersionMismatch indicates a wire version byte that is not the single
	// version this codec speaks.
	ErrVersionMismatch = errors.New("binform: unsupported wire version")

	// ErrBadBitmap indicates a presence bitmap that is truncated or
	// inconsistent with the schema's field list.
	ErrBadBitmap = errors.New("binform: malformed presence bitmap")

	// ErrSchemaRegistered indicates a second registration under a name that
	// already maps to a different schema.
	ErrSchemaRegistered = errors.New("binform: schema name already registered")
)

// SchemaError reports a record type that cannot be compiled. It is raised
// when the schema is first processed, before any instance exists, and should
// be treated as a programming defect rather than an input error.
type SchemaError struct {
	Schema string // record type name, may be empty
	Field  string // offending field, empty for configuration-level problems
	Err    error
}

func (e *SchemaError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("schema %q field %q: %v", e.Schema, e.Field, e.Err)
	case e.Schema != "":
		return fmt.Sprintf("schema %q: %v", e.Schema, e.Err)
	}
	return e.Err.Error()
}

func (e *SchemaError) Unwrap() error { return e.Err }

// PackError reports a value that could not be encoded. It is a recoverable
// caller-side condition: the record itself stays valid.
type PackError struct {
	Field string
	Err   error
}

func (e *PackError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("pack field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("pack: %v", e.Err)
}

func (e *PackError) Unwrap() error { return e.Err }

// UnpackError reports a buffer that could not be decoded. A short or
// malformed buffer is a permanent input error; the caller may re-request the
// data but retrying the same bytes will fail again.
type UnpackError struct {
	Field string
	Err   error
}

func (e *UnpackError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("unpack field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("unpack: %v", e.Err)
}

func (e *UnpackError) Unwrap() error { return e.Err }

func schemaErrf(schema, field string, err error, format string, args ...any) error {
	if format != "" {
		err = fmt.Errorf("%w: "+format, append([]any{err}, args...)...)
	}
	return &SchemaError{Schema: schema, Field: field, Err: err}
}

func packErrf(field string, err error, format string, args ...any) error {
	if format != "" {
		err = fmt.Errorf("%w: "+format, append([]any{err}, args...)...)
	}
	return &PackError{Field: field, Err: err}
}

func unpackErrf(field string, err error, format string, args ...any) error {
	if format != "" {
		err = fmt.Errorf("%w: "+format, append([]any{err}, args...)...)
	}
	return &UnpackError{Field: field, Err: err}
}
