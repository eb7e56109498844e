// Package binform is a schema-driven binary codec: it converts structured
// records (named, typed fields) to and from compact byte sequences according
// to a declared layout. Two packing disciplines are supported: a fixed-size,
// header-less layout compatible with C structs, and a variable-size,
// self-describing layout with a version/flags header and an optional-field
// presence bitmap.
package binform

import (
	"encoding"
	"io"
)

// Sizer is an interface for types that can report their binary size.
// This is useful for pre-allocating buffers before encoding.
type Sizer interface {
	// Size returns the size of the type in bytes when binary encoded.
	Size() int
}

// Marshaler defines the core methods for encoding an object into a byte
// stream. It integrates standard library interfaces and provides a
// buffer-reusing option.
type Marshaler interface {
	// encoding.BinaryMarshaler provides the primary encoding method.
	// It allocates and returns a new byte slice.
	encoding.BinaryMarshaler // Method: MarshalBinary() ([]byte, error)
	// io.WriterTo provides stream-based writing.
	io.WriterTo // Method: WriteTo(writer io.Writer) (int64, error)

	// MarshalTo encodes the object into a pre-allocated buffer, returning
	// io.ErrShortBuffer if the buffer is too small.
	MarshalTo(buf []byte) (int, error)
}
