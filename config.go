package binform

import (
	"encoding/binary"
	"fmt"
)

// Mode selects the packing discipline of a record type.
type Mode uint8

const (
	// CCompatible packs a record as a fixed-size, header-less layout that
	// interoperates with foreign C structs. Every field occupies its full
	// wire width; optional fields must carry defaults, because a fixed
	// layout has no way to express absence.
	CCompatible Mode = iota + 1

	// Dynamic packs a record as a self-describing layout: a 4-byte header,
	// a presence bitmap when the schema declares optional fields, and then
	// only the present fields.
	Dynamic
)

func (m Mode) String() string {
	switch m {
	case CCompatible:
		return "c_compatible"
	case Dynamic:
		return "dynamic"
	}
	return "invalid"
}

// ByteOrder selects the endianness of multi-byte wire values.
type ByteOrder uint8

const (
	LittleEndian ByteOrder = iota + 1
	BigEndian
	// NativeEndian resolves to the byte order of the running machine when
	// the schema is compiled.
	NativeEndian
)

func (o ByteOrder) String() string {
	switch o {
	case LittleEndian:
		return "little"
	case BigEndian:
		return "big"
	case NativeEndian:
		return "native"
	}
	return "invalid"
}

// nativeIsBig probes the machine byte order once at startup.
var nativeIsBig = func() bool {
	var buf [2]byte
	binary.NativeEndian.PutUint16(buf[:], 1)
	return buf[0] == 0
}()

// resolve maps NativeEndian to the concrete machine order. The result is
// always LittleEndian or BigEndian.
func (o ByteOrder) resolve() ByteOrder {
	if o == NativeEndian {
		if nativeIsBig {
			return BigEndian
		}
		return LittleEndian
	}
	return o
}

func (o ByteOrder) order() binary.ByteOrder {
	if o.resolve() == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Version tags the wire protocol. V1 is the only version this codec speaks.
type Version uint8

const V1 Version = 1

// Header flag bits (dynamic mode, header byte 1). Bits 2-7 are reserved:
// zero on encode, ignored on decode.
const (
	flagBigEndian   byte = 1 << 0
	flagHasOptional byte = 1 << 1
)

// headerSize is the fixed dynamic-mode prefix: version, flags, two reserved
// zero bytes.
const headerSize = 4

// Config is the immutable layout configuration of one record type. It is set
// when the schema is compiled and never mutated afterwards, which makes the
// compiled schema safe to share across goroutines.
type Config struct {
	Mode      Mode
	ByteOrder ByteOrder
	Version   Version

	// BitWidth is the underlying integer width of a bit-field layout
	// declared through this config. Only 8, 16 and 32 are valid; zero means
	// the schema declares no bit width.
	BitWidth int

	// PropagateByteOrder makes nested records pack and unpack with this
	// record's byte order instead of their own.
	PropagateByteOrder bool
}

// withDefaults fills unset values with the defaults of the original wire
// protocol: dynamic mode, little-endian, version 1.
func (c Config) withDefaults() Config {
	if c.Mode == 0 {
		c.Mode = Dynamic
	}
	if c.ByteOrder == 0 {
		c.ByteOrder = LittleEndian
	}
	if c.Version == 0 {
		c.Version = V1
	}
	return c
}

func (c Config) validate() error {
	if c.Mode != CCompatible && c.Mode != Dynamic {
		return fmt.Errorf("%w: mode %d", ErrBadConfig, c.Mode)
	}
	if c.ByteOrder != LittleEndian && c.ByteOrder != BigEndian && c.ByteOrder != NativeEndian {
		return fmt.Errorf("%w: byte order %d", ErrBadConfig, c.ByteOrder)
	}
	if c.Version != V1 {
		return fmt.Errorf("%w: version %d", ErrBadConfig, c.Version)
	}
	if c.BitWidth != 0 && c.BitWidth != 8 && c.BitWidth != 16 && c.BitWidth != 32 {
		return fmt.Errorf("%w: bit width %d (must be 8, 16 or 32)", ErrBadConfig, c.BitWidth)
	}
	return nil
}
