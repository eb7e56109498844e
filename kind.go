package binform

// Kind is the closed set of semantic field types the codec understands.
// Every kind maps to exactly one type handler; the mapping is built once and
// never mutated.
type Kind uint8

const (
	Invalid Kind = iota
	Bool         // 1 byte, nonzero is true
	Int8
	Uint8
	Int16
	Uint16
	Int // native-width integer: 4-byte signed on the wire unless overridden
	Float32
	Float64
	String // UTF-8, fixed wire length from the field's length resolution
	Bytes  // raw buffer of exactly the resolved length
	IPv4   // 4 bytes, always network order
	IPv6   // 16 bytes, always network order
	UUID   // 16 bytes, byte-swapped form under little-endian layouts
	Enum   // underlying integer representation
	Struct // nested record, packed as a fixed-length buffer
	Bits   // bit-field record, packed as one unsigned integer
)

var kindNames = [...]string{
	Invalid: "invalid",
	Bool:    "bool",
	Int8:    "int8",
	Uint8:   "uint8",
	Int16:   "int16",
	Uint16:  "uint16",
	Int:     "int",
	Float32: "float32",
	Float64: "float64",
	String:  "string",
	Bytes:   "bytes",
	IPv4:    "ipv4",
	IPv6:    "ipv6",
	UUID:    "uuid",
	Enum:    "enum",
	Struct:  "struct",
	Bits:    "bits",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}
