package binform

// Field declares one named slot of a record type. Fields are read-only to
// the codec once the schema is compiled; declaration order is wire order.
type Field struct {
	Name string
	Kind Kind

	// Optional marks the field as nullable. In dynamic mode an optional
	// field may be absent per instance; in C-compatible mode it must carry
	// a default so a value always exists to pack.
	Optional bool

	// Length is the explicit fixed wire length for strings, byte buffers
	// and nested records. Zero means unset.
	Length int

	// MaxLength is an upper bound used as the fixed wire length when Length
	// is unset.
	MaxLength int

	// Format overrides the wire token of Int and Enum fields with another
	// integer format code, e.g. 'B' for a one-byte enum.
	Format byte

	// Default and DefaultFunc supply a value when the caller omits the
	// field. DefaultFunc wins when both are set.
	Default     any
	DefaultFunc func() any

	// Enum restricts an Enum field to this set of underlying values.
	// Empty means any value that fits the wire token.
	Enum []int64

	// Labels declares a string-valued enum. Values are the label strings;
	// the wire carries the label's declaration-order index. Mutually
	// exclusive with Enum.
	Labels []string

	// Nested is the compiled schema of a Struct field. It must be a
	// C-compatible schema: a dynamic nested record has no fixed size.
	Nested *Schema

	// Bits is the compiled layout of a Bits field.
	Bits *BitLayout
}

// resolveLength reports the fixed wire length of a variable-width field.
// Priority: explicit length, then max length, then (for nested records) the
// nested schema's own wire size.
func (f *Field) resolveLength() (int, bool) {
	switch {
	case f.Length > 0:
		return f.Length, true
	case f.MaxLength > 0:
		return f.MaxLength, true
	case f.Kind == Struct && f.Nested != nil:
		return f.Nested.WireSize(), true
	}
	return 0, false
}

// defaultValue returns the field's default, preferring the factory.
func (f *Field) defaultValue() (any, bool) {
	if f.DefaultFunc != nil {
		return f.DefaultFunc(), true
	}
	if f.Default != nil {
		return f.Default, true
	}
	return nil, false
}

// hasDefault reports whether the field can supply a default, without
// invoking the factory.
func (f *Field) hasDefault() bool { return f.Default != nil || f.DefaultFunc != nil }

// labelIndex returns the declaration-order index of an enum label.
func (f *Field) labelIndex(s string) (int64, bool) {
	for i, l := range f.Labels {
		if l == s {
			return int64(i), true
		}
	}
	return 0, false
}

func (f *Field) allowsEnumValue(n int64) bool {
	if len(f.Enum) == 0 {
		return true
	}
	for _, v := range f.Enum {
		if v == n {
			return true
		}
	}
	return false
}
