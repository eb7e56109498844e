package binform

// Value is the sum of a present field value and the explicit absent marker.
// Absence is a first-class state rather than a nil sentinel, so the presence
// bitmap logic can treat it exhaustively.
type Value struct {
	v   any
	set bool
}

// None is the absent Value.
var None Value

// Some wraps a present value.
func Some(v any) Value { return Value{v: v, set: true} }

// Present reports whether the Value carries a value.
func (v Value) Present() bool { return v.set }

// Absent reports whether the Value is the absent marker.
func (v Value) Absent() bool { return !v.set }

// Any returns the carried value, or nil when absent.
func (v Value) Any() any {
	if !v.set {
		return nil
	}
	return v.v
}
