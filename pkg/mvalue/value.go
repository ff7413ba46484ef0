package mvalue

import "strconv"

// Kind tags the underlying type of a stored Value.
type Kind int

const (
	Null Kind = iota
	Int
	Float
	String
)

// Value is the tagged scalar stored at a tree node. The core never stores
// binary blobs; Null represents the absence of data at a node that still
// has children.
type Value struct {
	Kind Kind
	I    int64
	F    float64
	S    string
}

var NullValue = Value{Kind: Null}

func NewIntValue(i int64) Value     { return Value{Kind: Int, I: i} }
func NewFloatValue(f float64) Value { return Value{Kind: Float, F: f} }
func NewStringValue(s string) Value { return Value{Kind: String, S: s} }

func (v Value) IsNull() bool { return v.Kind == Null }

// Text renders the value for WRITE/ZWRITE output and for index keys: bare
// for numerics, raw (unquoted) text for strings. Quoting for ZWRITE's
// round-trip form is applied by the caller, not here.
func (v Value) Text() string {
	switch v.Kind {
	case Int:
		return strconv.FormatInt(v.I, 10)
	case Float:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case String:
		return v.S
	default:
		return ""
	}
}

// Equal reports whether two values carry the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case Int:
		return v.I == o.I
	case Float:
		return v.F == o.F
	case String:
		return v.S == o.S
	default:
		return true
	}
}

// CanonicalValue canonicalizes a parsed literal: integer-looking text
// becomes Int, decimal-looking text becomes Float, everything else stays
// String. Unlike CanonicalSub, a float with an integral value (e.g. "2.0")
// stays Float rather than collapsing to Int. Callers that already know
// the literal's type (quoted string, bare number) should construct the
// Value directly instead of routing through this helper.
func CanonicalValue(raw string) Value {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if strconv.FormatInt(i, 10) == raw {
			return NewIntValue(i)
		}
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return NewFloatValue(f)
	}
	return NewStringValue(raw)
}
