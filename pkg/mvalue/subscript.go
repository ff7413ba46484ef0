// Package mvalue defines the typed subscript and value model shared by the
// tree, store, parser and executor: a tagged union over {Int, Float,
// String} for subscripts and {Null, Int, Float, String} for stored values.
// Neither type is ever exposed as interface{} at a package boundary; every
// caller pattern-matches on Kind.
package mvalue

import (
	"strconv"
	"strings"
)

// SubKind tags the underlying type of a subscript element.
type SubKind int

const (
	SubInt SubKind = iota
	SubFloat
	SubString
)

// Subscript is one element of a Path. Equality and ordering follow the
// canonical total order: integers compare numerically among themselves,
// strings compare byte-wise, and integers sort before strings when the
// kinds differ.
type Subscript struct {
	Kind SubKind
	I    int64
	F    float64
	S    string
}

func NewIntSub(i int64) Subscript    { return Subscript{Kind: SubInt, I: i} }
func NewFloatSub(f float64) Subscript { return Subscript{Kind: SubFloat, F: f} }
func NewStringSub(s string) Subscript { return Subscript{Kind: SubString, S: s} }

// CanonicalSub canonicalizes a raw subscript the way ingest requires:
// numeric-looking strings become integer or float subscripts, everything
// else stays a string. Floats that round-trip exactly to an integer are
// canonicalized to SubInt.
func CanonicalSub(raw Subscript) Subscript {
	switch raw.Kind {
	case SubString:
		if i, err := strconv.ParseInt(raw.S, 10, 64); err == nil {
			if strconv.FormatInt(i, 10) == raw.S {
				return NewIntSub(i)
			}
		}
		if f, err := strconv.ParseFloat(raw.S, 64); err == nil {
			if f == float64(int64(f)) {
				return NewIntSub(int64(f))
			}
			return NewFloatSub(f)
		}
		return raw
	case SubFloat:
		if raw.F == float64(int64(raw.F)) {
			return NewIntSub(int64(raw.F))
		}
		return raw
	default:
		return raw
	}
}

// CanonicalSubFromText parses free text (as it arrives from the wire or
// from a local-variable substitution) into a canonical Subscript.
func CanonicalSubFromText(text string) Subscript {
	return CanonicalSub(NewStringSub(text))
}

// Text renders the subscript's canonical textual form, used for both the
// path-key encoding and ZWRITE round-tripping of bare numeric subscripts.
func (s Subscript) Text() string {
	switch s.Kind {
	case SubInt:
		return strconv.FormatInt(s.I, 10)
	case SubFloat:
		return strconv.FormatFloat(s.F, 'g', -1, 64)
	default:
		return s.S
	}
}

// Equal reports structural equality under canonical form.
func (s Subscript) Equal(o Subscript) bool {
	return Compare(s, o) == 0
}

// Compare implements the canonical subscript total order: numeric kinds
// (Int, Float) compare numerically; String compares byte-wise; Int/Float
// sort before String when kinds differ.
func Compare(a, b Subscript) int {
	an, bn := isNumeric(a), isNumeric(b)
	if an && bn {
		af, bf := numericValue(a), numericValue(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	if an && !bn {
		return -1
	}
	if !an && bn {
		return 1
	}
	return strings.Compare(a.Text(), b.Text())
}

func isNumeric(s Subscript) bool {
	return s.Kind == SubInt || s.Kind == SubFloat
}

func numericValue(s Subscript) float64 {
	if s.Kind == SubInt {
		return float64(s.I)
	}
	return s.F
}

// Path is a finite ordered sequence of subscripts; the empty path addresses
// a global's root.
type Path []Subscript

// Key returns the canonical ':'-joined path-key encoding used by the
// value/path indexes: subscript elements are joined by ':' using their
// canonical textual form.
func (p Path) Key() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.Text()
	}
	return strings.Join(parts, ":")
}
