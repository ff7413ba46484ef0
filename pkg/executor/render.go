package executor

import (
	"strconv"
	"strings"

	"github.com/cuemby/mumpsdb/pkg/mvalue"
)

// formatGlobalRef renders global/path in the ZWRITE round-trip form
// ^G(k1,k2,...), or bare ^G when path is empty.
func formatGlobalRef(global string, path mvalue.Path) string {
	if len(path) == 0 {
		return global
	}
	var b strings.Builder
	b.WriteString(global)
	b.WriteByte('(')
	for i, sub := range path {
		if i > 0 {
			b.WriteByte(',')
		}
		formatSubscriptLiteral(&b, sub)
	}
	b.WriteByte(')')
	return b.String()
}

func formatSubscriptLiteral(b *strings.Builder, sub mvalue.Subscript) {
	switch sub.Kind {
	case mvalue.SubInt:
		b.WriteString(strconv.FormatInt(sub.I, 10))
	case mvalue.SubFloat:
		b.WriteString(strconv.FormatFloat(sub.F, 'g', -1, 64))
	default:
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(sub.S, `"`, `""`))
		b.WriteByte('"')
	}
}

// formatValueLiteral renders v the same way: bare for numerics, double
// quoted (with "" escaping) for strings, an empty quoted string ("") for
// null.
func formatValueLiteral(v mvalue.Value) string {
	switch v.Kind {
	case mvalue.Int:
		return strconv.FormatInt(v.I, 10)
	case mvalue.Float:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case mvalue.String:
		return `"` + strings.ReplaceAll(v.S, `"`, `""`) + `"`
	default:
		return `""`
	}
}
