package store

import (
	"strconv"
	"strings"

	"github.com/cuemby/mumpsdb/pkg/mvalue"
)

// formatRecord renders a mutation as the same textual command syntax the
// parser accepts, so the AOF can be replayed straight through
// CommandParser/CommandExecutor without a second on-disk schema.
func formatRecord(op, globalName string, path mvalue.Path, value mvalue.Value) string {
	var b strings.Builder
	b.WriteString(op)
	b.WriteByte(' ')
	b.WriteString(globalName)
	if len(path) > 0 {
		b.WriteByte('(')
		for i, sub := range path {
			if i > 0 {
				b.WriteByte(',')
			}
			writeSubscriptLiteral(&b, sub)
		}
		b.WriteByte(')')
	}
	if op == "SET" {
		b.WriteByte('=')
		writeValueLiteral(&b, value)
	}
	return b.String()
}

func writeSubscriptLiteral(b *strings.Builder, sub mvalue.Subscript) {
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

func writeValueLiteral(b *strings.Builder, v mvalue.Value) {
	switch v.Kind {
	case mvalue.Int:
		b.WriteString(strconv.FormatInt(v.I, 10))
	case mvalue.Float:
		b.WriteString(strconv.FormatFloat(v.F, 'g', -1, 64))
	case mvalue.String:
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(v.S, `"`, `""`))
		b.WriteByte('"')
	default:
		b.WriteString(`""`)
	}
}
