package executor

import (
	"sort"
	"strconv"

	"github.com/cuemby/mumpsdb/pkg/command"
	"github.com/cuemby/mumpsdb/pkg/mvalue"
	"github.com/cuemby/mumpsdb/pkg/tree"
)

// resolveLiteralText renders lit's textual form, substituting a live local
// variable's value when lit is a string (quoted or bare, the parser keeps
// no distinction) that names one — this covers
// both the separate last-subscript argument and any string element
// embedded directly in a global reference's path, since $ORDER resolves
// both the same way.
func (e *Executor) resolveLiteralText(sess *Session, lit command.Literal) string {
	if lit.IsString {
		if v, ok := sess.Locals[lit.Str]; ok {
			return v.Text()
		}
		return lit.Str
	}
	if lit.IsFloat {
		return strconv.FormatFloat(lit.Float, 'g', -1, 64)
	}
	return strconv.FormatInt(lit.Int, 10)
}

func (e *Executor) resolveOrderSub(sess *Session, lit command.Literal) mvalue.Subscript {
	return mvalue.CanonicalSubFromText(e.resolveLiteralText(sess, lit))
}

// evalOrder implements $ORDER: with no global (a bare name/local-variable
// argument), it walks the sorted list of top-level global names; otherwise
// it walks the ordered children of the node addressed by the path prefix.
func (e *Executor) evalOrder(sess *Session, expr command.ValueExpr) mvalue.Value {
	dir := expr.OrderDir
	if dir == 0 {
		dir = 1
	}

	if expr.Global == "" {
		names := e.listGlobalNames(sess)
		last := ""
		if expr.OrderLast != nil {
			last = e.resolveLiteralText(sess, *expr.OrderLast)
		}
		return mvalue.NewStringValue(orderNeighborStrings(names, last, dir))
	}

	combined := make([]mvalue.Subscript, 0, len(expr.Path)+1)
	for _, lit := range expr.Path {
		combined = append(combined, e.resolveOrderSub(sess, lit))
	}
	if expr.OrderLast != nil {
		combined = append(combined, e.resolveOrderSub(sess, *expr.OrderLast))
	}

	var prefix mvalue.Path
	var last mvalue.Subscript
	if len(combined) == 0 {
		last = mvalue.NewStringSub("")
	} else {
		prefix = mvalue.Path(combined[:len(combined)-1])
		last = combined[len(combined)-1]
	}

	subs := e.orderChildSubs(sess, expr.Global, prefix)
	return mvalue.NewStringValue(orderNeighbor(subs, last, dir))
}

func (e *Executor) orderChildSubs(sess *Session, global string, prefix mvalue.Path) []mvalue.Subscript {
	if sess.Txn != nil {
		root := sess.Txn.Root(global)
		if root == nil {
			return nil
		}
		node := root.Walk(prefix)
		if node == nil {
			return nil
		}
		return node.ChildSubscripts()
	}
	var subs []mvalue.Subscript
	e.Store.WithRoot(global, func(root *tree.Node) {
		if root == nil {
			return
		}
		node := root.Walk(prefix)
		if node == nil {
			return
		}
		subs = node.ChildSubscripts()
	})
	return subs
}

func (e *Executor) listGlobalNames(sess *Session) []string {
	if sess.Txn != nil {
		names := sess.Txn.ListGlobalNames()
		sort.Strings(names)
		return names
	}
	return e.Store.ListGlobalNames()
}

// orderNeighbor returns the subscript immediately after (dir>=0) or before
// (dir<0) last in the ordered list subs. An empty-string last is the
// "before the first element" sentinel, matching $ORDER's own convention for
// an omitted or unset iteration cursor.
func orderNeighbor(subs []mvalue.Subscript, last mvalue.Subscript, dir int) string {
	if last.Kind == mvalue.SubString && last.S == "" {
		if len(subs) == 0 {
			return ""
		}
		if dir >= 0 {
			return subs[0].Text()
		}
		return subs[len(subs)-1].Text()
	}
	idx := -1
	for i, s := range subs {
		if mvalue.Compare(s, last) == 0 {
			idx = i
			break
		}
	}
	if idx < 0 {
		insert := sort.Search(len(subs), func(i int) bool { return mvalue.Compare(subs[i], last) > 0 })
		if dir >= 0 {
			if insert >= len(subs) {
				return ""
			}
			return subs[insert].Text()
		}
		if insert == 0 {
			return ""
		}
		return subs[insert-1].Text()
	}
	if dir >= 0 {
		if idx+1 >= len(subs) {
			return ""
		}
		return subs[idx+1].Text()
	}
	if idx-1 < 0 {
		return ""
	}
	return subs[idx-1].Text()
}

func orderNeighborStrings(names []string, last string, dir int) string {
	if last == "" {
		if len(names) == 0 {
			return ""
		}
		if dir >= 0 {
			return names[0]
		}
		return names[len(names)-1]
	}
	idx := -1
	for i, n := range names {
		if n == last {
			idx = i
			break
		}
	}
	if idx < 0 {
		insert := sort.SearchStrings(names, last)
		if dir >= 0 {
			if insert >= len(names) {
				return ""
			}
			return names[insert]
		}
		if insert == 0 {
			return ""
		}
		return names[insert-1]
	}
	if dir >= 0 {
		if idx+1 >= len(names) {
			return ""
		}
		return names[idx+1]
	}
	if idx-1 < 0 {
		return ""
	}
	return names[idx-1]
}
