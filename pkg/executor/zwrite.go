package executor

import (
	"sort"
	"strings"

	"github.com/cuemby/mumpsdb/pkg/command"
	"github.com/cuemby/mumpsdb/pkg/mvalue"
	"github.com/cuemby/mumpsdb/pkg/tree"
)

func (e *Executor) execZWrite(sess *Session, cmd command.Command) []string {
	if cmd.ZGlobal != "" {
		return e.zwriteSubtree(sess, cmd.ZGlobal, cmd.Path)
	}
	names := e.listGlobalNames(sess)
	if cmd.ZFilter != "" {
		filtered := names[:0:0]
		lower := strings.ToLower(cmd.ZFilter)
		for _, n := range names {
			if strings.Contains(strings.ToLower(n), lower) {
				filtered = append(filtered, n)
			}
		}
		names = filtered
	}
	sort.Strings(names)
	if len(names) == 0 {
		return []string{"NO RESULTS"}
	}
	return names
}

func (e *Executor) zwriteSubtree(sess *Session, global string, pathLits []command.Literal) []string {
	path := e.literalsToPath(pathLits)

	var pvs []tree.PathValue
	if sess.Txn != nil {
		root := sess.Txn.Root(global)
		if root != nil {
			if sub := root.Walk(path); sub != nil {
				pvs = sub.AllPathsWithValues()
			}
		}
	} else {
		e.Store.WithRoot(global, func(root *tree.Node) {
			if root == nil {
				return
			}
			sub := root.Walk(path)
			if sub == nil {
				return
			}
			pvs = sub.AllPathsWithValues()
		})
	}

	if len(pvs) == 0 {
		return []string{"NO RESULTS"}
	}
	sort.Slice(pvs, func(i, j int) bool { return pathLess(pvs[i].Path, pvs[j].Path) })
	lines := make([]string, len(pvs))
	for i, pv := range pvs {
		full := append(append(mvalue.Path{}, path...), pv.Path...)
		lines[i] = formatGlobalRef(global, full) + "=" + formatValueLiteral(pv.Value)
	}
	return lines
}

func pathLess(a, b mvalue.Path) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := mvalue.Compare(a[i], b[i]); c != 0 {
			return c < 0
		}
	}
	return len(a) < len(b)
}
