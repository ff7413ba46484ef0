package executor

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cuemby/mumpsdb/pkg/authz"
	"github.com/cuemby/mumpsdb/pkg/command"
	"github.com/cuemby/mumpsdb/pkg/embed"
	"github.com/cuemby/mumpsdb/pkg/errs"
	"github.com/cuemby/mumpsdb/pkg/log"
	"github.com/cuemby/mumpsdb/pkg/metrics"
	"github.com/cuemby/mumpsdb/pkg/mvalue"
	"github.com/cuemby/mumpsdb/pkg/replication"
	"github.com/cuemby/mumpsdb/pkg/store"
	"github.com/cuemby/mumpsdb/pkg/tree"
)

// Persister lets DUMP/LOAD force an immediate snapshot write or reload
// outside the periodic timer, without the executor importing the
// persistence package directly. Implemented by pkg/persistence.Manager.
type Persister interface {
	SaveSnapshot() error
	LoadSnapshot() error
}

const defaultTopK = 10

// Executor dispatches a parsed command.Command against a Session's store or
// active transaction and renders the deterministic text response lines the
// line protocol requires.
type Executor struct {
	Store     *store.GlobalStore
	Authz     authz.Checker
	Embedder  embed.Embedder
	Persister Persister
	Replica   replication.Replicator

	DefaultTopK         int
	SimilarityThreshold float64
	MaxQueryDepth       int

	StartTime time.Time

	embeddingCount int64
}

func NewExecutor(s *store.GlobalStore) *Executor {
	return &Executor{
		Store:               s,
		Authz:               authz.AllowAll{},
		Embedder:            embed.Noop{},
		Replica:             replication.Noop{},
		DefaultTopK:         defaultTopK,
		SimilarityThreshold: 0.85,
		MaxQueryDepth:       50,
		StartTime:           time.Now(),
	}
}

// Execute runs one parsed command against sess and returns the response
// lines to write back to the client, plus whether the session should close.
func (e *Executor) Execute(sess *Session, info authz.SessionInfo, cmd command.Command) (lines []string, exit bool) {
	verb := cmd.Verb.String()
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.CommandDuration, verb)

	lines, exit = e.dispatch(sess, info, cmd)
	outcome := "ok"
	if len(lines) > 0 && strings.HasPrefix(lines[0], "ERROR:") {
		outcome = "error"
	}
	metrics.CommandsTotal.WithLabelValues(verb, outcome).Inc()
	return lines, exit
}

func (e *Executor) dispatch(sess *Session, info authz.SessionInfo, cmd command.Command) (lines []string, exit bool) {
	if e.Authz != nil {
		allow, err := e.Authz.CheckCommand(info, cmd.Verb.String())
		if err != nil {
			log.WithSession(info.SessionID).Warn().Err(err).Msg("authorization check failed")
			return []string{"ERROR: authorization check failed"}, false
		}
		if !allow {
			return []string{"ERROR: command not permitted for this session"}, false
		}
	}

	switch cmd.Verb {
	case command.VerbError:
		return []string{"ERROR: " + cmd.ErrMsg}, false
	case command.VerbSet:
		return e.execSet(sess, cmd), false
	case command.VerbGet:
		return e.execGet(sess, cmd), false
	case command.VerbKill:
		return e.execKill(sess, cmd), false
	case command.VerbQuery:
		return e.execQuery(sess, cmd), false
	case command.VerbWrite:
		return e.execWrite(sess, cmd), false
	case command.VerbZWrite:
		return e.execZWrite(sess, cmd), false
	case command.VerbFastSearch:
		return e.execFastSearch(sess, cmd), false
	case command.VerbExactSearch:
		return e.execExactSearch(sess, cmd), false
	case command.VerbSimilaritySearch:
		return e.execSimSearch(sess, cmd), false
	case command.VerbBeginTransaction:
		return e.execBegin(sess), false
	case command.VerbCommit:
		return e.execCommit(sess), false
	case command.VerbRollback:
		return e.execRollback(sess), false
	case command.VerbStats:
		return e.execStats(), false
	case command.VerbHelp:
		return helpLines(), false
	case command.VerbExit:
		return []string{"BYE"}, true
	case command.VerbDump:
		return e.execDump(), false
	case command.VerbLoad:
		return e.execLoad(), false
	default:
		return []string{"ERROR: unrecognized command"}, false
	}
}

func (e *Executor) execSet(sess *Session, cmd command.Command) []string {
	val, err := e.evalExpr(sess, cmd.Value)
	if err != nil {
		return []string{"ERROR: " + err.Error()}
	}
	if cmd.TargetLocal != "" {
		sess.Locals[cmd.TargetLocal] = val
		return []string{"OK"}
	}
	path := e.literalsToPath(cmd.TargetPath)
	if err := e.setValue(sess, cmd.Global, path, val); err != nil {
		return []string{"ERROR: " + err.Error()}
	}
	return []string{"OK"}
}

func (e *Executor) execGet(sess *Session, cmd command.Command) []string {
	path := e.literalsToPath(cmd.Path)
	v, err := e.getValue(sess, cmd.Global, path)
	if err != nil {
		return []string{"ERROR: " + err.Error()}
	}
	if v == nil || v.IsNull() {
		return []string{"NULL"}
	}
	return []string{v.Text()}
}

func (e *Executor) execKill(sess *Session, cmd command.Command) []string {
	path := e.literalsToPath(cmd.Path)
	if err := e.killValue(sess, cmd.Global, path); err != nil {
		return []string{"ERROR: " + err.Error()}
	}
	return []string{"OK"}
}

func (e *Executor) execQuery(sess *Session, cmd command.Command) []string {
	path := e.literalsToPath(cmd.Path)
	depth := cmd.Depth
	if depth <= 0 {
		depth = 1
	}
	if depth > e.MaxQueryDepth {
		depth = e.MaxQueryDepth
	}
	results, err := e.queryValue(sess, cmd.Global, path, depth)
	if err != nil {
		return []string{"ERROR: " + err.Error()}
	}
	if len(results) == 0 {
		return []string{"NO RESULTS"}
	}
	lines := make([]string, len(results))
	for i, pv := range results {
		full := append(append(mvalue.Path{}, path...), pv.Path...)
		lines[i] = fmt.Sprintf("%d: %s=%s", i+1, formatGlobalRef(cmd.Global, full), formatValueLiteral(pv.Value))
	}
	return lines
}

func (e *Executor) execWrite(sess *Session, cmd command.Command) []string {
	var b strings.Builder
	for _, expr := range cmd.Exprs {
		v, err := e.evalExpr(sess, expr)
		if err != nil {
			return []string{"ERROR: " + err.Error()}
		}
		b.WriteString(v.Text())
	}
	return []string{b.String()}
}

func (e *Executor) execBegin(sess *Session) []string {
	if sess.Txn != nil {
		return []string{"ERROR: transaction already in progress"}
	}
	sess.Txn = e.Store.Begin()
	return []string{"TRANSACTION STARTED"}
}

func (e *Executor) execCommit(sess *Session) []string {
	if sess.Txn == nil {
		return []string{"ERROR: no active transaction"}
	}
	err := sess.Txn.Commit()
	sess.Txn = nil
	if err != nil {
		return []string{"ERROR: " + err.Error()}
	}
	return []string{"TRANSACTION COMMITTED"}
}

func (e *Executor) execRollback(sess *Session) []string {
	if sess.Txn == nil {
		return []string{"ERROR: no active transaction"}
	}
	err := sess.Txn.Rollback()
	sess.Txn = nil
	if err != nil {
		return []string{"ERROR: " + err.Error()}
	}
	return []string{"TRANSACTION ROLLED BACK"}
}

func (e *Executor) execStats() []string {
	s := e.Store.Stats()
	replicationLag := "n/a"
	if broker, ok := e.Replica.(*replication.Broker); ok {
		replicationLag = fmt.Sprintf("%d queued", broker.Backlog())
	}
	lines := []string{
		fmt.Sprintf("globalCount=%d", s.GlobalCount),
		fmt.Sprintf("totalNodes=%d", s.TotalNodes),
		fmt.Sprintf("memoryUsage=%d", s.TotalNodes*100),
		fmt.Sprintf("embeddingCount=%d", atomic.LoadInt64(&e.embeddingCount)),
		fmt.Sprintf("cacheSize=%d", s.CacheSize),
		fmt.Sprintf("indexSize=%d", s.IndexSize),
		fmt.Sprintf("uptime=%s", time.Since(e.StartTime).Round(time.Second)),
		fmt.Sprintf("replicationLag=%s", replicationLag),
		fmt.Sprintf("embeddingEnabled=%t", e.Embedder.Enabled()),
	}
	return lines
}

func (e *Executor) execDump() []string {
	if e.Persister == nil {
		return []string{"ERROR: persistence is not configured"}
	}
	if err := e.Persister.SaveSnapshot(); err != nil {
		return []string{"ERROR: " + err.Error()}
	}
	return []string{"OK"}
}

func (e *Executor) execLoad() []string {
	if e.Persister == nil {
		return []string{"ERROR: persistence is not configured"}
	}
	if err := e.Persister.LoadSnapshot(); err != nil {
		return []string{"ERROR: " + err.Error()}
	}
	return []string{"OK"}
}

func helpLines() []string {
	return []string{
		"SET ^G(subs)=value      set a node's value",
		"GET ^G(subs)            read a node's value",
		"KILL ^G(subs)           remove a subtree",
		"QUERY ^G(subs) DEPTH n  list descendants n levels deep",
		"WRITE expr,expr,...     print a concatenated expression list",
		"ZWRITE [^G | filter]    dump globals in round-trip form",
		"FSEARCH value           index-backed exact-value search",
		"EXACTSEARCH text [IN ^G] full scan exact-value search",
		"SIMSEARCH text [TOP n]  embedding similarity search",
		"TSTART / COMMIT / ROLLBACK   transaction control",
		"STATS                   server statistics",
		"DUMP / LOAD             force an immediate snapshot save/load",
		"HELP                    this text",
		"EXIT                    close the connection",
	}
}

// setValue, getValue, killValue, queryValue route through the session's
// active transaction when present, otherwise directly against the store.
func (e *Executor) setValue(sess *Session, global string, path mvalue.Path, v mvalue.Value) error {
	if sess.Txn != nil {
		return sess.Txn.Set(global, path, v)
	}
	return e.Store.Set(global, path, v)
}

func (e *Executor) getValue(sess *Session, global string, path mvalue.Path) (*mvalue.Value, error) {
	if sess.Txn != nil {
		return sess.Txn.Get(global, path)
	}
	return e.Store.Get(global, path)
}

func (e *Executor) killValue(sess *Session, global string, path mvalue.Path) error {
	if sess.Txn != nil {
		return sess.Txn.Kill(global, path)
	}
	return e.Store.Kill(global, path)
}

func (e *Executor) queryValue(sess *Session, global string, path mvalue.Path, depth int) ([]tree.PathValue, error) {
	if sess.Txn != nil {
		return sess.Txn.Query(global, path, depth)
	}
	return e.Store.Query(global, path, depth)
}

// evalExpr resolves one ValueExpr to a concrete mvalue.Value: a literal, a
// local variable lookup, a global read, or an $ORDER call.
func (e *Executor) evalExpr(sess *Session, expr command.ValueExpr) (mvalue.Value, error) {
	switch expr.Kind {
	case command.ExprLiteral:
		return e.literalToValue(expr.Lit), nil
	case command.ExprLocalRef:
		if v, ok := sess.Locals[expr.Local]; ok {
			return v, nil
		}
		return mvalue.NullValue, nil
	case command.ExprGlobalRef:
		path := e.literalsToPath(expr.Path)
		v, err := e.getValue(sess, expr.Global, path)
		if err != nil {
			return mvalue.NullValue, err
		}
		if v == nil {
			return mvalue.NullValue, nil
		}
		return *v, nil
	case command.ExprOrderCall:
		return e.evalOrder(sess, expr), nil
	default:
		return mvalue.NullValue, errs.Validation("unrecognized value expression")
	}
}

func (e *Executor) literalToValue(lit command.Literal) mvalue.Value {
	switch {
	case lit.IsString:
		return mvalue.NewStringValue(lit.Str)
	case lit.IsFloat:
		return mvalue.NewFloatValue(lit.Float)
	default:
		return mvalue.NewIntValue(lit.Int)
	}
}

// literalToSub converts a parsed path element straight to a canonical
// subscript. Unlike $ORDER's argument resolution, ordinary path elements
// are never substituted against local variables — a bare identifier in a
// SET/GET/KILL/QUERY path is simply a string subscript.
func (e *Executor) literalToSub(lit command.Literal) mvalue.Subscript {
	if lit.IsString {
		return mvalue.CanonicalSub(mvalue.NewStringSub(lit.Str))
	}
	if lit.IsFloat {
		return mvalue.CanonicalSub(mvalue.NewFloatSub(lit.Float))
	}
	return mvalue.NewIntSub(lit.Int)
}

func (e *Executor) literalsToPath(lits []command.Literal) mvalue.Path {
	path := make(mvalue.Path, len(lits))
	for i, lit := range lits {
		path[i] = e.literalToSub(lit)
	}
	return path
}

