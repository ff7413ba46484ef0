// Package command defines the Command variant produced by parsing one line
// of the database's text protocol, and the parser that produces it.
// Dispatch uses a static Op{Verb, fields...} tag rather than reflection,
// with static per-variant fields instead of a raw-message payload.
package command

// Verb identifies which command variant a line parsed to.
type Verb int

const (
	VerbSet Verb = iota
	VerbGet
	VerbKill
	VerbQuery
	VerbWrite
	VerbZWrite
	VerbFastSearch
	VerbExactSearch
	VerbSimilaritySearch
	VerbBeginTransaction
	VerbCommit
	VerbRollback
	VerbStats
	VerbHelp
	VerbExit
	VerbDump
	VerbLoad
	VerbError
)

func (v Verb) String() string {
	switch v {
	case VerbSet:
		return "SET"
	case VerbGet:
		return "GET"
	case VerbKill:
		return "KILL"
	case VerbQuery:
		return "QUERY"
	case VerbWrite:
		return "WRITE"
	case VerbZWrite:
		return "ZWRITE"
	case VerbFastSearch:
		return "FSEARCH"
	case VerbExactSearch:
		return "EXACTSEARCH"
	case VerbSimilaritySearch:
		return "SIMSEARCH"
	case VerbBeginTransaction:
		return "TSTART"
	case VerbCommit:
		return "COMMIT"
	case VerbRollback:
		return "ROLLBACK"
	case VerbStats:
		return "STATS"
	case VerbHelp:
		return "HELP"
	case VerbExit:
		return "EXIT"
	case VerbDump:
		return "DUMP"
	case VerbLoad:
		return "LOAD"
	default:
		return "ERROR"
	}
}

// aliases maps every recognized input token (verb or convenience alias) to
// its canonical Verb, kept as a static constant map rather than dynamic
// dispatch/reflection.
var aliases = map[string]Verb{
	"SET":         VerbSet,
	"GET":         VerbGet,
	"KILL":        VerbKill,
	"QUERY":       VerbQuery,
	"WRITE":       VerbWrite,
	"W":           VerbWrite,
	"ZWRITE":      VerbZWrite,
	"ZW":          VerbZWrite,
	"FSEARCH":     VerbFastSearch,
	"FS":          VerbFastSearch,
	"EXACTSEARCH": VerbExactSearch,
	"ES":          VerbExactSearch,
	"SIMSEARCH":   VerbSimilaritySearch,
	"SS":          VerbSimilaritySearch,
	"TSTART":      VerbBeginTransaction,
	"BEGIN":       VerbBeginTransaction,
	"COMMIT":      VerbCommit,
	"ROLLBACK":    VerbRollback,
	"STATS":       VerbStats,
	"$S":          VerbStats,
	"HELP":        VerbHelp,
	"?":           VerbHelp,
	"EXIT":        VerbExit,
	"QUIT":        VerbExit,
	"DUMP":        VerbDump,
	"LOAD":        VerbLoad,
}

// ExprKind tags a value-expression element of a WRITE list or a SET
// right-hand side.
type ExprKind int

const (
	ExprLiteral ExprKind = iota
	ExprGlobalRef
	ExprLocalRef
	ExprOrderCall
)

// Literal is a canonicalized scalar parsed straight from the wire: a
// quoted string (quotes stripped), a bare integer, or a bare float.
type Literal struct {
	IsString bool
	IsFloat  bool
	Str      string
	Int      int64
	Float    float64
}

// ValueExpr is one element of a WRITE/SET value expression.
type ValueExpr struct {
	Kind ExprKind

	Lit Literal // ExprLiteral

	Global string    // ExprGlobalRef / ExprOrderCall target
	Path   []Literal // ExprGlobalRef / ExprOrderCall path prefix

	Local string // ExprLocalRef

	OrderLast *Literal // ExprOrderCall: explicit last-subscript arg, nil if omitted
	OrderDir  int       // ExprOrderCall: +1 or -1, default +1
}

// Command is the typed result of parsing one line.
type Command struct {
	Verb Verb

	Global string    // GET/KILL/QUERY target global
	Path   []Literal // GET/KILL/QUERY target path

	TargetLocal string    // SET target when assigning a local variable
	TargetPath  []Literal // SET target path when assigning a global
	Value       ValueExpr // SET right-hand side

	Depth int // QUERY depth, defaults to 1

	Exprs []ValueExpr // WRITE argument list

	ZGlobal string // ZWRITE: subtree to dump, "" for a names listing
	ZFilter string // ZWRITE: case-insensitive name filter when ZGlobal == ""

	SearchLit   Literal // FSEARCH literal value
	SearchQuery string  // EXACTSEARCH / SIMSEARCH query text
	SearchIn    string  // optional global restriction
	TopK        int

	ErrMsg string // VerbError payload
}
