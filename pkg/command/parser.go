package command

import (
	"strconv"
	"strings"
)

// Parse turns one logical line into a Command, or a VerbError Command
// carrying a human message — parse failures never panic and never return a
// Go error, since the session loop's only reaction is to print ErrMsg and
// keep reading.
func Parse(line string) Command {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{Verb: VerbError, ErrMsg: "empty command"}
	}

	verbTok, rest := splitFirstToken(line)
	verb, ok := aliases[strings.ToUpper(verbTok)]
	if !ok {
		return Command{Verb: VerbError, ErrMsg: "unknown command: " + verbTok}
	}
	rest = strings.TrimSpace(rest)

	switch verb {
	case VerbSet:
		return parseSet(rest)
	case VerbGet:
		return parseTargetOnly(VerbGet, rest)
	case VerbKill:
		return parseTargetOnly(VerbKill, rest)
	case VerbQuery:
		return parseQuery(rest)
	case VerbWrite:
		return parseWrite(rest)
	case VerbZWrite:
		return parseZWrite(rest)
	case VerbFastSearch:
		return parseFastSearch(rest)
	case VerbExactSearch:
		return parseExactSearch(rest)
	case VerbSimilaritySearch:
		return parseSimSearch(rest)
	case VerbBeginTransaction, VerbCommit, VerbRollback, VerbStats, VerbHelp, VerbExit, VerbDump, VerbLoad:
		return Command{Verb: verb}
	default:
		return Command{Verb: VerbError, ErrMsg: "unhandled verb: " + verbTok}
	}
}

func splitFirstToken(s string) (tok, rest string) {
	i := strings.IndexAny(s, " \t(")
	if i < 0 {
		return s, ""
	}
	if s[i] == '(' {
		return s[:i], s[i:]
	}
	return s[:i], s[i+1:]
}

// splitGlobalRef splits "^G(1,\"a\")" / "^G" into the global name and the
// raw subscript-list text (without the parens), or ("", ok=false) when s
// isn't a global reference at all.
func splitGlobalRef(s string) (global, subText string, hasPath bool, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] != '^' {
		return "", "", false, false
	}
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return s, "", false, true
	}
	close := matchingParen(s, open)
	if close < 0 {
		return "", "", false, false
	}
	return s[:open], s[open+1 : close], true, true
}

// matchingParen returns the index of the ')' matching the '(' at open,
// respecting nested parens and quoted strings.
func matchingParen(s string, open int) int {
	depth := 0
	inQuote := false
	for i := open; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			if inQuote && i+1 < len(s) && s[i+1] == '"' {
				i++
				continue
			}
			inQuote = !inQuote
		case inQuote:
			// skip
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitArgs splits s on commas at depth 0, respecting quotes and nested
// parens, so "1,\"a,b\",$ORDER(^T,1)" splits into three elements.
func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			if inQuote && i+1 < len(s) && s[i+1] == '"' {
				i++
				continue
			}
			inQuote = !inQuote
		case inQuote:
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	for i := range out {
		out[i] = strings.TrimSpace(out[i])
	}
	return out
}

// parseLiteral interprets one subscript/value token: a quoted string
// literal (quotes stripped, "" unescaped to "), a bare integer, a bare
// float, or (falling through) a bare identifier string. The bare-identifier
// case is itself just a string literal; only $ORDER resolves it against
// local variables, and it does so at execution time using the literal's
// own text.
func parseLiteral(tok string) Literal {
	tok = strings.TrimSpace(tok)
	if len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"' {
		inner := tok[1 : len(tok)-1]
		inner = strings.ReplaceAll(inner, `""`, `"`)
		return Literal{IsString: true, Str: inner}
	}
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return Literal{Int: i}
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return Literal{IsFloat: true, Float: f}
	}
	return Literal{IsString: true, Str: tok}
}

func parseLiterals(toks []string) []Literal {
	out := make([]Literal, len(toks))
	for i, t := range toks {
		out[i] = parseLiteral(t)
	}
	return out
}

func parseTargetOnly(verb Verb, rest string) Command {
	global, subText, _, ok := splitGlobalRef(rest)
	if !ok {
		return Command{Verb: VerbError, ErrMsg: "expected a global reference, e.g. ^NAME or ^NAME(subscripts)"}
	}
	return Command{Verb: verb, Global: global, Path: parseLiterals(splitArgs(subText))}
}

func parseSet(rest string) Command {
	eq := topLevelIndex(rest, '=')
	if eq < 0 {
		return Command{Verb: VerbError, ErrMsg: "SET requires an assignment: SET target=value"}
	}
	target := strings.TrimSpace(rest[:eq])
	valueText := strings.TrimSpace(rest[eq+1:])

	expr, err := parseValueExpr(valueText)
	if err != "" {
		return Command{Verb: VerbError, ErrMsg: err}
	}

	if global, subText, _, ok := splitGlobalRef(target); ok {
		return Command{Verb: VerbSet, TargetPath: parseLiterals(splitArgs(subText)), Global: global, Value: expr}
	}
	if !isIdent(target) {
		return Command{Verb: VerbError, ErrMsg: "invalid SET target: " + target}
	}
	return Command{Verb: VerbSet, TargetLocal: target, Value: expr}
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}

// topLevelIndex finds the first occurrence of b outside quotes/parens.
func topLevelIndex(s string, b byte) int {
	depth := 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			if inQuote && i+1 < len(s) && s[i+1] == '"' {
				i++
				continue
			}
			inQuote = !inQuote
		case inQuote:
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == b && depth == 0:
			return i
		}
	}
	return -1
}

// parseValueExpr parses a single WRITE/SET expression element.
func parseValueExpr(tok string) (ValueExpr, string) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return ValueExpr{}, "empty value expression"
	}
	if strings.HasPrefix(strings.ToUpper(tok), "$ORDER(") || strings.HasPrefix(strings.ToUpper(tok), "$O(") {
		open := strings.IndexByte(tok, '(')
		close := matchingParen(tok, open)
		if close != len(tok)-1 {
			return ValueExpr{}, "malformed $ORDER call"
		}
		return parseOrderCall(tok[open+1 : close])
	}
	if global, subText, _, ok := splitGlobalRef(tok); ok {
		return ValueExpr{Kind: ExprGlobalRef, Global: global, Path: parseLiterals(splitArgs(subText))}, ""
	}
	if len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"' {
		return ValueExpr{Kind: ExprLiteral, Lit: parseLiteral(tok)}, ""
	}
	if _, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return ValueExpr{Kind: ExprLiteral, Lit: parseLiteral(tok)}, ""
	}
	if _, err := strconv.ParseFloat(tok, 64); err == nil {
		return ValueExpr{Kind: ExprLiteral, Lit: parseLiteral(tok)}, ""
	}
	if isIdent(tok) {
		return ValueExpr{Kind: ExprLocalRef, Local: tok}, ""
	}
	return ValueExpr{}, "unrecognized value expression: " + tok
}

func parseOrderCall(argText string) (ValueExpr, string) {
	args := splitArgs(argText)
	if len(args) == 0 {
		return ValueExpr{}, "$ORDER requires at least a global argument"
	}
	expr := ValueExpr{Kind: ExprOrderCall, OrderDir: 1}
	first := args[0]
	if global, subText, _, ok := splitGlobalRef(first); ok {
		expr.Global = global
		expr.Path = parseLiterals(splitArgs(subText))
	} else {
		// no-path form: iterate top-level global names, first arg is the
		// current global name (literal or local-variable reference)
		lit := parseLiteral(first)
		expr.OrderLast = &lit
	}
	if len(args) >= 2 {
		lit := parseLiteral(args[1])
		expr.OrderLast = &lit
	}
	if len(args) >= 3 {
		if d, err := strconv.Atoi(strings.TrimSpace(args[2])); err == nil {
			expr.OrderDir = d
		}
	}
	return expr, ""
}

func parseQuery(rest string) Command {
	upper := strings.ToUpper(rest)
	depthIdx := strings.Index(upper, "DEPTH")
	targetText := rest
	depth := 1
	if depthIdx >= 0 {
		targetText = rest[:depthIdx]
		depthText := strings.TrimSpace(rest[depthIdx+len("DEPTH"):])
		if d, err := strconv.Atoi(depthText); err == nil {
			depth = d
		}
	}
	global, subText, _, ok := splitGlobalRef(strings.TrimSpace(targetText))
	if !ok {
		return Command{Verb: VerbError, ErrMsg: "QUERY requires a global reference"}
	}
	return Command{Verb: VerbQuery, Global: global, Path: parseLiterals(splitArgs(subText)), Depth: depth}
}

func parseWrite(rest string) Command {
	toks := splitArgs(rest)
	exprs := make([]ValueExpr, 0, len(toks))
	for _, t := range toks {
		expr, err := parseValueExpr(t)
		if err != "" {
			return Command{Verb: VerbError, ErrMsg: err}
		}
		exprs = append(exprs, expr)
	}
	return Command{Verb: VerbWrite, Exprs: exprs}
}

func parseZWrite(rest string) Command {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return Command{Verb: VerbZWrite}
	}
	if global, subText, _, ok := splitGlobalRef(rest); ok {
		return Command{Verb: VerbZWrite, ZGlobal: global, Path: parseLiterals(splitArgs(subText))}
	}
	return Command{Verb: VerbZWrite, ZFilter: rest}
}

func parseFastSearch(rest string) Command {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return Command{Verb: VerbError, ErrMsg: "FSEARCH requires a value"}
	}
	return Command{Verb: VerbFastSearch, SearchLit: parseLiteral(rest)}
}

func parseExactSearch(rest string) Command {
	upper := strings.ToUpper(rest)
	inIdx := indexWholeWord(upper, "IN")
	query := rest
	in := ""
	if inIdx >= 0 {
		query = rest[:inIdx]
		in = strings.TrimSpace(rest[inIdx+2:])
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return Command{Verb: VerbError, ErrMsg: "EXACTSEARCH requires a query"}
	}
	return Command{Verb: VerbExactSearch, SearchQuery: stripQuotes(query), SearchIn: in}
}

func parseSimSearch(rest string) Command {
	upper := strings.ToUpper(rest)
	topIdx := indexWholeWord(upper, "TOP")
	query := rest
	topK := 0
	if topIdx >= 0 {
		query = rest[:topIdx]
		if k, err := strconv.Atoi(strings.TrimSpace(rest[topIdx+3:])); err == nil {
			topK = k
		}
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return Command{Verb: VerbError, ErrMsg: "SIMSEARCH requires a query"}
	}
	return Command{Verb: VerbSimilaritySearch, SearchQuery: stripQuotes(query), TopK: topK}
}

func stripQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return s
}

func indexWholeWord(upper, word string) int {
	idx := 0
	for {
		i := strings.Index(upper[idx:], word)
		if i < 0 {
			return -1
		}
		pos := idx + i
		before := pos == 0 || upper[pos-1] == ' '
		afterPos := pos + len(word)
		after := afterPos == len(upper) || upper[afterPos] == ' '
		if before && after {
			return pos
		}
		idx = pos + len(word)
	}
}
