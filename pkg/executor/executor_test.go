package executor

import (
	"testing"

	"github.com/cuemby/mumpsdb/pkg/authz"
	"github.com/cuemby/mumpsdb/pkg/command"
	"github.com/cuemby/mumpsdb/pkg/store"
)

func run(t *testing.T, e *Executor, sess *Session, line string) []string {
	t.Helper()
	cmd := command.Parse(line)
	lines, _ := e.Execute(sess, authz.SessionInfo{SessionID: "test"}, cmd)
	return lines
}

func newTestExecutor() (*Executor, *Session) {
	e := NewExecutor(store.New())
	return e, NewSession()
}

func TestSetGetKillRoundTrip(t *testing.T) {
	e, sess := newTestExecutor()

	if got := run(t, e, sess, `SET ^A=1`); got[0] != "OK" {
		t.Fatalf("SET ^A=1: got %v", got)
	}
	if got := run(t, e, sess, `GET ^A`); got[0] != "1" {
		t.Fatalf("GET ^A: got %v", got)
	}
	if got := run(t, e, sess, `KILL ^A`); got[0] != "OK" {
		t.Fatalf("KILL ^A: got %v", got)
	}
	if got := run(t, e, sess, `GET ^A`); got[0] != "NULL" {
		t.Fatalf("GET ^A after kill: got %v", got)
	}
}

func TestZWriteRendersSubtree(t *testing.T) {
	e, sess := newTestExecutor()
	run(t, e, sess, `SET ^P(1,"name")="John"`)
	run(t, e, sess, `SET ^P(1,"age")=35`)

	got := run(t, e, sess, `ZWRITE ^P`)
	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %v", got)
	}
	want := map[string]bool{
		`^P(1,"age")=35`:      true,
		`^P(1,"name")="John"`: true,
	}
	for _, line := range got {
		if !want[line] {
			t.Errorf("unexpected zwrite line: %q", line)
		}
	}
}

func TestTransactionRollbackDiscardsWrites(t *testing.T) {
	e, sess := newTestExecutor()

	if got := run(t, e, sess, `TSTART`); got[0] != "TRANSACTION STARTED" {
		t.Fatalf("TSTART: got %v", got)
	}
	if got := run(t, e, sess, `SET ^X=1`); got[0] != "OK" {
		t.Fatalf("SET ^X=1: got %v", got)
	}
	if got := run(t, e, sess, `ROLLBACK`); got[0] != "TRANSACTION ROLLED BACK" {
		t.Fatalf("ROLLBACK: got %v", got)
	}
	if got := run(t, e, sess, `GET ^X`); got[0] != "NULL" {
		t.Fatalf("GET ^X after rollback: got %v", got)
	}
}

func TestTransactionCommitPersistsWrites(t *testing.T) {
	e, sess := newTestExecutor()

	run(t, e, sess, `TSTART`)
	run(t, e, sess, `SET ^X=1`)
	if got := run(t, e, sess, `COMMIT`); got[0] != "TRANSACTION COMMITTED" {
		t.Fatalf("COMMIT: got %v", got)
	}
	if got := run(t, e, sess, `GET ^X`); got[0] != "1" {
		t.Fatalf("GET ^X after commit: got %v", got)
	}
}

func TestFastSearchFindsMatchingValues(t *testing.T) {
	e, sess := newTestExecutor()
	run(t, e, sess, `SET ^U(1)="shared"`)
	run(t, e, sess, `SET ^V(2)="shared"`)
	run(t, e, sess, `SET ^U(3)="other"`)

	got := run(t, e, sess, `FSEARCH "shared"`)
	if len(got) != 2 {
		t.Fatalf("expected 2 hits, got %v", got)
	}
}

func TestOrderTraversesSiblingsInOrder(t *testing.T) {
	e, sess := newTestExecutor()
	run(t, e, sess, `SET ^T(1)="a"`)
	run(t, e, sess, `SET ^T(2)="b"`)
	run(t, e, sess, `SET ^T(10)="c"`)

	if got := run(t, e, sess, `WRITE $ORDER(^T())`); got[0] != "1" {
		t.Fatalf("first $ORDER: got %v", got)
	}
	if got := run(t, e, sess, `WRITE $ORDER(^T(1))`); got[0] != "2" {
		t.Fatalf("$ORDER after 1: got %v", got)
	}
	if got := run(t, e, sess, `WRITE $ORDER(^T(2))`); got[0] != "10" {
		t.Fatalf("$ORDER after 2: got %v", got)
	}
	if got := run(t, e, sess, `WRITE $ORDER(^T(10))`); got[0] != "" {
		t.Fatalf("$ORDER past last should be empty, got %v", got)
	}
}

func TestLiteralPathIsNotSubstitutedAgainstLocals(t *testing.T) {
	e, sess := newTestExecutor()
	run(t, e, sess, `SET x=1`)
	run(t, e, sess, `SET ^G(x)="literal"`)

	if got := run(t, e, sess, `GET ^G(x)`); got[0] != "literal" {
		t.Fatalf("expected the bare identifier subscript to stay literal, got %v", got)
	}
	if got := run(t, e, sess, `GET ^G(1)`); got[0] != "NULL" {
		t.Fatalf("^G(1) should be unrelated to local x, got %v", got)
	}
}

func TestQueryReturnsNoResultsOnEmptySubtree(t *testing.T) {
	e, sess := newTestExecutor()
	got := run(t, e, sess, `QUERY ^NOPE`)
	if got[0] != "NO RESULTS" {
		t.Fatalf("expected NO RESULTS, got %v", got)
	}
}

func TestStatsReportsGlobalCount(t *testing.T) {
	e, sess := newTestExecutor()
	run(t, e, sess, `SET ^A=1`)
	run(t, e, sess, `SET ^B=2`)

	got := run(t, e, sess, `STATS`)
	found := false
	for _, line := range got {
		if line == "globalCount=2" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected globalCount=2 in STATS output, got %v", got)
	}
}

func TestExitReturnsByeAndRequestsClose(t *testing.T) {
	e, sess := newTestExecutor()
	cmd := command.Parse("EXIT")
	lines, exit := e.Execute(sess, authz.SessionInfo{SessionID: "test"}, cmd)
	if !exit {
		t.Fatal("expected exit=true")
	}
	if lines[0] != "BYE" {
		t.Fatalf("expected BYE, got %v", lines)
	}
}

func TestAdminOnlyRestrictsStats(t *testing.T) {
	e := NewExecutor(store.New())
	e.Authz = authz.NewAdminOnly([]string{"10.0.0.1"})
	sess := NewSession()

	cmd := command.Parse("STATS")
	lines, _ := e.Execute(sess, authz.SessionInfo{RemoteAddr: "10.0.0.2", SessionID: "test"}, cmd)
	if lines[0] != "ERROR: command not permitted for this session" {
		t.Fatalf("expected non-admin STATS to be rejected, got %v", lines)
	}

	lines, _ = e.Execute(sess, authz.SessionInfo{RemoteAddr: "10.0.0.1", SessionID: "test"}, cmd)
	if lines[0] == "ERROR: command not permitted for this session" {
		t.Fatalf("expected admin STATS to be allowed, got %v", lines)
	}
}
