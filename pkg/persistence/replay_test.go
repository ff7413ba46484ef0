package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/mumpsdb/pkg/mvalue"
	"github.com/cuemby/mumpsdb/pkg/store"
)

func writeAOFFile(t *testing.T, dir string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, "replay.aof")
	var content string
	for _, l := range lines {
		content += l + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write aof fixture: %v", err)
	}
	return path
}

func TestReplayAppliesSetAndKill(t *testing.T) {
	dir := t.TempDir()
	path := writeAOFFile(t, dir,
		`SET ^P(1,"name")="John"`,
		`SET ^P(1,"age")=35`,
		`SET ^T(10)="c"`,
		`KILL ^P(1,"age")`,
	)

	s := store.New()
	n, err := Replay(path, s)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 applied records, got %d", n)
	}

	name, err := s.Get("^P", mvalue.Path{mvalue.NewIntSub(1), mvalue.NewStringSub("name")})
	if err != nil || name == nil || name.Text() != "John" {
		t.Errorf("expected ^P(1,\"name\")=John, got %v, err=%v", name, err)
	}
	age, err := s.Get("^P", mvalue.Path{mvalue.NewIntSub(1), mvalue.NewStringSub("age")})
	if err != nil {
		t.Fatalf("Get age: %v", err)
	}
	if age != nil && !age.IsNull() {
		t.Errorf("expected ^P(1,\"age\") killed, got %v", age)
	}
}

func TestReplaySkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	path := writeAOFFile(t, dir,
		`SET ^A=1`,
		`this is not a command`,
		`SET ^B=2`,
	)

	s := store.New()
	n, err := Replay(path, s)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 applied records (bad line skipped), got %d", n)
	}

	a, _ := s.Get("^A", nil)
	if a == nil || a.I != 1 {
		t.Errorf("expected ^A=1, got %v", a)
	}
	b, _ := s.Get("^B", nil)
	if b == nil || b.I != 2 {
		t.Errorf("expected ^B=2, got %v", b)
	}
}

func TestReplayMissingFileIsNotAnError(t *testing.T) {
	s := store.New()
	n, err := Replay(filepath.Join(t.TempDir(), "does-not-exist.aof"), s)
	if err != nil {
		t.Fatalf("Replay on missing file should be a no-op, got err: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 applied records, got %d", n)
	}
}

func TestReplayIsIdempotentOnRepeatedSets(t *testing.T) {
	dir := t.TempDir()
	path := writeAOFFile(t, dir, `SET ^A=1`, `SET ^A=1`, `SET ^A=1`)

	s := store.New()
	if _, err := Replay(path, s); err != nil {
		t.Fatalf("first replay: %v", err)
	}
	if _, err := Replay(path, s); err != nil {
		t.Fatalf("second replay: %v", err)
	}

	v, err := s.Get("^A", nil)
	if err != nil || v == nil || v.I != 1 {
		t.Errorf("expected ^A=1 after repeated replay, got %v, err=%v", v, err)
	}
}
