package persistence

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAOFWriterAppendAndDrain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.aof")

	w, err := NewAOFWriter(path, 16)
	if err != nil {
		t.Fatalf("NewAOFWriter: %v", err)
	}
	w.Append(`SET ^P(1,"name")="John"`)
	w.Append(`SET ^P(1,"age")=35`)
	w.Append(`KILL ^P(1)`)

	if err := w.Drain(2 * time.Second); err != nil {
		t.Fatalf("Drain: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open aof file: %v", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != `SET ^P(1,"name")="John"` {
		t.Errorf("unexpected first line: %q", lines[0])
	}
	if lines[2] != `KILL ^P(1)` {
		t.Errorf("unexpected third line: %q", lines[2])
	}
}

func TestAOFWriterDropsOnFullQueue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "full.aof")

	w, err := NewAOFWriter(path, 1)
	if err != nil {
		t.Fatalf("NewAOFWriter: %v", err)
	}
	// Overwhelm the tiny queue; Append must never block regardless of how
	// many records land while the writer goroutine is busy.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			w.Append("SET ^X=1")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Append blocked under queue pressure")
	}
	if err := w.Drain(2 * time.Second); err != nil {
		t.Fatalf("Drain: %v", err)
	}
}
