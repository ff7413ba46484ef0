package server

import (
	"bufio"
	"strings"
	"testing"

	"github.com/cuemby/mumpsdb/pkg/authz"
	"github.com/cuemby/mumpsdb/pkg/executor"
	"github.com/cuemby/mumpsdb/pkg/store"
)

func TestRunSessionEmitsBannerPromptAndResponses(t *testing.T) {
	exec := executor.NewExecutor(store.New())
	in := strings.NewReader("SET ^A=1\nGET ^A\nEXIT\n")
	var out strings.Builder

	runSession(exec, authz.SessionInfo{SessionID: "t1"}, in, &out)

	lines := splitLines(out.String())
	if lines[0] != banner {
		t.Fatalf("expected banner first, got %q", lines[0])
	}

	joined := out.String()
	if !strings.Contains(joined, "OK") {
		t.Errorf("expected OK in output, got %q", joined)
	}
	if !strings.Contains(joined, "1") {
		t.Errorf("expected GET result '1' in output, got %q", joined)
	}
	if !strings.Contains(joined, "BYE") {
		t.Errorf("expected BYE before disconnect, got %q", joined)
	}
}

func TestRunSessionStopsAfterExit(t *testing.T) {
	exec := executor.NewExecutor(store.New())
	in := strings.NewReader("EXIT\nSET ^A=1\n")
	var out strings.Builder

	runSession(exec, authz.SessionInfo{SessionID: "t2"}, in, &out)

	if strings.Contains(out.String(), "^A") {
		t.Errorf("commands after EXIT should not run, got %q", out.String())
	}
}

func splitLines(s string) []string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(s))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}
