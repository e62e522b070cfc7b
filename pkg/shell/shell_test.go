package shell

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/lemonberrylabs/rpncalc/pkg/store"
)

func init() {
	color.NoColor = true
}

func runShell(t *testing.T, input string, history store.Backend) []string {
	t.Helper()
	var out bytes.Buffer
	if err := New(strings.NewReader(input), &out, history).Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
}

func TestShellSession(t *testing.T) {
	lines := runShell(t, "2 + 2\n( 3 + 4 ) * 2\n5 & 3\nquit\n2 + 2\n", nil)

	want := []string{
		Greeting,
		"2 2 +",
		"4",
		Greeting,
		"3 4 + 2 *",
		"14",
		Greeting,
		"Not a valid input, Unknown Operator &",
		Greeting,
		Farewell,
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), strings.Join(lines, "\n"))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestShellEndOfInput(t *testing.T) {
	lines := runShell(t, "1 / 8", nil)
	want := []string{Greeting, "1 8 /", "0.125", Greeting, Farewell}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("got %q, want %q", lines, want)
	}
}

func TestShellQuitIsExact(t *testing.T) {
	lines := runShell(t, " quit\nQUIT\nquit\n", nil)
	// " quit" tokenizes to q (unknown); "QUIT" likewise fails on Q.
	if lines[1] != "Not a valid input, Unknown Operator q" {
		t.Errorf("got %q", lines[1])
	}
	if lines[3] != "Not a valid input, Unknown Operator Q" {
		t.Errorf("got %q", lines[3])
	}
	if lines[len(lines)-1] != Farewell {
		t.Errorf("expected farewell, got %q", lines[len(lines)-1])
	}
}

func TestShellRecordsHistory(t *testing.T) {
	history := store.New()
	runShell(t, "1 + 1\n1 2\nquit\n", history)

	evs, err := history.List(0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(evs) != 2 {
		t.Fatalf("got %d evaluations, want 2", len(evs))
	}
	failed := 0
	for _, ev := range evs {
		if ev.Source != store.SourceShell {
			t.Errorf("got source %q", ev.Source)
		}
		if ev.State == store.EvaluationFailed {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("got %d failed evaluations, want 1", failed)
	}
}
