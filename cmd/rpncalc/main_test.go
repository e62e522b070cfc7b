package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/lemonberrylabs/rpncalc/pkg/config"
)

func init() {
	color.NoColor = true
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("RPNCALC_CONFIG", "")
	t.Setenv("HISTORY_DB", "")

	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEvalCommand(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"eval", "3 + 4 * 2"}, "3 4 2 * +\n11\n"},
		{[]string{"eval", "(", "1", "+", "2", ")", "POW", "2"}, "1 2 + 2 POW\n9\n"},
		{[]string{"eval", "1 / 3"}, "1 3 /\n0.3333\n"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args[1:], " "), func(t *testing.T) {
			got, err := execute(t, "", tt.args...)
			if err != nil {
				t.Fatalf("eval: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEvalCommandRejects(t *testing.T) {
	_, err := execute(t, "", "eval", "1 +")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "Not a valid input, Unable to pop 2 operands from stack" {
		t.Errorf("got %q", err.Error())
	}
}

func TestShellIsDefault(t *testing.T) {
	got, err := execute(t, "2 * 3\nquit\n")
	if err != nil {
		t.Fatalf("shell: %v", err)
	}
	want := "Please enter infix equation\n2 3 *\n6\nPlease enter infix equation\nThank you for using our RPN Calculator\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestHistoryCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	if _, err := execute(t, "", "--history-db", db, "eval", "6 / 4"); err != nil {
		t.Fatalf("eval: %v", err)
	}
	execute(t, "", "--history-db", db, "eval", "6 ? 4")

	got, err := execute(t, "", "--history-db", db, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), got)
	}
	if !strings.Contains(lines[0], "FAILED") || !strings.Contains(lines[0], "Unknown Operator ?") {
		t.Errorf("unexpected newest line %q", lines[0])
	}
	if !strings.Contains(lines[1], "SUCCEEDED") || !strings.Contains(lines[1], "= 1.5") {
		t.Errorf("unexpected oldest line %q", lines[1])
	}

	got, _ = execute(t, "", "--history-db", db, "history", "--limit", "1")
	if n := len(strings.Split(strings.TrimSpace(got), "\n")); n != 1 {
		t.Errorf("got %d lines with --limit 1, want 1", n)
	}
}

func TestHistoryRequiresDatabase(t *testing.T) {
	if _, err := execute(t, "", "history"); err == nil {
		t.Fatal("expected error without a history database")
	}
}

func TestOpenHistory(t *testing.T) {
	history, err := openHistory(config.Default())
	if err != nil {
		t.Fatalf("openHistory: %v", err)
	}
	if history != nil {
		t.Fatalf("expected no history backend without a database, got %T", history)
	}

	cfg := config.Default()
	cfg.HistoryDB = filepath.Join(t.TempDir(), "history.db")
	history, err = openHistory(cfg)
	if err != nil {
		t.Fatalf("openHistory: %v", err)
	}
	defer history.Close()
	if history == nil {
		t.Fatal("expected a history backend for a configured database")
	}
}

func TestShellWithoutDatabase(t *testing.T) {
	got, err := execute(t, "1 + 1\n2 3\n")
	if err != nil {
		t.Fatalf("shell: %v", err)
	}
	if !strings.Contains(got, "1 1 +\n2\n") || !strings.Contains(got, "Missing extra operator") {
		t.Errorf("unexpected output %q", got)
	}
}
