package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/lemonberrylabs/rpncalc/pkg/calc"
	"github.com/lemonberrylabs/rpncalc/pkg/types"
)

// backends returns one of each Backend, closed at test end.
func backends(t *testing.T) map[string]Backend {
	t.Helper()
	sqlStore, err := OpenSQL(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	t.Cleanup(func() { sqlStore.Close() })

	return map[string]Backend{
		"memory": New(),
		"sql":    sqlStore,
	}
}

func record(t *testing.T, b Backend, input string, at time.Time) *Evaluation {
	t.Helper()
	out, err := calc.Run(input)
	ev := NewEvaluation(input, out, err, SourceShell)
	ev.CreateTime = at
	saved, err := b.Record(ev)
	if err != nil {
		t.Fatalf("Record(%q): %v", input, err)
	}
	return saved
}

func TestRecordAndGet(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ok := record(t, b, "3 + 4 * 2", time.Now())
			if ok.ID == "" {
				t.Fatal("expected an ID to be assigned")
			}

			got, err := b.Get(ok.ID)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.State != EvaluationSucceeded {
				t.Errorf("got state %s, want SUCCEEDED", got.State)
			}
			if got.Postfix != "3 4 2 * +" || got.Result != "11" {
				t.Errorf("got postfix=%q result=%q", got.Postfix, got.Result)
			}
			if got.Source != SourceShell {
				t.Errorf("got source %q", got.Source)
			}

			bad := record(t, b, "5 & 3", time.Now())
			got, err = b.Get(bad.ID)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.State != EvaluationFailed {
				t.Errorf("got state %s, want FAILED", got.State)
			}
			if got.Error == nil {
				t.Fatal("expected error details")
			}
			if got.Error.Message != "Not a valid input, Unknown Operator &" {
				t.Errorf("got message %q", got.Error.Message)
			}
			if len(got.Error.Tags) != 2 || got.Error.Tags[0] != types.TagParseError {
				t.Errorf("got tags %v", got.Error.Tags)
			}
		})
	}
}

func TestGetNotFound(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := b.Get("does-not-exist")
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestListNewestFirst(t *testing.T) {
	base := time.Now().Add(-time.Hour)
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			record(t, b, "1 + 1", base)
			record(t, b, "2 + 2", base.Add(time.Minute))
			record(t, b, "3 + 3", base.Add(2*time.Minute))

			all, err := b.List(0)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(all) != 3 {
				t.Fatalf("got %d evaluations, want 3", len(all))
			}
			if all[0].Expression != "3 + 3" || all[2].Expression != "1 + 1" {
				t.Errorf("unexpected order: %q, %q, %q", all[0].Expression, all[1].Expression, all[2].Expression)
			}

			two, err := b.List(2)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(two) != 2 {
				t.Errorf("got %d evaluations, want 2", len(two))
			}
		})
	}
}

func TestPrune(t *testing.T) {
	now := time.Now()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			old := record(t, b, "1 + 1", now.Add(-48*time.Hour))
			fresh := record(t, b, "2 + 2", now)

			n, err := b.Prune(now.Add(-24 * time.Hour))
			if err != nil {
				t.Fatalf("Prune: %v", err)
			}
			if n != 1 {
				t.Errorf("pruned %d, want 1", n)
			}
			if _, err := b.Get(old.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected pruned record to be gone, got %v", err)
			}
			if _, err := b.Get(fresh.ID); err != nil {
				t.Errorf("expected fresh record to remain: %v", err)
			}
		})
	}
}

func TestRetentionRunOnce(t *testing.T) {
	s := New()
	now := time.Now()
	record(t, s, "1 + 1", now.Add(-2*time.Hour))
	record(t, s, "2 + 2", now)

	r := NewRetention(s, time.Hour, time.Minute)
	r.now = func() time.Time { return now }

	n, err := r.RunOnce()
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}

	// A prune already in flight makes RunOnce a no-op.
	r.running.Set()
	record(t, s, "3 + 3", now.Add(-3*time.Hour))
	if n, _ := r.RunOnce(); n != 0 {
		t.Errorf("pruned %d while another prune was running, want 0", n)
	}
}

func TestRetentionStartStop(t *testing.T) {
	var disabled *Retention
	if err := disabled.Stop(); err != nil {
		t.Fatalf("Stop on nil Retention: %v", err)
	}

	r := NewRetention(New(), time.Hour, time.Hour)
	if err := r.Stop(); err != nil {
		t.Fatalf("Stop before Start: %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestListTiesKeepInsertionOrder(t *testing.T) {
	at := time.Now()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			record(t, b, "1 + 1", at)
			record(t, b, "2 + 2", at)

			all, err := b.List(0)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(all) != 2 || all[0].Expression != "2 + 2" {
				t.Errorf("expected later insert first, got %v", all)
			}
		})
	}
}
