package tailer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haskel/powermon/internal/progress"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func appendLine(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("failed to open log for append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
}

func waitFor(t *testing.T, tr *progress.Tracker, want progress.Snapshot) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if tr.Snapshot() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %+v, last %+v", want, tr.Snapshot())
}

type runner struct {
	cancel context.CancelFunc
	done   chan error
}

func start(t *testing.T, tl *Tailer) *runner {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	r := &runner{cancel: cancel, done: make(chan error, 1)}
	go func() { r.done <- tl.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-r.done
	})
	// Let Run open and seek before lines are appended.
	time.Sleep(50 * time.Millisecond)
	return r
}

func (r *runner) stop(t *testing.T) error {
	t.Helper()
	r.cancel()
	select {
	case err := <-r.done:
		r.done <- err
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("tailer did not stop after cancellation")
		return nil
	}
}

func newLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eval.log")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create log: %v", err)
	}
	return path
}

func TestTailer_MissingFile(t *testing.T) {
	tr := progress.NewTracker()
	tl := New(filepath.Join(t.TempDir(), "missing.log"), tr, Options{}, testLogger())

	start := time.Now()
	err := tl.Run(context.Background())

	if !errors.Is(err, ErrLogMissing) {
		t.Fatalf("expected ErrLogMissing, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("missing file should return immediately")
	}
	if tr.Snapshot() != (progress.Snapshot{}) {
		t.Error("tracker should be untouched")
	}
}

func TestTailer_FollowsAppendedLines(t *testing.T) {
	for _, watch := range []bool{false, true} {
		name := "poll"
		if watch {
			name = "watch"
		}
		t.Run(name, func(t *testing.T) {
			path := newLog(t, "")
			tr := progress.NewTracker()
			tl := New(path, tr, Options{PollInterval: 20 * time.Millisecond, Watch: watch}, testLogger())
			r := start(t, tl)

			appendLine(t, path, "Evaluated 5 examples, 120 tokens, Task: sort_list\n")
			waitFor(t, tr, progress.Snapshot{ExamplesEvaluated: 5, TokensGenerated: 120, CurrentTask: "sort_list"})

			appendLine(t, path, "Evaluated 3 examples\n")
			appendLine(t, path, "40 tokens\n")
			appendLine(t, path, "Task: two_sum\n")
			waitFor(t, tr, progress.Snapshot{ExamplesEvaluated: 8, TokensGenerated: 160, CurrentTask: "two_sum"})

			if err := r.stop(t); err != nil {
				t.Errorf("expected nil on cancellation, got %v", err)
			}
		})
	}
}

func TestTailer_StartsAtEndByDefault(t *testing.T) {
	path := newLog(t, "Evaluated 100 examples\nTask: old_task\n")
	tr := progress.NewTracker()
	tl := New(path, tr, Options{PollInterval: 20 * time.Millisecond}, testLogger())
	start(t, tl)

	appendLine(t, path, "Evaluated 1 examples\n")
	waitFor(t, tr, progress.Snapshot{ExamplesEvaluated: 1})
}

func TestTailer_FromStart(t *testing.T) {
	path := newLog(t, "Evaluated 100 examples\nTask: old_task\n")
	tr := progress.NewTracker()
	tl := New(path, tr, Options{PollInterval: 20 * time.Millisecond, FromStart: true}, testLogger())
	start(t, tl)

	waitFor(t, tr, progress.Snapshot{ExamplesEvaluated: 100, CurrentTask: "old_task"})
}

func TestTailer_BuffersPartialLines(t *testing.T) {
	path := newLog(t, "")
	tr := progress.NewTracker()
	tl := New(path, tr, Options{PollInterval: 10 * time.Millisecond}, testLogger())
	start(t, tl)

	appendLine(t, path, "Evaluated 1")
	// Several polls see the incomplete line.
	time.Sleep(60 * time.Millisecond)
	if got := tr.Snapshot().ExamplesEvaluated; got != 0 {
		t.Fatalf("partial line must not be parsed, got %d", got)
	}

	appendLine(t, path, "2 examples\n")
	waitFor(t, tr, progress.Snapshot{ExamplesEvaluated: 12})
}

func TestTailer_ParsesTrailingLineOnStop(t *testing.T) {
	path := newLog(t, "")
	tr := progress.NewTracker()
	tl := New(path, tr, Options{PollInterval: 10 * time.Millisecond}, testLogger())
	r := start(t, tl)

	appendLine(t, path, "Evaluated 7 examples")
	time.Sleep(60 * time.Millisecond)
	if got := tr.Snapshot().ExamplesEvaluated; got != 0 {
		t.Fatalf("unterminated line parsed while running, got %d", got)
	}

	if err := r.stop(t); err != nil {
		t.Fatalf("expected nil on cancellation, got %v", err)
	}
	if got := tr.Snapshot().ExamplesEvaluated; got != 7 {
		t.Errorf("trailing line should be parsed on stop, got %d", got)
	}
}

func TestTailer_Truncation(t *testing.T) {
	path := newLog(t, "")
	tr := progress.NewTracker()
	tl := New(path, tr, Options{PollInterval: 10 * time.Millisecond}, testLogger())
	start(t, tl)

	appendLine(t, path, "Evaluated 4 examples -- padding to make this line long\n")
	waitFor(t, tr, progress.Snapshot{ExamplesEvaluated: 4})

	if err := os.WriteFile(path, []byte("Evaluated 1 examples\n"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, tr, progress.Snapshot{ExamplesEvaluated: 5})
}

func TestTailer_OnMatch(t *testing.T) {
	path := newLog(t, "")
	tr := progress.NewTracker()

	var count atomic.Int32
	tl := New(path, tr, Options{
		PollInterval: 10 * time.Millisecond,
		OnMatch:      func(progress.Match) { count.Add(1) },
	}, testLogger())
	start(t, tl)

	appendLine(t, path, "Evaluated 5 examples, 120 tokens, Task: sort_list\n")
	waitFor(t, tr, progress.Snapshot{ExamplesEvaluated: 5, TokensGenerated: 120, CurrentTask: "sort_list"})

	if got := count.Load(); got != 3 {
		t.Errorf("expected 3 match callbacks, got %d", got)
	}
}

func TestTailer_ReadErrorStopsTailing(t *testing.T) {
	// Opening a directory succeeds but reading from it fails.
	dir := t.TempDir()
	tl := New(dir, progress.NewTracker(), Options{FromStart: true}, testLogger())

	done := make(chan error, 1)
	go func() { done <- tl.Run(context.Background()) }()

	select {
	case err := <-done:
		if err == nil || errors.Is(err, ErrLogMissing) {
			t.Errorf("expected read error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tailer should exit on read error")
	}
}

func TestNew_DefaultPollInterval(t *testing.T) {
	tl := New("x", progress.NewTracker(), Options{}, testLogger())
	if tl.opts.PollInterval != DefaultPollInterval {
		t.Errorf("expected default poll interval, got %s", tl.opts.PollInterval)
	}
}
