// Package tailer follows an append-only evaluation log and feeds recognized
// progress lines into a progress.Tracker.
package tailer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/haskel/powermon/internal/progress"
)

const DefaultPollInterval = 100 * time.Millisecond

// ErrLogMissing is returned by Run when the log does not exist at start.
// It is not fatal to a monitoring run.
var ErrLogMissing = errors.New("evaluation log not found")

type Options struct {
	PollInterval time.Duration
	// FromStart processes lines already in the file. Otherwise tailing
	// begins at the current end.
	FromStart bool
	// Watch adds fsnotify wake-ups so new lines are seen before the next
	// poll.
	Watch bool
	// OnMatch, if set, is called after each match is applied.
	OnMatch func(progress.Match)
}

type Tailer struct {
	path    string
	tracker *progress.Tracker
	opts    Options
	logger  *slog.Logger
}

func New(path string, tracker *progress.Tracker, opts Options, logger *slog.Logger) *Tailer {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	return &Tailer{
		path:    path,
		tracker: tracker,
		opts:    opts,
		logger:  logger,
	}
}

// Run tails the log until ctx is cancelled. It returns nil on
// cancellation, ErrLogMissing if the file does not exist, and a wrapped
// error if reading fails.
func (t *Tailer) Run(ctx context.Context) error {
	file, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			t.logger.Warn("eval log file not found, progress will stay empty", "path", t.path)
			return ErrLogMissing
		}
		t.logger.Error("failed to open eval log", "path", t.path, "error", err)
		return fmt.Errorf("failed to open eval log: %w", err)
	}
	defer file.Close()

	var offset int64
	if !t.opts.FromStart {
		offset, err = file.Seek(0, io.SeekEnd)
		if err != nil {
			t.logger.Error("failed to seek eval log", "path", t.path, "error", err)
			return fmt.Errorf("failed to seek eval log: %w", err)
		}
	}

	wake := t.watch(ctx)

	t.logger.Info("tailing eval log",
		"path", t.path,
		"offset", offset,
		"poll_interval", t.opts.PollInterval,
		"watch", wake != nil,
	)

	reader := bufio.NewReader(file)
	var pending []byte

	timer := time.NewTimer(t.opts.PollInterval)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			t.flush(pending)
			return nil
		}

		chunk, err := reader.ReadBytes('\n')
		offset += int64(len(chunk))
		pending = append(pending, chunk...)

		if err == nil {
			t.handleLine(string(pending))
			pending = pending[:0]
			continue
		}

		if !errors.Is(err, io.EOF) {
			t.logger.Error("error monitoring eval output", "path", t.path, "error", err)
			return fmt.Errorf("failed to read eval log: %w", err)
		}

		if t.truncated(file, offset) {
			t.logger.Info("eval log truncated, restarting from beginning", "path", t.path)
			if _, err := file.Seek(0, io.SeekStart); err != nil {
				return fmt.Errorf("failed to rewind eval log: %w", err)
			}
			reader.Reset(file)
			offset = 0
			pending = pending[:0]
			continue
		}

		// No complete line yet: wait for the producer.
		timer.Reset(t.opts.PollInterval)
		select {
		case <-ctx.Done():
			t.flush(pending)
			return nil
		case <-wake:
		case <-timer.C:
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}
}

// flush parses a final line that never got its newline.
func (t *Tailer) flush(pending []byte) {
	if len(pending) > 0 {
		t.handleLine(string(pending))
	}
}

func (t *Tailer) handleLine(line string) {
	for _, m := range progress.ParseLine(line) {
		t.tracker.RecordMatch(m)
		if t.opts.OnMatch != nil {
			t.opts.OnMatch(m)
		}
		t.logger.Debug("progress match", "kind", m.Kind.String(), "count", m.Count, "label", m.Label)
	}
}

func (t *Tailer) truncated(file *os.File, offset int64) bool {
	info, err := file.Stat()
	if err != nil {
		return false
	}
	return info.Size() < offset
}

// watch returns a channel that receives after write events on the log, or
// nil when watching is disabled or unavailable. A nil channel never fires,
// leaving the poll timer in charge.
func (t *Tailer) watch(ctx context.Context) <-chan struct{} {
	if !t.opts.Watch {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		t.logger.Debug("fsnotify unavailable, polling only", "error", err)
		return nil
	}

	if err := watcher.Add(t.path); err != nil {
		t.logger.Debug("failed to watch eval log, polling only", "path", t.path, "error", err)
		watcher.Close()
		return nil
	}

	wake := make(chan struct{}, 1)

	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				select {
				case wake <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				t.logger.Debug("eval log watcher error", "error", err)
			case <-ctx.Done():
				return
			}
		}
	}()

	return wake
}
