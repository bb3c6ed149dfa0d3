package telemetry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const DefaultTimeout = 5 * time.Second

// CommandReader runs an external command once per Read.
type CommandReader struct {
	command []string
	timeout time.Duration
	logger  *slog.Logger

	failures atomic.Uint64
	// A source that is down stays down; log the first few failures and
	// then at most once a minute.
	warnGate rate.Sometimes
}

func NewCommandReader(command []string, timeout time.Duration, logger *slog.Logger) *CommandReader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &CommandReader{
		command:  command,
		timeout:  timeout,
		logger:   logger,
		warnGate: rate.Sometimes{First: 3, Interval: time.Minute},
	}
}

// Read returns the current reading, or Zero if the command times out,
// fails, or prints something unparsable.
func (r *CommandReader) Read(ctx context.Context) Reading {
	reading, err := r.query(ctx)
	if err == nil {
		return reading
	}

	total := r.failures.Add(1)
	timedOut := errors.Is(err, context.DeadlineExceeded)

	r.logger.Debug("telemetry read failed", "error", err, "timeout", timedOut, "failures", total)
	r.warnGate.Do(func() {
		if timedOut {
			r.logger.Warn("telemetry command timed out",
				"command", r.name(),
				"timeout", r.timeout,
				"failures", total,
			)
			return
		}
		r.logger.Error("failed to read telemetry",
			"command", r.name(),
			"error", err,
			"failures", total,
		)
	})

	return Zero
}

// Failures reports how many reads fell back to Zero.
func (r *CommandReader) Failures() uint64 {
	return r.failures.Load()
}

func (r *CommandReader) query(ctx context.Context) (Reading, error) {
	if len(r.command) == 0 {
		return Zero, fmt.Errorf("no telemetry command configured")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.command[0], r.command[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Children that inherit the pipes must not hold Wait past the deadline.
	cmd.WaitDelay = 100 * time.Millisecond

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Zero, fmt.Errorf("telemetry command: %w", ctxErr)
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return Zero, fmt.Errorf("telemetry command failed: %w: %s", err, msg)
		}
		return Zero, fmt.Errorf("telemetry command failed: %w", err)
	}

	reading, err := ParseLine(stdout.String())
	if err != nil {
		return Zero, fmt.Errorf("failed to parse telemetry output: %w", err)
	}

	return reading, nil
}

func (r *CommandReader) name() string {
	if len(r.command) == 0 {
		return ""
	}
	return r.command[0]
}
