// Package monitor runs the sampling loop that turns telemetry readings and
// progress snapshots into an append-only sequence of records.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/haskel/powermon/internal/progress"
	"github.com/haskel/powermon/internal/telemetry"
)

const DefaultInterval = time.Second

type Collector struct {
	reader   telemetry.Reader
	tracker  *progress.Tracker
	interval time.Duration
	logger   *slog.Logger

	// now is replaceable in tests.
	now func() time.Time

	start time.Time
	last  time.Time

	mu      sync.RWMutex
	records []Record
}

func NewCollector(reader telemetry.Reader, tracker *progress.Tracker, interval time.Duration, logger *slog.Logger) *Collector {
	if interval <= 0 {
		interval = DefaultInterval
	}

	now := time.Now()
	return &Collector{
		reader:   reader,
		tracker:  tracker,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		start:    now,
		last:     now,
	}
}

// Run ticks until ctx is cancelled. Timestamps are relative to the moment
// Run is called. The period is not corrected for slow
// ticks: each tick is followed by a full interval of sleep.
func (c *Collector) Run(ctx context.Context) error {
	c.mu.Lock()
	c.start = c.now()
	c.last = c.start
	c.mu.Unlock()

	c.logger.Info("sampling started", "interval", c.interval)

	timer := time.NewTimer(c.interval)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			break
		}

		c.Tick(ctx)

		timer.Reset(c.interval)
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}

	c.logger.Info("sampling stopped", "records", c.Len())
	return nil
}

// Tick takes one sample and appends it. The telemetry call is detached
// from ctx cancellation so a tick that has started always completes.
// Tick must not run concurrently with itself or with Run.
func (c *Collector) Tick(ctx context.Context) Record {
	now := c.now()
	reading := c.reader.Read(context.WithoutCancel(ctx))
	snap := c.tracker.Snapshot()

	record := NewRecord(
		now.Sub(c.start).Seconds(),
		now.Sub(c.last).Seconds(),
		reading,
		snap,
	)
	c.last = now

	c.mu.Lock()
	c.records = append(c.records, record)
	c.mu.Unlock()

	c.logger.Debug("sample recorded",
		"timestamp", record.Timestamp,
		"power_draw", record.PowerDraw,
		"memory_used", record.MemoryUsed,
		"gpu_utilization", record.GPUUtilization,
		"examples_evaluated", record.ExamplesEvaluated,
	)

	return record
}

// Records returns a copy of everything collected so far.
func (c *Collector) Records() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

func (c *Collector) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

func (c *Collector) Latest() (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.records) == 0 {
		return Record{}, false
	}
	return c.records[len(c.records)-1], true
}

// StartTime is the reference point for record timestamps: the start of
// Run, or construction time before Run is called.
func (c *Collector) StartTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.start
}
