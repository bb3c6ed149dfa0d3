// Package lifecycle wires the sampler, the log tailer, persistence and the
// optional status server into one run with a single final save.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/haskel/powermon/internal/metrics"
	"github.com/haskel/powermon/internal/monitor"
	"github.com/haskel/powermon/internal/progress"
	"github.com/haskel/powermon/internal/storage"
	"github.com/haskel/powermon/internal/summary"
	"github.com/haskel/powermon/internal/tailer"
)

var (
	// ErrAlreadyStarted is returned when Run is called more than once.
	ErrAlreadyStarted = errors.New("controller already started")

	// ErrSamplingPanic wraps a panic recovered from the sampling loop.
	ErrSamplingPanic = errors.New("sampling loop panicked")
)

// Runner is a long-lived task that stops when its context is cancelled.
type Runner interface {
	Run(ctx context.Context) error
}

// Components are the collaborators of one run. Metrics and Tailer may be
// nil.
type Components struct {
	Tracker   *progress.Tracker
	Collector *monitor.Collector
	Tailer    Runner
	Writer    *storage.Writer
	Metrics   *metrics.Metrics
}

type Controller struct {
	components Components
	checkpoint time.Duration
	services   []Runner
	logger     *slog.Logger

	// now is replaceable in tests.
	now func() time.Time

	state    atomic.Int32
	saveOnce sync.Once
	saveErr  error
}

// New creates a controller in StateInit. A checkpoint interval of zero
// disables periodic saves.
func New(c Components, checkpoint time.Duration, logger *slog.Logger) *Controller {
	return &Controller{
		components: c,
		checkpoint: checkpoint,
		logger:     logger,
		now:        time.Now,
	}
}

// AddService registers an auxiliary task, such as the status server, that
// runs alongside sampling. Service errors are logged and never end the run.
// Must be called before Run.
func (c *Controller) AddService(s Runner) {
	c.services = append(c.services, s)
}

func (c *Controller) State() State {
	return State(c.state.Load())
}

// Run samples until ctx is cancelled, then performs the final save. The
// returned error is non-nil only if the sampling loop failed; a failed save
// is logged and available from SaveErr.
func (c *Controller) Run(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(StateInit), int32(StateRunning)) {
		return ErrAlreadyStarted
	}

	c.logger.Info("monitoring started", "output", c.components.Writer.Path())

	g, gctx := errgroup.WithContext(ctx)

	go func() {
		<-gctx.Done()
		c.state.CompareAndSwap(int32(StateRunning), int32(StateStopping))
	}()

	g.Go(func() error {
		return c.runCollector(gctx)
	})

	if c.components.Tailer != nil {
		g.Go(func() error {
			c.runTailer(gctx)
			return nil
		})
	}

	if c.checkpoint > 0 {
		g.Go(func() error {
			c.runCheckpoints(gctx)
			return nil
		})
	}

	for _, s := range c.services {
		g.Go(func() error {
			if err := s.Run(gctx); err != nil {
				c.logger.Error("service stopped with error", "error", err)
			}
			return nil
		})
	}

	loopErr := g.Wait()
	c.state.Store(int32(StateStopping))

	c.finalSave()
	c.state.Store(int32(StateStopped))

	if loopErr != nil {
		c.logger.Error("monitoring stopped with error", "error", loopErr)
		return loopErr
	}

	c.logger.Info("monitoring stopped",
		"measurements", c.components.Collector.Len(),
		"output", c.components.Writer.Path(),
	)
	return nil
}

// SaveErr returns the error of the final save, if it failed.
func (c *Controller) SaveErr() error {
	return c.saveErr
}

func (c *Controller) runCollector(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("sampling loop panicked",
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("%w: %v", ErrSamplingPanic, r)
		}
	}()

	return c.components.Collector.Run(ctx)
}

// runTailer never fails the run: a missing or unreadable log only stops
// progress tracking.
func (c *Controller) runTailer(ctx context.Context) {
	err := c.components.Tailer.Run(ctx)
	switch {
	case err == nil, errors.Is(err, tailer.ErrLogMissing):
	default:
		c.logger.Warn("log tailing stopped, sampling continues", "error", err)
	}
}

func (c *Controller) runCheckpoints(ctx context.Context) {
	ticker := time.NewTicker(c.checkpoint)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.save("checkpoint")
		}
	}
}

func (c *Controller) finalSave() {
	c.saveOnce.Do(func() {
		c.saveErr = c.save("final")
	})
}

func (c *Controller) save(kind string) error {
	doc := c.document()
	err := c.components.Writer.Save(doc)
	if c.components.Metrics != nil {
		c.components.Metrics.ObserveSave(err)
	}
	if err == nil {
		c.logger.Info("results saved",
			"kind", kind,
			"measurements", len(doc.Measurements),
		)
	}
	return err
}

func (c *Controller) document() storage.Document {
	records := c.components.Collector.Records()
	p := c.components.Tracker.Snapshot()
	return storage.NewDocument(records, p, summary.Summarize(records, p), c.components.Collector.StartTime(), c.now())
}
