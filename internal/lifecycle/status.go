package lifecycle

import (
	"time"

	"github.com/haskel/powermon/internal/monitor"
	"github.com/haskel/powermon/internal/progress"
	"github.com/haskel/powermon/internal/summary"
)

// Status is a point-in-time view of a run for the status endpoint and the
// dashboard.
type Status struct {
	State          string            `json:"state"`
	StartedAt      time.Time         `json:"started_at"`
	ElapsedSeconds float64           `json:"elapsed_seconds"`
	Output         string            `json:"output"`
	Measurements   int               `json:"measurements"`
	Progress       progress.Snapshot `json:"progress"`
	Summary        summary.Summary   `json:"summary"`
	Latest         *monitor.Record   `json:"latest,omitempty"`
}

func (c *Controller) Status() Status {
	records := c.components.Collector.Records()
	p := c.components.Tracker.Snapshot()
	start := c.components.Collector.StartTime()

	st := Status{
		State:          c.State().String(),
		StartedAt:      start,
		ElapsedSeconds: c.now().Sub(start).Seconds(),
		Output:         c.components.Writer.Path(),
		Measurements:   len(records),
		Progress:       p,
		Summary:        summary.Summarize(records, p),
	}

	if len(records) > 0 {
		latest := records[len(records)-1]
		st.Latest = &latest
	}

	return st
}
