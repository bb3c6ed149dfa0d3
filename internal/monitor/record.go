package monitor

import (
	"github.com/haskel/powermon/internal/progress"
	"github.com/haskel/powermon/internal/telemetry"
)

// Record is one tick: a telemetry reading merged with the progress
// snapshot taken at the same tick. Field order is the persisted order.
type Record struct {
	Timestamp         float64 `json:"timestamp"`
	PowerDraw         float64 `json:"power_draw"`
	MemoryUsed        float64 `json:"memory_used"`
	GPUUtilization    float64 `json:"gpu_utilization"`
	Interval          float64 `json:"interval"`
	ExamplesEvaluated int64   `json:"examples_evaluated"`
	TokensGenerated   int64   `json:"tokens_generated"`
	CurrentTask       string  `json:"current_task"`
}

func NewRecord(timestamp, interval float64, r telemetry.Reading, p progress.Snapshot) Record {
	return Record{
		Timestamp:         timestamp,
		PowerDraw:         r.PowerDrawWatts,
		MemoryUsed:        r.MemoryUsedMiB,
		GPUUtilization:    r.GPUUtilPercent,
		Interval:          interval,
		ExamplesEvaluated: p.ExamplesEvaluated,
		TokensGenerated:   p.TokensGenerated,
		CurrentTask:       p.CurrentTask,
	}
}

// Progress returns the progress fields of the record.
func (r Record) Progress() progress.Snapshot {
	return progress.Snapshot{
		ExamplesEvaluated: r.ExamplesEvaluated,
		TokensGenerated:   r.TokensGenerated,
		CurrentTask:       r.CurrentTask,
	}
}
