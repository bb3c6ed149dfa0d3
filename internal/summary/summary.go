// Package summary derives aggregate statistics from a run's records.
package summary

import (
	"github.com/haskel/powermon/internal/monitor"
	"github.com/haskel/powermon/internal/progress"
)

// Summary holds the aggregates written next to the measurements.
// MeasurementCount and TotalDurationSeconds are omitted for an empty run;
// readers treat their absence as zero.
type Summary struct {
	TotalExamples        int64   `json:"total_examples"`
	TotalTokens          int64   `json:"total_tokens"`
	AvgPower             float64 `json:"avg_power"`
	MaxPower             float64 `json:"max_power"`
	MaxMemory            float64 `json:"max_memory"`
	AvgGPUUtil           float64 `json:"avg_gpu_util"`
	MeasurementCount     int     `json:"measurement_count,omitempty"`
	TotalDurationSeconds float64 `json:"total_duration_seconds,omitempty"`
}

// Summarize recomputes the summary from scratch. Totals come from p, the
// live tracker state, which may run slightly ahead of the last record.
func Summarize(records []monitor.Record, p progress.Snapshot) Summary {
	if len(records) == 0 {
		return Summary{}
	}

	var sumPower, sumUtil, maxPower, maxMemory float64
	for i, r := range records {
		sumPower += r.PowerDraw
		sumUtil += r.GPUUtilization
		if i == 0 || r.PowerDraw > maxPower {
			maxPower = r.PowerDraw
		}
		if i == 0 || r.MemoryUsed > maxMemory {
			maxMemory = r.MemoryUsed
		}
	}

	n := float64(len(records))
	return Summary{
		TotalExamples:        p.ExamplesEvaluated,
		TotalTokens:          p.TokensGenerated,
		AvgPower:             sumPower / n,
		MaxPower:             maxPower,
		MaxMemory:            maxMemory,
		AvgGPUUtil:           sumUtil / n,
		MeasurementCount:     len(records),
		TotalDurationSeconds: records[len(records)-1].Timestamp,
	}
}

// Equal reports whether the statistical fields of two summaries match
// within tolerance. Counts and totals must match exactly.
func (s Summary) Equal(o Summary, tolerance float64) bool {
	return s.TotalExamples == o.TotalExamples &&
		s.TotalTokens == o.TotalTokens &&
		s.MeasurementCount == o.MeasurementCount &&
		near(s.AvgPower, o.AvgPower, tolerance) &&
		near(s.MaxPower, o.MaxPower, tolerance) &&
		near(s.MaxMemory, o.MaxMemory, tolerance) &&
		near(s.AvgGPUUtil, o.AvgGPUUtil, tolerance) &&
		near(s.TotalDurationSeconds, o.TotalDurationSeconds, tolerance)
}

func near(a, b, tolerance float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}
