// Package telemetry reads accelerator power, memory and utilization from an
// external command. A failed read never aborts a run: it degrades to a zero
// reading and a diagnostic.
package telemetry

import "context"

// Reading is one sample from the telemetry source.
type Reading struct {
	PowerDrawWatts float64 `json:"power_draw"`
	MemoryUsedMiB  float64 `json:"memory_used"`
	GPUUtilPercent float64 `json:"gpu_utilization"`
}

// Zero is returned whenever the source cannot be read.
var Zero = Reading{}

type Reader interface {
	Read(ctx context.Context) Reading
}

// ReaderFunc adapts a plain function to Reader.
type ReaderFunc func(ctx context.Context) Reading

func (f ReaderFunc) Read(ctx context.Context) Reading {
	return f(ctx)
}
