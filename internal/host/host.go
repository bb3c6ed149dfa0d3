// Package host snapshots the machine the monitor runs on. It is context
// for a run, not part of the recorded measurements.
package host

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

type State struct {
	Hostname        string    `json:"hostname"`
	Platform        string    `json:"platform"`
	KernelVersion   string    `json:"kernel_version"`
	CPUCount        int       `json:"cpu_count"`
	CPUUsagePercent float64   `json:"cpu_usage_percent"`
	MemoryUsedBytes uint64    `json:"memory_used_bytes"`
	MemoryTotal     uint64    `json:"memory_total_bytes"`
	MemoryPercent   float64   `json:"memory_usage_percent"`
	UptimeSeconds   uint64    `json:"uptime_seconds"`
	CollectedAt     time.Time `json:"collected_at"`
}

// Collect gathers identity, CPU and memory figures. CPU usage is measured
// since the previous call (0 on the first call in a process).
func Collect(ctx context.Context) (*State, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read host info: %w", err)
	}

	counts, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to count cpus: %w", err)
	}

	percentages, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return nil, fmt.Errorf("failed to read cpu usage: %w", err)
	}

	var usage float64
	if len(percentages) > 0 {
		usage = percentages[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read memory: %w", err)
	}

	return &State{
		Hostname:        info.Hostname,
		Platform:        info.Platform,
		KernelVersion:   info.KernelVersion,
		CPUCount:        counts,
		CPUUsagePercent: usage,
		MemoryUsedBytes: vm.Used,
		MemoryTotal:     vm.Total,
		MemoryPercent:   vm.UsedPercent,
		UptimeSeconds:   info.Uptime,
		CollectedAt:     time.Now(),
	}, nil
}
