package telemetry

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const fieldCount = 3

// ParseLine parses "power, memory, utilization". Surrounding whitespace is
// ignored; anything other than a single line of three finite, non-negative
// floats is an error.
func ParseLine(output string) (Reading, error) {
	line := strings.TrimSpace(output)
	if line == "" {
		return Zero, fmt.Errorf("empty telemetry output")
	}
	if strings.ContainsAny(line, "\r\n") {
		return Zero, fmt.Errorf("expected a single line of telemetry output, got %q", line)
	}

	fields := strings.Split(line, ",")
	if len(fields) != fieldCount {
		return Zero, fmt.Errorf("expected %d fields, got %d in %q", fieldCount, len(fields), line)
	}

	values := make([]float64, fieldCount)
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return Zero, fmt.Errorf("field %d: %w", i, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return Zero, fmt.Errorf("field %d: value %v out of range", i, v)
		}
		values[i] = v
	}

	return Reading{
		PowerDrawWatts: values[0],
		MemoryUsedMiB:  values[1],
		GPUUtilPercent: values[2],
	}, nil
}
