package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/haskel/powermon/internal/monitor"
	"github.com/haskel/powermon/internal/progress"
)

type fakeRecords struct {
	records []monitor.Record
}

func (f *fakeRecords) Latest() (monitor.Record, bool) {
	if len(f.records) == 0 {
		return monitor.Record{}, false
	}
	return f.records[len(f.records)-1], true
}

func (f *fakeRecords) Len() int { return len(f.records) }

func TestMetrics_LiveState(t *testing.T) {
	records := &fakeRecords{}
	tracker := progress.NewTracker()
	var failures uint64

	m := New(Sources{
		Records:  records,
		Tracker:  tracker,
		Failures: func() uint64 { return failures },
	})

	if v := testutil.ToFloat64(m.powerDraw); v != 0 {
		t.Errorf("expected 0 power with no records, got %f", v)
	}

	records.records = append(records.records,
		monitor.Record{PowerDraw: 100, MemoryUsed: 1024, GPUUtilization: 40},
		monitor.Record{PowerDraw: 150, MemoryUsed: 2048, GPUUtilization: 80},
	)
	tracker.RecordMatch(progress.Match{Kind: progress.KindExamples, Count: 5})
	tracker.RecordMatch(progress.Match{Kind: progress.KindTokens, Count: 120})
	failures = 2

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"power_draw", testutil.ToFloat64(m.powerDraw), 150},
		{"memory_used", testutil.ToFloat64(m.memoryUsed), 2048},
		{"gpu_utilization", testutil.ToFloat64(m.gpuUtilization), 80},
		{"measurements", testutil.ToFloat64(m.measurements), 2},
		{"examples", testutil.ToFloat64(m.examples), 5},
		{"tokens", testutil.ToFloat64(m.tokens), 120},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %f, want %f", tt.name, tt.got, tt.want)
		}
	}

	expected := `
# HELP powermon_telemetry_failures_total Telemetry reads that fell back to a zero reading.
# TYPE powermon_telemetry_failures_total counter
powermon_telemetry_failures_total 2
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "powermon_telemetry_failures_total"); err != nil {
		t.Errorf("unexpected failures metric: %v", err)
	}
}

func TestMetrics_ObserveSaveAndMatch(t *testing.T) {
	m := New(Sources{Records: &fakeRecords{}, Tracker: progress.NewTracker()})

	m.ObserveSave(nil)
	m.ObserveSave(nil)
	m.ObserveSave(errors.New("disk full"))

	if v := testutil.ToFloat64(m.saves.WithLabelValues("ok")); v != 2 {
		t.Errorf("saves[ok] = %f, want 2", v)
	}
	if v := testutil.ToFloat64(m.saves.WithLabelValues("error")); v != 1 {
		t.Errorf("saves[error] = %f, want 1", v)
	}

	for _, match := range progress.ParseLine("Evaluated 5 examples, 120 tokens, Task: sort_list") {
		m.ObserveMatch(match)
	}
	for _, kind := range []string{"examples", "tokens", "task"} {
		if v := testutil.ToFloat64(m.matches.WithLabelValues(kind)); v != 1 {
			t.Errorf("matches[%s] = %f, want 1", kind, v)
		}
	}
}

func TestMetrics_NoFailuresSource(t *testing.T) {
	m := New(Sources{Records: &fakeRecords{}, Tracker: progress.NewTracker()})

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, f := range families {
		if f.GetName() == "powermon_telemetry_failures_total" {
			t.Error("failures metric should not be registered without a source")
		}
	}
}

func TestMetrics_Handler(t *testing.T) {
	records := &fakeRecords{records: []monitor.Record{{PowerDraw: 42}}}
	m := New(Sources{Records: records, Tracker: progress.NewTracker()})

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "powermon_power_draw_watts 42") {
		t.Errorf("expected power gauge in output, got:\n%s", body)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("expected Go runtime metrics in output")
	}
}
