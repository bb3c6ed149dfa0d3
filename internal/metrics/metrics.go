// Package metrics exposes live run state as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haskel/powermon/internal/monitor"
	"github.com/haskel/powermon/internal/progress"
)

const namespace = "powermon"

// RecordSource is the read side of the record log.
type RecordSource interface {
	Latest() (monitor.Record, bool)
	Len() int
}

// Sources are the live objects the metrics read on every scrape.
// Failures may be nil when telemetry is not command backed.
type Sources struct {
	Records  RecordSource
	Tracker  *progress.Tracker
	Failures func() uint64
}

// Metrics owns a private registry so tests and multiple runs in one
// process never collide on the default registerer.
type Metrics struct {
	registry *prometheus.Registry

	powerDraw      prometheus.GaugeFunc
	memoryUsed     prometheus.GaugeFunc
	gpuUtilization prometheus.GaugeFunc
	measurements   prometheus.GaugeFunc
	examples       prometheus.CounterFunc
	tokens         prometheus.CounterFunc

	saves   *prometheus.CounterVec
	matches *prometheus.CounterVec
}

// New registers all collectors against src.
func New(src Sources) *Metrics {
	latest := func(field func(monitor.Record) float64) func() float64 {
		return func() float64 {
			r, ok := src.Records.Latest()
			if !ok {
				return 0
			}
			return field(r)
		}
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),

		powerDraw: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "power_draw_watts",
			Help:      "Power draw from the most recent sample.",
		}, latest(func(r monitor.Record) float64 { return r.PowerDraw })),

		memoryUsed: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_used_mib",
			Help:      "Accelerator memory used from the most recent sample.",
		}, latest(func(r monitor.Record) float64 { return r.MemoryUsed })),

		gpuUtilization: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gpu_utilization_percent",
			Help:      "GPU utilization from the most recent sample.",
		}, latest(func(r monitor.Record) float64 { return r.GPUUtilization })),

		measurements: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "measurements",
			Help:      "Number of records collected in this run.",
		}, func() float64 { return float64(src.Records.Len()) }),

		examples: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "examples_evaluated_total",
			Help:      "Examples evaluated according to the evaluation log.",
		}, func() float64 { return float64(src.Tracker.Snapshot().ExamplesEvaluated) }),

		tokens: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_generated_total",
			Help:      "Tokens generated according to the evaluation log.",
		}, func() float64 { return float64(src.Tracker.Snapshot().TokensGenerated) }),

		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "Result file saves by outcome.",
		}, []string{"result"}),

		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_matches_total",
			Help:      "Recognized evaluation log fields by kind.",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.powerDraw,
		m.memoryUsed,
		m.gpuUtilization,
		m.measurements,
		m.examples,
		m.tokens,
		m.saves,
		m.matches,
	)

	if src.Failures != nil {
		m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_failures_total",
			Help:      "Telemetry reads that fell back to a zero reading.",
		}, func() float64 { return float64(src.Failures()) }))
	}

	return m
}

// ObserveSave counts a save attempt.
func (m *Metrics) ObserveSave(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.saves.WithLabelValues(result).Inc()
}

// ObserveMatch counts one recognized log field.
func (m *Metrics) ObserveMatch(match progress.Match) {
	m.matches.WithLabelValues(match.Kind.String()).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
