// Package metrics provides metrics collection for the normalization
// pipeline. It includes a collector interface and a Prometheus-backed
// implementation.
package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Collector is the interface for recording pipeline metrics. Implement
// it to plug in a custom backend; labels are passed as name/value pairs.
type Collector interface {
	CounterInc(name string, labels ...string)
	CounterAdd(name string, value float64, labels ...string)

	GaugeSet(name string, value float64, labels ...string)
	GaugeInc(name string, labels ...string)
	GaugeDec(name string, labels ...string)

	HistogramObserve(name string, value float64, labels ...string)

	// Handler returns an HTTP handler for the metrics endpoint.
	Handler() http.Handler

	// Reset clears all metrics (for testing).
	Reset()
}

// MetricType represents the type of metric.
type MetricType string

const (
	MetricTypeCounter   MetricType = "counter"
	MetricTypeGauge     MetricType = "gauge"
	MetricTypeHistogram MetricType = "histogram"
)

// MetricDefinition defines a metric with its metadata.
type MetricDefinition struct {
	Name    string     `json:"name"`
	Type    MetricType `json:"type"`
	Help    string     `json:"help"`
	Labels  []string   `json:"labels,omitempty"`
	Buckets []float64  `json:"buckets,omitempty"` // For histograms
}

// Standard pipeline metrics.
var (
	// Parser metrics
	ParseFilesTotal = MetricDefinition{
		Name:   "postureio_parse_files_total",
		Type:   MetricTypeCounter,
		Help:   "Total number of scanner output files parsed",
		Labels: []string{"provider", "product", "status"},
	}
	ParseFindingsTotal = MetricDefinition{
		Name:   "postureio_parse_findings_total",
		Type:   MetricTypeCounter,
		Help:   "Total number of findings produced by the parser",
		Labels: []string{"provider", "product"},
	}
	ParseDuration = MetricDefinition{
		Name:    "postureio_parse_duration_seconds",
		Type:    MetricTypeHistogram,
		Help:    "Duration of parse operations in seconds",
		Labels:  []string{"provider", "product"},
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}

	// Enrichment metrics
	EnrichFindingsTotal = MetricDefinition{
		Name:   "postureio_enrich_findings_total",
		Type:   MetricTypeCounter,
		Help:   "Total number of findings run through compliance enrichment",
		Labels: []string{"status"},
	}
	EnrichMatchesTotal = MetricDefinition{
		Name:   "postureio_enrich_matches_total",
		Type:   MetricTypeCounter,
		Help:   "Total number of compliance rule matches applied",
		Labels: []string{"rule_set"},
	}
	RuleSetLoadsTotal = MetricDefinition{
		Name:   "postureio_ruleset_loads_total",
		Type:   MetricTypeCounter,
		Help:   "Total number of rule set loads from disk",
		Labels: []string{"rule_set", "status"},
	}

	// Pipeline run metrics
	RunsTotal = MetricDefinition{
		Name:   "postureio_runs_total",
		Type:   MetricTypeCounter,
		Help:   "Total number of pipeline runs",
		Labels: []string{"status"},
	}
	RunDuration = MetricDefinition{
		Name:    "postureio_run_duration_seconds",
		Type:    MetricTypeHistogram,
		Help:    "Duration of pipeline runs in seconds",
		Labels:  []string{},
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
	}
	RunFindingsGauge = MetricDefinition{
		Name:   "postureio_run_findings",
		Type:   MetricTypeGauge,
		Help:   "Number of findings produced by the most recent run",
		Labels: []string{},
	}

	// Store metrics
	StoreSavesTotal = MetricDefinition{
		Name:   "postureio_store_saves_total",
		Type:   MetricTypeCounter,
		Help:   "Total number of run records saved to the history store",
		Labels: []string{"status"},
	}
)

// NopCollector discards all metrics. Use it when metrics are not
// needed.
type NopCollector struct{}

func (c *NopCollector) CounterInc(name string, labels ...string)                      {}
func (c *NopCollector) CounterAdd(name string, value float64, labels ...string)       {}
func (c *NopCollector) GaugeSet(name string, value float64, labels ...string)         {}
func (c *NopCollector) GaugeInc(name string, labels ...string)                        {}
func (c *NopCollector) GaugeDec(name string, labels ...string)                        {}
func (c *NopCollector) HistogramObserve(name string, value float64, labels ...string) {}
func (c *NopCollector) Handler() http.Handler                                         { return http.NotFoundHandler() }
func (c *NopCollector) Reset()                                                        {}

// InMemoryCollector stores metrics in memory for testing purposes.
type InMemoryCollector struct {
	mu         sync.RWMutex
	counters   map[string]float64
	gauges     map[string]float64
	histograms map[string][]float64
}

// NewInMemoryCollector creates a new in-memory metrics collector.
func NewInMemoryCollector() *InMemoryCollector {
	return &InMemoryCollector{
		counters:   make(map[string]float64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

func (c *InMemoryCollector) key(name string, labels []string) string {
	key := name
	for i := 0; i < len(labels); i += 2 {
		if i+1 < len(labels) {
			key += "," + labels[i] + "=" + labels[i+1]
		}
	}
	return key
}

func (c *InMemoryCollector) CounterInc(name string, labels ...string) {
	c.CounterAdd(name, 1, labels...)
}

func (c *InMemoryCollector) CounterAdd(name string, value float64, labels ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[c.key(name, labels)] += value
}

func (c *InMemoryCollector) GaugeSet(name string, value float64, labels ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gauges[c.key(name, labels)] = value
}

func (c *InMemoryCollector) GaugeInc(name string, labels ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gauges[c.key(name, labels)]++
}

func (c *InMemoryCollector) GaugeDec(name string, labels ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gauges[c.key(name, labels)]--
}

func (c *InMemoryCollector) HistogramObserve(name string, value float64, labels ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.key(name, labels)
	c.histograms[key] = append(c.histograms[key], value)
}

func (c *InMemoryCollector) Handler() http.Handler {
	return http.NotFoundHandler()
}

func (c *InMemoryCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters = make(map[string]float64)
	c.gauges = make(map[string]float64)
	c.histograms = make(map[string][]float64)
}

// GetCounter returns the value of a counter.
func (c *InMemoryCollector) GetCounter(name string, labels ...string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counters[c.key(name, labels)]
}

// GetGauge returns the value of a gauge.
func (c *InMemoryCollector) GetGauge(name string, labels ...string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gauges[c.key(name, labels)]
}

// GetHistogram returns all observations of a histogram.
func (c *InMemoryCollector) GetHistogram(name string, labels ...string) []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.histograms[c.key(name, labels)]
}

// Timer is a helper for timing operations and recording to histograms.
type Timer struct {
	start     time.Time
	collector Collector
	name      string
	labels    []string
}

// NewTimer creates a new timer that will record to the given histogram.
func NewTimer(collector Collector, name string, labels ...string) *Timer {
	return &Timer{
		start:     time.Now(),
		collector: collector,
		name:      name,
		labels:    labels,
	}
}

// ObserveDuration records the duration since the timer was created.
func (t *Timer) ObserveDuration() time.Duration {
	d := time.Since(t.start)
	t.collector.HistogramObserve(t.name, d.Seconds(), t.labels...)
	return d
}

var defaultCollector Collector = &NopCollector{}
var defaultCollectorMu sync.RWMutex

// SetDefaultCollector sets the global default metrics collector.
func SetDefaultCollector(collector Collector) {
	defaultCollectorMu.Lock()
	defer defaultCollectorMu.Unlock()
	if collector == nil {
		collector = &NopCollector{}
	}
	defaultCollector = collector
}

// GetDefaultCollector returns the global default metrics collector.
func GetDefaultCollector() Collector {
	defaultCollectorMu.RLock()
	defer defaultCollectorMu.RUnlock()
	return defaultCollector
}

type contextKey string

const collectorContextKey contextKey = "postureio_metrics_collector"

// WithCollector returns a new context with the collector attached.
func WithCollector(ctx context.Context, collector Collector) context.Context {
	return context.WithValue(ctx, collectorContextKey, collector)
}

// CollectorFromContext returns the collector from the context, or the default.
func CollectorFromContext(ctx context.Context) Collector {
	if collector, ok := ctx.Value(collectorContextKey).(Collector); ok {
		return collector
	}
	return GetDefaultCollector()
}

var (
	_ Collector = (*NopCollector)(nil)
	_ Collector = (*InMemoryCollector)(nil)
)
