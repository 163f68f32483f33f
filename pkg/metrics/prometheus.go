package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusCollector implements the Collector interface using Prometheus.
type PrometheusCollector struct {
	mu sync.RWMutex

	registry *prometheus.Registry

	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec

	namespace string
	subsystem string
}

// PrometheusConfig configures the Prometheus collector.
type PrometheusConfig struct {
	// Namespace prefixes all metric names.
	Namespace string

	// Subsystem prefixes metric names after namespace.
	Subsystem string

	// Registry is the Prometheus registry to use (nil = new registry).
	Registry *prometheus.Registry

	// RegisterDefaultMetrics registers the standard pipeline metrics.
	RegisterDefaultMetrics bool
}

// NewPrometheusCollector creates a new Prometheus metrics collector.
func NewPrometheusCollector(cfg *PrometheusConfig) *PrometheusCollector {
	if cfg == nil {
		cfg = &PrometheusConfig{}
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	c := &PrometheusCollector{
		registry:   registry,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		namespace:  cfg.Namespace,
		subsystem:  cfg.Subsystem,
	}

	if cfg.RegisterDefaultMetrics {
		c.registerDefaultMetrics()
	}

	return c
}

func (c *PrometheusCollector) registerDefaultMetrics() {
	_ = c.RegisterCounter(ParseFilesTotal)
	_ = c.RegisterCounter(ParseFindingsTotal)
	_ = c.RegisterHistogram(ParseDuration)

	_ = c.RegisterCounter(EnrichFindingsTotal)
	_ = c.RegisterCounter(EnrichMatchesTotal)
	_ = c.RegisterCounter(RuleSetLoadsTotal)

	_ = c.RegisterCounter(RunsTotal)
	_ = c.RegisterHistogram(RunDuration)
	_ = c.RegisterGauge(RunFindingsGauge)

	_ = c.RegisterCounter(StoreSavesTotal)
}

// RegisterCounter registers a counter metric.
func (c *PrometheusCollector) RegisterCounter(def MetricDefinition) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.counters[def.Name]; exists {
		return nil
	}

	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: c.namespace,
			Subsystem: c.subsystem,
			Name:      def.Name,
			Help:      def.Help,
		},
		def.Labels,
	)

	if err := c.registry.Register(counter); err != nil {
		return err
	}

	c.counters[def.Name] = counter
	return nil
}

// RegisterGauge registers a gauge metric.
func (c *PrometheusCollector) RegisterGauge(def MetricDefinition) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.gauges[def.Name]; exists {
		return nil
	}

	gauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: c.namespace,
			Subsystem: c.subsystem,
			Name:      def.Name,
			Help:      def.Help,
		},
		def.Labels,
	)

	if err := c.registry.Register(gauge); err != nil {
		return err
	}

	c.gauges[def.Name] = gauge
	return nil
}

// RegisterHistogram registers a histogram metric.
func (c *PrometheusCollector) RegisterHistogram(def MetricDefinition) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.histograms[def.Name]; exists {
		return nil
	}

	buckets := def.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: c.namespace,
			Subsystem: c.subsystem,
			Name:      def.Name,
			Help:      def.Help,
			Buckets:   buckets,
		},
		def.Labels,
	)

	if err := c.registry.Register(histogram); err != nil {
		return err
	}

	c.histograms[def.Name] = histogram
	return nil
}

func (c *PrometheusCollector) CounterInc(name string, labels ...string) {
	c.CounterAdd(name, 1, labels...)
}

func (c *PrometheusCollector) CounterAdd(name string, value float64, labels ...string) {
	c.mu.RLock()
	counter, ok := c.counters[name]
	c.mu.RUnlock()

	if !ok {
		return
	}

	counter.WithLabelValues(labelsToValues(labels)...).Add(value)
}

func (c *PrometheusCollector) GaugeSet(name string, value float64, labels ...string) {
	c.mu.RLock()
	gauge, ok := c.gauges[name]
	c.mu.RUnlock()

	if !ok {
		return
	}

	gauge.WithLabelValues(labelsToValues(labels)...).Set(value)
}

func (c *PrometheusCollector) GaugeInc(name string, labels ...string) {
	c.mu.RLock()
	gauge, ok := c.gauges[name]
	c.mu.RUnlock()

	if !ok {
		return
	}

	gauge.WithLabelValues(labelsToValues(labels)...).Inc()
}

func (c *PrometheusCollector) GaugeDec(name string, labels ...string) {
	c.mu.RLock()
	gauge, ok := c.gauges[name]
	c.mu.RUnlock()

	if !ok {
		return
	}

	gauge.WithLabelValues(labelsToValues(labels)...).Dec()
}

func (c *PrometheusCollector) HistogramObserve(name string, value float64, labels ...string) {
	c.mu.RLock()
	histogram, ok := c.histograms[name]
	c.mu.RUnlock()

	if !ok {
		return
	}

	histogram.WithLabelValues(labelsToValues(labels)...).Observe(value)
}

func (c *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func (c *PrometheusCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, counter := range c.counters {
		counter.Reset()
	}
}

// Registry returns the underlying Prometheus registry.
func (c *PrometheusCollector) Registry() *prometheus.Registry {
	return c.registry
}

// labelsToValues converts label name/value pairs to values only.
func labelsToValues(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}

	values := make([]string, 0, len(labels)/2)
	for i := 1; i < len(labels); i += 2 {
		values = append(values, labels[i])
	}
	return values
}

var _ Collector = (*PrometheusCollector)(nil)
