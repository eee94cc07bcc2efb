package monitoring

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetricsCollector exports metrics through a Prometheus registry.
// Dotted names become underscored ("exprjson.errors" is exported as
// "exprjson_errors"). The label set of a metric is fixed by its first
// observation; later tags missing a label report it empty and extra tags are
// dropped.
type PrometheusMetricsCollector struct {
	mu         sync.Mutex
	factory    promauto.Factory
	registry   *prometheus.Registry
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
	labels     map[string][]string
}

// NewPrometheusMetricsCollector registers into reg, or into a fresh registry
// when reg is nil.
func NewPrometheusMetricsCollector(reg *prometheus.Registry) *PrometheusMetricsCollector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &PrometheusMetricsCollector{
		factory:    promauto.With(reg),
		registry:   reg,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		labels:     make(map[string][]string),
	}
}

func (p *PrometheusMetricsCollector) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusMetricsCollector) IncrementCounter(name string, tags map[string]string) {
	p.IncrementCounterBy(name, 1, tags)
}

func (p *PrometheusMetricsCollector) IncrementCounterBy(name string, value int64, tags map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	metric := promName(name)
	vec, ok := p.counters[metric]
	if !ok {
		vec = p.factory.NewCounterVec(prometheus.CounterOpts{
			Name: metric,
			Help: "Count of " + name,
		}, p.labelNames(metric, tags))
		p.counters[metric] = vec
	}
	vec.With(p.labelValues(metric, tags)).Add(float64(value))
}

func (p *PrometheusMetricsCollector) SetGauge(name string, value float64, tags map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	metric := promName(name)
	vec, ok := p.gauges[metric]
	if !ok {
		vec = p.factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: metric,
			Help: "Current " + name,
		}, p.labelNames(metric, tags))
		p.gauges[metric] = vec
	}
	vec.With(p.labelValues(metric, tags)).Set(value)
}

// RecordTiming observes duration in seconds.
func (p *PrometheusMetricsCollector) RecordTiming(name string, duration time.Duration, tags map[string]string) {
	p.observe(name+".seconds", duration.Seconds(), prometheus.DefBuckets, tags)
}

func (p *PrometheusMetricsCollector) RecordValue(name string, value float64, tags map[string]string) {
	p.observe(name, value, prometheus.ExponentialBuckets(64, 4, 10), tags)
}

func (p *PrometheusMetricsCollector) observe(name string, value float64, buckets []float64, tags map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	metric := promName(name)
	vec, ok := p.histograms[metric]
	if !ok {
		vec = p.factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metric,
			Help:    "Distribution of " + name,
			Buckets: buckets,
		}, p.labelNames(metric, tags))
		p.histograms[metric] = vec
	}
	vec.With(p.labelValues(metric, tags)).Observe(value)
}

// Flush is a no-op; Prometheus pulls from the registry.
func (p *PrometheusMetricsCollector) Flush() error {
	return nil
}

func (p *PrometheusMetricsCollector) labelNames(metric string, tags map[string]string) []string {
	names := make([]string, 0, len(tags))
	for k := range tags {
		names = append(names, promName(k))
	}
	sort.Strings(names)
	p.labels[metric] = names
	return names
}

func (p *PrometheusMetricsCollector) labelValues(metric string, tags map[string]string) prometheus.Labels {
	values := make(prometheus.Labels, len(p.labels[metric]))
	for _, name := range p.labels[metric] {
		values[name] = ""
	}
	for k, v := range tags {
		if _, ok := values[promName(k)]; ok {
			values[promName(k)] = v
		}
	}
	return values
}

func promName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_", " ", "_").Replace(name)
}
