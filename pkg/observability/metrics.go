package observability

import (
	"fmt"
	"net/http"
	"sync"
	"time"
)

// MetricsCollector exposes counters, gauges and histograms in the
// Prometheus text format without pulling in the client library
type MetricsCollector struct {
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
	mu         sync.RWMutex
}

// Counter tracks a cumulative value
type Counter struct {
	value float64
	mu    sync.Mutex
}

// Gauge tracks a current value
type Gauge struct {
	value float64
	mu    sync.Mutex
}

// Histogram tracks the sum and count of observed values
type Histogram struct {
	sum   float64
	count uint64
	mu    sync.Mutex
}

var (
	defaultCollector *MetricsCollector
	once             sync.Once
)

// GetCollector returns the process-wide metrics collector
func GetCollector() *MetricsCollector {
	once.Do(func() {
		defaultCollector = &MetricsCollector{
			counters:   make(map[string]*Counter),
			gauges:     make(map[string]*Gauge),
			histograms: make(map[string]*Histogram),
		}
	})
	return defaultCollector
}

func (c *Counter) Inc() {
	c.Add(1)
}

func (c *Counter) Add(val float64) {
	c.mu.Lock()
	c.value += val
	c.mu.Unlock()
}

func (c *Counter) Value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

func (g *Gauge) Set(val float64) {
	g.mu.Lock()
	g.value = val
	g.mu.Unlock()
}

func (g *Gauge) Value() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

func (h *Histogram) Observe(val float64) {
	h.mu.Lock()
	h.sum += val
	h.count++
	h.mu.Unlock()
}

func (h *Histogram) Sum() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sum
}

func (h *Histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Counter returns (creating if needed) the named counter
func (m *MetricsCollector) Counter(name string) *Counter {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.counters[name]; ok {
		return c
	}
	c := &Counter{}
	m.counters[name] = c
	return c
}

// Gauge returns (creating if needed) the named gauge
func (m *MetricsCollector) Gauge(name string) *Gauge {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.gauges[name]; ok {
		return g
	}
	g := &Gauge{}
	m.gauges[name] = g
	return g
}

// Histogram returns (creating if needed) the named histogram
func (m *MetricsCollector) Histogram(name string) *Histogram {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.histograms[name]; ok {
		return h
	}
	h := &Histogram{}
	m.histograms[name] = h
	return h
}

// Timer records the elapsed time into the named histogram when the
// returned func runs
func (m *MetricsCollector) Timer(name string) func() {
	start := time.Now()
	return func() {
		m.Histogram(name).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the /metrics endpoint
func (m *MetricsCollector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")

		m.mu.RLock()
		defer m.mu.RUnlock()

		for name, counter := range m.counters {
			fmt.Fprintf(w, "# TYPE %s counter\n", name)
			fmt.Fprintf(w, "%s %.2f\n", name, counter.Value())
		}

		for name, gauge := range m.gauges {
			fmt.Fprintf(w, "# TYPE %s gauge\n", name)
			fmt.Fprintf(w, "%s %.2f\n", name, gauge.Value())
		}

		for name, histogram := range m.histograms {
			fmt.Fprintf(w, "# TYPE %s histogram\n", name)
			fmt.Fprintf(w, "%s_sum %.6f\n", name, histogram.Sum())
			fmt.Fprintf(w, "%s_count %d\n", name, histogram.Count())
		}
	}
}

// Predefined metric names
const (
	MetricObservationsReceived  = "alert_engine_observations_received_total"
	MetricAlertsEvaluated       = "alert_engine_alerts_evaluated_total"
	MetricAlertsTriggered       = "alert_engine_alerts_triggered_total"
	MetricEvaluationDuration    = "alert_engine_evaluation_duration_seconds"
	MetricBatchesFlushed        = "alert_engine_batches_flushed_total"
	MetricEventsDelivered       = "alert_engine_events_delivered_total"
	MetricPendingBatches        = "alert_engine_pending_batches"
	MetricWebhooksSent          = "alert_engine_webhooks_sent_total"
	MetricWebhooksFailed        = "alert_engine_webhooks_failed_total"
	MetricTrackedSymbols        = "alert_engine_tracked_symbols"
	MetricNATSMessagesPublished = "nats_messages_published_total"
	MetricNATSMessagesReceived  = "nats_messages_received_total"
	MetricNATSPublishErrors     = "nats_publish_errors_total"
	MetricDBErrors              = "database_errors_total"
)
