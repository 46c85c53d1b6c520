package tracestore

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"
)

// MetricsManager handles registration and updates of store metrics
type MetricsManager struct {
	pendingGauge          *atomic.Int64
	evictionsCounter      *atomic.Int64
	exportedTracesCounter *atomic.Int64
	exportedSpansCounter  *atomic.Int64
	convertErrorsCounter  *atomic.Int64
	limitedTracesCounter  *atomic.Int64

	meter metric.Meter
}

// NewMetricsManager creates a new metrics manager
func NewMetricsManager(meter metric.Meter) *MetricsManager {
	return &MetricsManager{
		pendingGauge:          atomic.NewInt64(0),
		evictionsCounter:      atomic.NewInt64(0),
		exportedTracesCounter: atomic.NewInt64(0),
		exportedSpansCounter:  atomic.NewInt64(0),
		convertErrorsCounter:  atomic.NewInt64(0),
		limitedTracesCounter:  atomic.NewInt64(0),
		meter:                 meter,
	}
}

// RegisterMetrics registers all metrics with the meter
func (m *MetricsManager) RegisterMetrics() error {
	gauges := []struct {
		name, desc, unit string
		value            *atomic.Int64
	}{
		{"detailed_trace.pending", "Number of builders waiting for a flush", "{traces}", m.pendingGauge},
	}
	counters := []struct {
		name, desc, unit string
		value            *atomic.Int64
	}{
		{"detailed_trace.evictions", "Number of builders evicted from the pending buffer", "{traces}", m.evictionsCounter},
		{"detailed_trace.exported_traces", "Number of traces converted and exported", "{traces}", m.exportedTracesCounter},
		{"detailed_trace.exported_spans", "Number of spans exported", "{spans}", m.exportedSpansCounter},
		{"detailed_trace.convert_errors", "Number of conversions that failed", "{traces}", m.convertErrorsCounter},
		{"detailed_trace.limited_traces", "Number of traces that hit the span limit", "{traces}", m.limitedTracesCounter},
	}

	for _, g := range gauges {
		value := g.value
		_, err := m.meter.Int64ObservableGauge(
			g.name,
			metric.WithDescription(g.desc),
			metric.WithUnit(g.unit),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(value.Load())
				return nil
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to register %s gauge: %w", g.name, err)
		}
	}

	for _, c := range counters {
		value := c.value
		_, err := m.meter.Int64ObservableCounter(
			c.name,
			metric.WithDescription(c.desc),
			metric.WithUnit(c.unit),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(value.Load())
				return nil
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to register %s counter: %w", c.name, err)
		}
	}

	return nil
}

// PendingGauge returns the pending buffer size gauge
func (m *MetricsManager) PendingGauge() *atomic.Int64 {
	return m.pendingGauge
}

// EvictionsCounter returns the pending buffer evictions counter
func (m *MetricsManager) EvictionsCounter() *atomic.Int64 {
	return m.evictionsCounter
}

// ExportedTraces returns the number of exported traces
func (m *MetricsManager) ExportedTraces() int64 {
	return m.exportedTracesCounter.Load()
}

// ExportedSpans returns the number of exported spans
func (m *MetricsManager) ExportedSpans() int64 {
	return m.exportedSpansCounter.Load()
}

// ConvertErrors returns the number of failed conversions
func (m *MetricsManager) ConvertErrors() int64 {
	return m.convertErrorsCounter.Load()
}

// LimitedTraces returns the number of traces that hit the span limit
func (m *MetricsManager) LimitedTraces() int64 {
	return m.limitedTracesCounter.Load()
}
