package tracestore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/deepaksharma/detailed-trace-otel/internal/detailedtrace"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/collector/consumer"
	"go.opentelemetry.io/collector/pdata/ptrace"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Store collects builders offered by requests and, on a schedule, converts
// them and hands the resulting traces to the next consumer.
type Store struct {
	logger *zap.Logger
	config *Config

	// Next consumer in the pipeline
	nextConsumer consumer.Traces

	metricsManager *MetricsManager
	buffer         *PendingBuffer

	flushCron *cron.Cron
	// serializes flushes from the schedule and from callers
	flushMu sync.Mutex
}

var _ detailedtrace.Store = (*Store)(nil)

// NewStore creates a new store
func NewStore(cfg *Config, nextConsumer consumer.Traces, meter metric.Meter, logger *zap.Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	metricsManager := NewMetricsManager(meter)

	s := &Store{
		logger:         logger,
		config:         cfg,
		nextConsumer:   nextConsumer,
		metricsManager: metricsManager,
		buffer:         NewPendingBuffer(cfg.MaxPending, logger),
	}
	s.buffer.SetMetrics(metricsManager.EvictionsCounter(), metricsManager.PendingGauge())

	logger.Info("Trace store created",
		zap.Int("max_pending", cfg.MaxPending),
		zap.String("flush_schedule", cfg.FlushSchedule))

	return s, nil
}

// Start registers metrics and schedules flushes
func (s *Store) Start(ctx context.Context) error {
	s.logger.Info("Starting trace store")

	if err := s.metricsManager.RegisterMetrics(); err != nil {
		s.logger.Error("Failed to register metrics", zap.Error(err))
	}

	s.flushCron = cron.New()
	_, err := s.flushCron.AddFunc(s.config.FlushSchedule, func() {
		if err := s.Flush(context.Background()); err != nil {
			s.logger.Error("Scheduled flush failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule flush: %w", err)
	}
	s.flushCron.Start()

	return nil
}

// Shutdown stops the schedule and flushes what is pending
func (s *Store) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down trace store")

	if s.flushCron != nil {
		// Wait for a running flush to finish
		select {
		case <-s.flushCron.Stop().Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return s.Flush(ctx)
}

// TrackPossibleTrace buffers the builder until the next flush
func (s *Store) TrackPossibleTrace(builder *detailedtrace.TraceBuilder, score float64) {
	if !s.buffer.Add(builder, score) {
		s.logger.Debug("Pending buffer full, dropped trace",
			zap.String("request", builder.Request().UniqueName()),
			zap.Float64("score", score))
	}
}

// Pending returns the number of builders waiting for a flush
func (s *Store) Pending() int {
	return s.buffer.Size()
}

// Metrics returns the store metrics
func (s *Store) Metrics() *MetricsManager {
	return s.metricsManager
}

// Flush converts every pending builder and exports the traces in one batch.
// A failed conversion is logged and skipped.
func (s *Store) Flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	builders := s.buffer.Drain()
	if len(builders) == 0 {
		return nil
	}

	startTime := time.Now()
	batch := ptrace.NewTraces()
	converted := make([]*detailedtrace.TraceBuilder, 0, len(builders))

	for _, b := range builders {
		tr, err := b.Convert()
		if err != nil {
			s.metricsManager.convertErrorsCounter.Inc()
			s.logger.Error("Failed to convert trace",
				zap.String("request", b.Request().UniqueName()),
				zap.Error(err))
			continue
		}
		if tr == nil {
			continue
		}

		if b.Limited() {
			s.metricsManager.limitedTracesCounter.Inc()
		}

		appendTrace(tr, s.config.ServiceName, batch)
		converted = append(converted, b)
	}

	if batch.SpanCount() == 0 {
		return nil
	}

	spanCount := batch.SpanCount()
	if err := s.nextConsumer.ConsumeTraces(ctx, batch); err != nil {
		return fmt.Errorf("failed to export traces to next consumer: %w", err)
	}

	// Only acknowledge storage once the batch was accepted
	for _, b := range converted {
		b.Stored()
	}

	s.metricsManager.exportedTracesCounter.Add(int64(len(converted)))
	s.metricsManager.exportedSpansCounter.Add(int64(spanCount))

	s.logger.Debug("Flushed detailed traces",
		zap.Int("traces", len(converted)),
		zap.Int("span_count", spanCount),
		zap.Duration("latency", time.Since(startTime)))

	return nil
}

// appendTrace renders tr and appends its resource spans to batch
func appendTrace(tr *detailedtrace.Trace, serviceName string, batch ptrace.Traces) {
	detailedtrace.ToTraces(tr, serviceName).ResourceSpans().MoveAndAppendTo(batch.ResourceSpans())
}
