package main

import (
	"context"
	"os"
	"time"

	"github.com/deepaksharma/detailed-trace-otel/internal/detailedtrace"
	"github.com/deepaksharma/detailed-trace-otel/internal/tracestore"
	"go.opentelemetry.io/collector/consumer"
	"go.opentelemetry.io/collector/pdata/ptrace"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

type demoEnvironment struct {
	hostname string
}

func (e demoEnvironment) GitRevision() string { return os.Getenv("GIT_REVISION") }
func (e demoEnvironment) Hostname() string { return e.hostname }

type demoContext struct {
	env demoEnvironment
}

func (c demoContext) Environment() detailedtrace.Environment { return c.env }

func (c demoContext) Flatten() (map[string]interface{}, error) {
	return map[string]interface{}{"user_id": 42}, nil
}

type demoRequest struct {
	root *detailedtrace.CallFrame
	ctx  demoContext
}

func (r *demoRequest) RootFrame() *detailedtrace.CallFrame { return r.root }
func (r *demoRequest) CaptureMemDelta() float64 { return 3.2 }
func (r *demoRequest) IsWeb() bool { return true }
func (r *demoRequest) IsJob() bool { return false }
func (r *demoRequest) UniqueName() string { return "Controller/orders/index" }
func (r *demoRequest) Context() detailedtrace.RequestContext { return r.ctx }

func (r *demoRequest) Annotations() map[string]interface{} {
	return map[string]interface{}{detailedtrace.AnnotationURI: "/orders"}
}

type alwaysScorer struct{}

func (alwaysScorer) Score(detailedtrace.Request) float64 { return 1 }
func (alwaysScorer) Stored(detailedtrace.Request) {}

func sampleTree() *detailedtrace.CallFrame {
	start := time.Now().Add(-120 * time.Millisecond)
	at := func(ms int) time.Time { return start.Add(time.Duration(ms) * time.Millisecond) }

	root := &detailedtrace.CallFrame{
		Type: "Controller", Name: "orders/index",
		Start: at(0), Stop: at(120),
		StartAllocations: 1000, StopAllocations: 48000,
	}
	query := root.AddChild(&detailedtrace.CallFrame{
		Type: "SQL", Name: "Order#find",
		Start: at(5), Stop: at(30),
		Annotations: map[detailedtrace.AnnotationKey]interface{}{
			detailedtrace.AnnotationRecordCount: 50,
			detailedtrace.AnnotationClassName:   "Order",
		},
		Backtrace: []string{
			"app/controllers/orders_controller.rb:8:in `index'",
		},
	})
	query.SetDesc("SELECT orders.* FROM orders LIMIT 50")
	view := root.AddChild(&detailedtrace.CallFrame{Type: "View", Name: "orders/index", Start: at(35), Stop: at(110)})
	view.AddChild(&detailedtrace.CallFrame{Type: "HTTP", Name: "GET", Start: at(40), Stop: at(90)})
	return root
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	hostname, _ := os.Hostname()

	exporter, err := consumer.NewTraces(func(_ context.Context, td ptrace.Traces) error {
		logger.Info("Exported detailed trace batch", zap.Int("span_count", td.SpanCount()))
		return nil
	})
	if err != nil {
		logger.Fatal("Failed to create exporter", zap.Error(err))
	}

	store, err := tracestore.NewStore(tracestore.NewDefaultConfig(), exporter, noop.NewMeterProvider().Meter("tracedemo"), logger)
	if err != nil {
		logger.Fatal("Failed to create trace store", zap.Error(err))
	}

	ctx := context.Background()
	if err := store.Start(ctx); err != nil {
		logger.Fatal("Failed to start trace store", zap.Error(err))
	}

	req := &demoRequest{root: sampleTree(), ctx: demoContext{env: demoEnvironment{hostname: hostname}}}
	detailedtrace.NewTraceBuilder(nil, req, alwaysScorer{}, store, logger).Record(nil)

	if err := store.Shutdown(ctx); err != nil {
		logger.Fatal("Failed to flush trace store", zap.Error(err))
	}
}
