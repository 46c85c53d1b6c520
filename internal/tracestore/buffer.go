package tracestore

import (
	"sync"
	"time"

	"github.com/deepaksharma/detailed-trace-otel/internal/detailedtrace"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// pendingTrace is a builder waiting to be converted
type pendingTrace struct {
	builder *detailedtrace.TraceBuilder
	score   float64
	addedAt time.Time
}

// PendingBuffer holds tracked builders until the next flush.
// When full, the lowest scoring builder is evicted.
type PendingBuffer struct {
	entries []pendingTrace

	// Maximum number of builders to hold
	maxPending int

	logger *zap.Logger

	// Counter for evictions (optional)
	evictionCounter *atomic.Int64

	// Gauge for the current size (optional)
	sizeGauge *atomic.Int64

	mu sync.Mutex
}

// NewPendingBuffer creates a buffer holding at most maxPending builders
func NewPendingBuffer(maxPending int, logger *zap.Logger) *PendingBuffer {
	return &PendingBuffer{
		entries:    make([]pendingTrace, 0, maxPending),
		maxPending: maxPending,
		logger:     logger,
	}
}

// SetMetrics sets the eviction counter and size gauge
func (pb *PendingBuffer) SetMetrics(evictions, size *atomic.Int64) {
	pb.evictionCounter = evictions
	pb.sizeGauge = size
}

// Add buffers a builder. It returns false if the builder scored too low to
// displace anything in a full buffer.
func (pb *PendingBuffer) Add(builder *detailedtrace.TraceBuilder, score float64) bool {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	entry := pendingTrace{builder: builder, score: score, addedAt: time.Now()}

	if len(pb.entries) >= pb.maxPending {
		lowest := pb.lowestLocked()
		if pb.entries[lowest].score >= score {
			pb.recordEviction(entry)
			return false
		}
		pb.recordEviction(pb.entries[lowest])
		pb.entries = append(pb.entries[:lowest], pb.entries[lowest+1:]...)
	}

	pb.entries = append(pb.entries, entry)
	pb.updateSize()
	return true
}

// Drain removes and returns all buffered builders in arrival order
func (pb *PendingBuffer) Drain() []*detailedtrace.TraceBuilder {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	builders := make([]*detailedtrace.TraceBuilder, 0, len(pb.entries))
	for _, e := range pb.entries {
		builders = append(builders, e.builder)
	}
	pb.entries = make([]pendingTrace, 0, pb.maxPending)
	pb.updateSize()

	return builders
}

// Size returns the number of buffered builders
func (pb *PendingBuffer) Size() int {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return len(pb.entries)
}

// lowestLocked returns the index of the lowest scoring entry. The oldest
// entry wins ties.
func (pb *PendingBuffer) lowestLocked() int {
	lowest := 0
	for i := 1; i < len(pb.entries); i++ {
		if pb.entries[i].score < pb.entries[lowest].score {
			lowest = i
		}
	}
	return lowest
}

func (pb *PendingBuffer) recordEviction(e pendingTrace) {
	pb.logger.Debug("Evicting trace from pending buffer due to capacity limit",
		zap.String("request", e.builder.Request().UniqueName()),
		zap.Float64("score", e.score),
		zap.Duration("age", time.Since(e.addedAt)))

	if pb.evictionCounter != nil {
		pb.evictionCounter.Inc()
	}
}

func (pb *PendingBuffer) updateSize() {
	if pb.sizeGauge != nil {
		pb.sizeGauge.Store(int64(len(pb.entries)))
	}
}
