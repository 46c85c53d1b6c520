package tracestore

import (
	"fmt"
	"sync"
	"testing"

	"github.com/deepaksharma/detailed-trace-otel/internal/detailedtrace"
	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

func newBuilder(name string) *detailedtrace.TraceBuilder {
	return detailedtrace.NewTraceBuilder(nil, newTestRequest(name, 0), nil, nil, nil)
}

func TestPendingBufferAddAndDrain(t *testing.T) {
	pb := NewPendingBuffer(10, zap.NewNop())
	size := atomic.NewInt64(0)
	pb.SetMetrics(atomic.NewInt64(0), size)

	a, b := newBuilder("a"), newBuilder("b")
	assert.True(t, pb.Add(a, 1))
	assert.True(t, pb.Add(b, 2))
	assert.Equal(t, 2, pb.Size())
	assert.Equal(t, int64(2), size.Load())

	drained := pb.Drain()
	assert.Equal(t, []*detailedtrace.TraceBuilder{a, b}, drained)
	assert.Equal(t, 0, pb.Size())
	assert.Equal(t, int64(0), size.Load())
}

func TestPendingBufferEvictsLowestScore(t *testing.T) {
	pb := NewPendingBuffer(3, zap.NewNop())
	evictions := atomic.NewInt64(0)
	pb.SetMetrics(evictions, nil)

	low := newBuilder("low")
	mid := newBuilder("mid")
	high := newBuilder("high")
	pb.Add(mid, 5)
	pb.Add(low, 1)
	pb.Add(high, 9)

	// better than the lowest: low is evicted
	better := newBuilder("better")
	assert.True(t, pb.Add(better, 3))
	// not better than anything held: dropped
	assert.False(t, pb.Add(newBuilder("worse"), 2))

	assert.Equal(t, int64(2), evictions.Load())
	assert.Equal(t, []*detailedtrace.TraceBuilder{mid, high, better}, pb.Drain())
}

func TestPendingBufferConcurrentAccess(t *testing.T) {
	pb := NewPendingBuffer(1000, zap.NewNop())

	numGoroutines := 10
	perGoroutine := 20
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for g := 0; g < numGoroutines; g++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				pb.Add(newBuilder(fmt.Sprintf("req-%d-%d", id, i)), float64(i))
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, numGoroutines*perGoroutine, pb.Size())
	assert.Len(t, pb.Drain(), numGoroutines*perGoroutine)
}
