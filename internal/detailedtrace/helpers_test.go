package detailedtrace

import (
	"fmt"
	"time"
)

type testEnvironment struct {
	revision string
	hostname string
}

func (e testEnvironment) GitRevision() string { return e.revision }
func (e testEnvironment) Hostname() string { return e.hostname }

type testContext struct {
	env  testEnvironment
	tags map[string]interface{}
	err  error
}

func (c *testContext) Environment() Environment { return c.env }

func (c *testContext) Flatten() (map[string]interface{}, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.tags, nil
}

type testRequest struct {
	root        *CallFrame
	memDelta    float64
	web         bool
	job         bool
	annotations map[string]interface{}
	name        string
	ctx         *testContext
}

func (r *testRequest) RootFrame() *CallFrame { return r.root }
func (r *testRequest) CaptureMemDelta() float64 { return r.memDelta }
func (r *testRequest) IsWeb() bool { return r.web }
func (r *testRequest) IsJob() bool { return r.job }
func (r *testRequest) Annotations() map[string]interface{} { return r.annotations }
func (r *testRequest) UniqueName() string { return r.name }
func (r *testRequest) Context() RequestContext { return r.ctx }

func newTestRequest(root *CallFrame) *testRequest {
	return &testRequest{
		root:        root,
		memDelta:    1.5,
		web:         true,
		annotations: map[string]interface{}{AnnotationURI: "/users/1"},
		name:        "Controller/users/show",
		ctx: &testContext{
			env:  testEnvironment{revision: "abc123", hostname: "web-1"},
			tags: map[string]interface{}{},
		},
	}
}

type testScorer struct {
	score  float64
	scored int
	stored []Request
}

func (s *testScorer) Score(req Request) float64 {
	s.scored++
	return s.score
}

func (s *testScorer) Stored(req Request) {
	s.stored = append(s.stored, req)
}

type trackedTrace struct {
	builder *TraceBuilder
	score   float64
}

type testStore struct {
	tracked []trackedTrace
}

func (s *testStore) TrackPossibleTrace(builder *TraceBuilder, score float64) {
	s.tracked = append(s.tracked, trackedTrace{builder: builder, score: score})
}

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// newFrame creates a 1ms frame opened offset ms after the epoch
func newFrame(typ, name string, offset int) *CallFrame {
	start := testEpoch.Add(time.Duration(offset) * time.Millisecond)
	return &CallFrame{
		Type:             typ,
		Name:             name,
		Start:            start,
		Stop:             start.Add(time.Millisecond),
		StartAllocations: int64(offset),
		StopAllocations:  int64(offset + 10),
	}
}

// newWideTree creates a root with n leaf children
func newWideTree(n int) *CallFrame {
	root := newFrame("Controller", "root", 0)
	for i := 0; i < n; i++ {
		root.AddChild(newFrame("SQL", fmt.Sprintf("query-%d", i), i+1))
	}
	return root
}

// countFrames returns the number of frames in the tree
func countFrames(f *CallFrame) int {
	n := 1
	for _, c := range f.Children {
		n += countFrames(c)
	}
	return n
}
