package detailedtrace

import (
	"go.uber.org/zap"
)

// TraceBuilder converts one request's call-frame tree into a Trace.
// A builder serves a single request and is not safe for concurrent use.
type TraceBuilder struct {
	config  *Config
	request Request
	scorer  Scorer
	store   Store
	logger  *zap.Logger

	// limiter of the most recent conversion
	limiter *SpanLimiter
}

// NewTraceBuilder creates a builder for req. A nil cfg uses the defaults.
func NewTraceBuilder(cfg *Config, req Request, scorer Scorer, store Store, logger *zap.Logger) *TraceBuilder {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TraceBuilder{
		config:  cfg,
		request: req,
		scorer:  scorer,
		store:   store,
		logger:  logger,
	}
}

// Request returns the request this builder converts
func (b *TraceBuilder) Request() Request {
	return b.request
}

// Record offers the request to the store. When score is nil it is computed
// by the scorer. The store decides whether to call Convert later.
func (b *TraceBuilder) Record(score *float64) {
	var s float64
	switch {
	case score != nil:
		s = *score
	case b.scorer != nil:
		s = b.scorer.Score(b.request)
	}

	if b.store != nil {
		b.store.TrackPossibleTrace(b, s)
	}
}

// Stored acknowledges to the scorer that the trace was kept.
func (b *TraceBuilder) Stored() {
	if b.scorer != nil {
		b.scorer.Stored(b.request)
	}
}

// Limited reports whether the last conversion hit the span cap
func (b *TraceBuilder) Limited() bool {
	return b.limiter != nil && b.limiter.Limited()
}

// Convert builds the trace. It returns nil without error when the request
// has no root frame.
func (b *TraceBuilder) Convert() (*Trace, error) {
	root := b.request.RootFrame()
	if root == nil {
		return nil, nil
	}

	tags, err := b.requestTags(root)
	if err != nil {
		return nil, err
	}

	env := b.request.Context().Environment()
	b.limiter = NewSpanLimiter(b.config.MaxSpans, b.request.UniqueName(), b.logger)

	return &Trace{
		RequestID: NewRequestID(),
		Revision:  env.GitRevision(),
		Host:      env.Hostname(),
		Start:     root.Start,
		Stop:      root.Stop,
		Type:      b.traceType(),
		Path:      b.path(),
		Code:      "",
		Spans:     flatten(root, b.limiter),
		Tags:      tags,
	}, nil
}

// requestTags merges computed tags with the request context. Context values
// win on collision.
func (b *TraceBuilder) requestTags(root *CallFrame) (map[string]interface{}, error) {
	contextTags, err := b.request.Context().Flatten()
	if err != nil {
		return nil, err
	}

	tags := make(map[string]interface{}, len(contextTags)+2)
	tags[TagAllocations] = root.TotalAllocations()
	tags[TagMemDelta] = b.request.CaptureMemDelta()
	for k, v := range contextTags {
		tags[k] = v
	}
	return tags, nil
}

func (b *TraceBuilder) traceType() TraceType {
	switch {
	case b.request.IsWeb():
		return TraceTypeWeb
	case b.request.IsJob():
		return TraceTypeJob
	default:
		return TraceTypeUnknown
	}
}

func (b *TraceBuilder) path() string {
	if uri, ok := b.request.Annotations()[AnnotationURI].(string); ok {
		return uri
	}
	return ""
}

// frameCursor is a frame on the traversal stack.
type frameCursor struct {
	frame  *CallFrame
	spanID string
	// next child to visit
	next int
	// spans emitted for this frame's subtree so far
	count int
}

// flatten walks the tree in pre-order with an explicit stack.
//
// Before a child subtree is started, the limiter is checked against the
// number of spans already emitted for the parent's subtree (the parent
// itself plus its completed child subtrees). A subtree that has started
// always completes, so the cap is soft.
func flatten(root *CallFrame, limiter *SpanLimiter) []Span {
	rootSpan := newSpan(root, "")
	spans := []Span{rootSpan}
	stack := []frameCursor{{frame: root, spanID: rootSpan.ID, count: 1}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]

		if top.next < len(top.frame.Children) {
			child := top.frame.Children[top.next]
			top.next++

			if child == nil || limiter.OverLimit(top.count) {
				continue
			}

			span := newSpan(child, top.spanID)
			spans = append(spans, span)
			stack = append(stack, frameCursor{frame: child, spanID: span.ID, count: 1})
			continue
		}

		done := top.count
		stack = stack[:len(stack)-1]
		if len(stack) > 0 {
			stack[len(stack)-1].count += done
		}
	}

	return spans
}

func newSpan(frame *CallFrame, parentID string) Span {
	return Span{
		ID:        NewSpanID(),
		ParentID:  parentID,
		Start:     frame.Start,
		Stop:      frame.Stop,
		Operation: frame.Operation(),
		Tags:      spanTags(frame),
	}
}

func spanTags(frame *CallFrame) map[string]interface{} {
	tags := map[string]interface{}{
		TagStartAllocations: frame.StartAllocations,
		TagStopAllocations:  frame.StopAllocations,
	}

	if frame.Desc != nil {
		tags[TagDesc] = *frame.Desc
	}

	if v, ok := frame.Annotations[AnnotationRecordCount]; ok {
		tags[TagRecordCount] = v
	}
	if v, ok := frame.Annotations[AnnotationClassName]; ok {
		tags[TagClassName] = v
	}

	// a malformed backtrace drops the whole tag
	if frame.Backtrace != nil {
		if bt, err := ParseBacktrace(frame.Backtrace); err == nil {
			tags[TagBacktrace] = bt
		}
	}

	return tags
}
