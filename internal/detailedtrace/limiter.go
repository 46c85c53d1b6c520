package detailedtrace

import (
	"go.uber.org/zap"
)

// DefaultMaxSpans is the soft cap on spans per trace
const DefaultMaxSpans = 500

// LimiterState is the sticky state of a SpanLimiter.
type LimiterState int

const (
	LimiterNormal LimiterState = iota
	LimiterLimited
)

func (s LimiterState) String() string {
	if s == LimiterLimited {
		return "limited"
	}
	return "normal"
}

// SpanLimiter tracks whether one conversion went over the span cap.
// A limiter belongs to a single conversion and must not be reused.
type SpanLimiter struct {
	max         int
	requestName string
	state       LimiterState
	logger      *zap.Logger
}

// NewSpanLimiter creates a limiter for the named request
func NewSpanLimiter(maxSpans int, requestName string, logger *zap.Logger) *SpanLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpanLimiter{
		max:         maxSpans,
		requestName: requestName,
		state:       LimiterNormal,
		logger:      logger,
	}
}

// OverLimit reports whether count exceeds the cap. The first time it does,
// the limiter moves to LimiterLimited and logs once.
func (l *SpanLimiter) OverLimit(count int) bool {
	if count <= l.max {
		return false
	}

	if l.state == LimiterNormal {
		l.state = LimiterLimited
		l.logger.Debug("Not recording additional spans, over the span limit",
			zap.String("request", l.requestName),
			zap.Int("max_spans", l.max))
	}

	return true
}

// State returns the current limiter state
func (l *SpanLimiter) State() LimiterState {
	return l.state
}

// Limited reports whether the cap has been crossed during this conversion
func (l *SpanLimiter) Limited() bool {
	return l.state == LimiterLimited
}
