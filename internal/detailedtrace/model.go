package detailedtrace

import (
	"time"
)

// AnnotationKey is an internal symbolic key on a call frame's annotations.
type AnnotationKey string

const (
	// AnnotationRecordCount is the number of records a query returned
	AnnotationRecordCount AnnotationKey = "record_count"
	// AnnotationClassName is the model class a query loaded
	AnnotationClassName AnnotationKey = "class_name"
)

// Span tag keys. The record count and class name tags use external-facing
// names that differ from the frame annotation keys.
const (
	TagStartAllocations = "start_allocations"
	TagStopAllocations  = "stop_allocations"
	TagDesc             = "desc"
	TagRecordCount      = "db.record_count"
	TagClassName        = "db.class_name"
	TagBacktrace        = "backtrace"
)

// Trace tag keys computed from the root frame.
const (
	TagAllocations = "allocations"
	TagMemDelta    = "mem_delta"
)

// CallFrame is one node of the instrumented operation tree.
// It is treated as a read-only snapshot during conversion.
type CallFrame struct {
	Type  string
	Name  string
	Start time.Time
	Stop  time.Time

	StartAllocations int64
	StopAllocations  int64

	// Desc is free text, absent when nil
	Desc *string

	Annotations map[AnnotationKey]interface{}

	// Backtrace holds raw stack lines, absent when nil
	Backtrace []string

	Children []*CallFrame
}

// Operation returns the name a span reports for this frame.
func (f *CallFrame) Operation() string {
	if f.Name == "" {
		return f.Type
	}
	return f.Type + "/" + f.Name
}

// TotalAllocations returns the allocations made while the frame was open.
func (f *CallFrame) TotalAllocations() int64 {
	if f.StopAllocations < f.StartAllocations {
		return 0
	}
	return f.StopAllocations - f.StartAllocations
}

// SetDesc sets the frame description
func (f *CallFrame) SetDesc(desc string) {
	f.Desc = &desc
}

// AddChild appends a child frame and returns it.
func (f *CallFrame) AddChild(child *CallFrame) *CallFrame {
	f.Children = append(f.Children, child)
	return child
}

// Span is the flattened representation of one call frame.
type Span struct {
	ID        string
	ParentID  string
	Start     time.Time
	Stop      time.Time
	Operation string
	Tags      map[string]interface{}
}

// IsRoot reports whether the span has no parent
func (s Span) IsRoot() bool {
	return s.ParentID == ""
}

// TraceType classifies the request a trace was built from.
type TraceType int

const (
	TraceTypeUnknown TraceType = iota
	TraceTypeWeb
	TraceTypeJob
)

func (t TraceType) String() string {
	switch t {
	case TraceTypeWeb:
		return "Web"
	case TraceTypeJob:
		return "Job"
	default:
		return "Unknown"
	}
}

// Trace is the full converted record for one request.
type Trace struct {
	RequestID string
	Revision  string
	Host      string
	Start     time.Time
	Stop      time.Time
	Type      TraceType
	Path      string
	// Code is reserved and always empty
	Code  string
	Spans []Span
	Tags  map[string]interface{}
}

// SpanCount returns the number of spans in the trace
func (t *Trace) SpanCount() int {
	return len(t.Spans)
}
