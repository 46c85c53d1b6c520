package detailedtrace

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/ptrace"
)

const (
	scopeName = "detailedtrace"

	attrRequestID   = "detailed_trace.request_id"
	attrSpanID      = "detailed_trace.span_id"
	attrTraceType   = "detailed_trace.type"
	attrPath        = "detailed_trace.path"
	attrRequestTags = "request."
)

// ToTraces renders a Trace as OpenTelemetry pdata. Span order is preserved.
func ToTraces(tr *Trace, serviceName string) ptrace.Traces {
	traces := ptrace.NewTraces()
	if tr == nil {
		return traces
	}

	rs := traces.ResourceSpans().AppendEmpty()
	res := rs.Resource().Attributes()
	res.PutStr("service.name", serviceName)
	if tr.Host != "" {
		res.PutStr("host.name", tr.Host)
	}
	if tr.Revision != "" {
		res.PutStr("service.version", tr.Revision)
	}

	ss := rs.ScopeSpans().AppendEmpty()
	ss.Scope().SetName(scopeName)

	traceID := traceIDFor(tr.RequestID)
	spans := ss.Spans()
	spans.EnsureCapacity(len(tr.Spans))

	for _, s := range tr.Spans {
		span := spans.AppendEmpty()
		span.SetTraceID(traceID)
		span.SetSpanID(spanIDFor(s.ID))
		if !s.IsRoot() {
			span.SetParentSpanID(spanIDFor(s.ParentID))
		}
		span.SetName(s.Operation)
		span.SetStartTimestamp(pcommon.NewTimestampFromTime(s.Start))
		span.SetEndTimestamp(pcommon.NewTimestampFromTime(s.Stop))

		attrs := span.Attributes()
		attrs.PutStr(attrSpanID, s.ID)
		for k, v := range s.Tags {
			putAttribute(attrs, k, v)
		}

		if s.IsRoot() {
			if tr.Type == TraceTypeWeb {
				span.SetKind(ptrace.SpanKindServer)
			} else {
				span.SetKind(ptrace.SpanKindInternal)
			}
			attrs.PutStr(attrRequestID, tr.RequestID)
			attrs.PutStr(attrTraceType, tr.Type.String())
			attrs.PutStr(attrPath, tr.Path)
			for k, v := range tr.Tags {
				putAttribute(attrs, attrRequestTags+k, v)
			}
		} else {
			span.SetKind(ptrace.SpanKindInternal)
		}
	}

	return traces
}

// traceIDFor derives a 16 byte OTLP trace id from a request id
func traceIDFor(requestID string) pcommon.TraceID {
	h := xxhash.New()
	_, _ = h.WriteString(requestID)
	hi := h.Sum64()
	_, _ = h.WriteString(":")
	lo := h.Sum64()

	var id pcommon.TraceID
	binary.BigEndian.PutUint64(id[:8], hi)
	binary.BigEndian.PutUint64(id[8:], lo)
	return id
}

// spanIDFor derives an 8 byte OTLP span id from a span id
func spanIDFor(spanID string) pcommon.SpanID {
	var id pcommon.SpanID
	binary.BigEndian.PutUint64(id[:], xxhash.Sum64String(spanID))
	return id
}

func putAttribute(attrs pcommon.Map, key string, value interface{}) {
	switch v := value.(type) {
	case string:
		attrs.PutStr(key, v)
	case int:
		attrs.PutInt(key, int64(v))
	case int64:
		attrs.PutInt(key, v)
	case int32:
		attrs.PutInt(key, int64(v))
	case float64:
		attrs.PutDouble(key, v)
	case float32:
		attrs.PutDouble(key, float64(v))
	case bool:
		attrs.PutBool(key, v)
	case []BacktraceFrame:
		slice := attrs.PutEmptySlice(key)
		slice.EnsureCapacity(len(v))
		for _, f := range v {
			m := slice.AppendEmpty().SetEmptyMap()
			m.PutStr("file", f.File)
			m.PutStr("line", f.Line)
			m.PutStr("function", f.Function)
		}
	case nil:
		attrs.PutStr(key, "")
	default:
		attrs.PutStr(key, fmt.Sprint(v))
	}
}
