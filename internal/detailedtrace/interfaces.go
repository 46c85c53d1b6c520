package detailedtrace

// AnnotationURI is the request annotation holding the request path
const AnnotationURI = "uri"

// Request is the instrumented request a trace is built from
type Request interface {
	// RootFrame returns the root of the call-frame tree, or nil if none was recorded
	RootFrame() *CallFrame

	// CaptureMemDelta returns the memory growth over the request in megabytes
	CaptureMemDelta() float64

	// IsWeb reports whether the request came from a web endpoint
	IsWeb() bool

	// IsJob reports whether the request is a background job
	IsJob() bool

	// Annotations returns request level annotations such as the URI
	Annotations() map[string]interface{}

	// UniqueName returns a stable name identifying the request
	UniqueName() string

	// Context returns the request context
	Context() RequestContext
}

// RequestContext carries environment metadata and user supplied context.
type RequestContext interface {
	// Environment returns the process environment metadata
	Environment() Environment

	// Flatten returns the context key/value pairs
	Flatten() (map[string]interface{}, error)
}

// Environment describes the running process
type Environment interface {
	// GitRevision returns the deployed code revision
	GitRevision() string

	// Hostname returns the host the process runs on
	Hostname() string
}

// Scorer decides how interesting a request is
type Scorer interface {
	// Score returns the request's score
	Score(req Request) float64

	// Stored acknowledges that the request's trace was kept
	Stored(req Request)
}

// Store decides whether and when a tracked builder is converted.
type Store interface {
	// TrackPossibleTrace offers a builder to the store
	TrackPossibleTrace(builder *TraceBuilder, score float64)
}
