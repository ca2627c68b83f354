package context

import (
	"context"

	"github.com/google/uuid"
)

// TraceContext identifies one inbound request across logs, spans and responses.
type TraceContext struct {
	// TraceID is shared with the caller (X-Trace-ID) or taken from the active span
	TraceID string
	// RequestID is unique per request even when a client retries with the same trace
	RequestID string
}

type traceContextKey struct{}

// NewTraceContext fills in any missing identifier.
func NewTraceContext(traceID, requestID string) *TraceContext {
	if traceID == "" {
		traceID = uuid.NewString()
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return &TraceContext{TraceID: traceID, RequestID: requestID}
}

func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns the request's TraceContext, or nil outside a request.
func GetTrace(ctx context.Context) *TraceContext {
	trace, _ := ctx.Value(traceContextKey{}).(*TraceContext)
	return trace
}
