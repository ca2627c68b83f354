package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	appctx "medstore/internal/core/context"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

// Gin context keys set by the middleware chain.
const (
	KeyRequestID      = "request_id"
	KeyTraceID        = "trace_id"
	KeyUserID         = "user_id"
	KeyRole           = "role"
	KeyOrganizationID = "organization_id"
)

var tracer = otel.Tracer("medstore/http")

// Trace opens a server span per request and binds trace and request ids to it.
// A caller-supplied X-Trace-ID wins; otherwise the span's trace id is used when a
// tracer provider is installed, and a random one when not.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+route)
		defer span.End()

		traceID := c.GetHeader(HeaderTraceID)
		if sc := span.SpanContext(); traceID == "" && sc.HasTraceID() {
			traceID = sc.TraceID().String()
		}
		trace := appctx.NewTraceContext(traceID, c.GetHeader(HeaderRequestID))

		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.String("request.id", trace.RequestID),
		)
		c.Request = c.Request.WithContext(appctx.WithTrace(ctx, trace))

		c.Set(KeyTraceID, trace.TraceID)
		c.Set(KeyRequestID, trace.RequestID)
		c.Header(HeaderRequestID, trace.RequestID)
		c.Header(HeaderTraceID, trace.TraceID)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
