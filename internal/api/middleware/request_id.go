package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/railzwaylabs/planchange/pkg/telemetry/correlation"
)

const RequestIDKey = "request_id"

// RequestID seeds the request context with a correlation id, reusing the
// caller's X-Request-ID and traceparent when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if rid := strings.TrimSpace(c.GetHeader(correlation.HeaderRequestID)); rid != "" && len(rid) <= 128 {
			ctx = correlation.ContextWithCorrelationID(ctx, rid)
		}
		ctx, rid := correlation.EnsureCorrelationID(ctx)

		if traceID, spanID := correlation.ParseTraceparent(c.GetHeader("traceparent")); traceID != "" {
			ctx = correlation.ContextWithRemoteSpan(ctx, traceID, spanID)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Set(RequestIDKey, rid)
		c.Header(correlation.HeaderRequestID, rid)
		c.Next()
	}
}
