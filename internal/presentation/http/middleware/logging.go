package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/performance"
)

// RequestLogger records every request on the system channel and as a
// performance marker. Server errors are logged at error level.
func RequestLogger(logger *logging.ChanneledLogger, perfTracker *performance.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		marker := perfTracker.StartOperation("http:"+c.Request.Method+" "+route, "")

		c.Next()

		status := c.Writer.Status()
		marker.AddMetadata("status", status)
		marker.SetSuccess(status < 500)
		marker.Complete()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", marker.Elapsed(),
			"clientIp", c.ClientIP(),
		}
		switch {
		case status >= 500:
			logger.System().Error("Request failed", attrs...)
		case status >= 400:
			logger.System().Warn("Request rejected", attrs...)
		default:
			logger.System().Debug("Request completed", attrs...)
		}
	}
}
