package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"execsummary-backend/internal/shared/telemetry"
)

// Logging emits one request.complete line per request. Synthesis calls and
// server errors log at warn or error so slow model calls stand out.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		fields := scopeFields(c)
		fields["status"] = c.Writer.Status()
		fields["duration_ms"] = float64(time.Since(start).Microseconds()) / 1000.0
		fields["client_ip"] = c.ClientIP()
		fields["user_agent"] = c.Request.UserAgent()
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			telemetry.Error("request.complete", fields)
		case status == http.StatusTooManyRequests:
			telemetry.Warn("request.complete", fields)
		default:
			telemetry.Info("request.complete", fields)
		}
	}
}
