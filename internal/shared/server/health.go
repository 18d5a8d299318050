package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"execsummary-backend/internal/shared/server/respond"
	"execsummary-backend/internal/shared/telemetry"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

func healthHandler(p Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true, "database": "memory"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := p.PingContext(ctx); err != nil {
			telemetry.Warn("health.db_unreachable", map[string]any{"error": err.Error()})
			respond.JSON(c, http.StatusServiceUnavailable, gin.H{"ok": false, "database": "unreachable"})
			return
		}
		respond.JSON(c, http.StatusOK, gin.H{"ok": true, "database": "ok"})
	}
}
