package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prospectbingo/bingo/backend/go-services/pkg/logger"
)

// ReadinessCheck reports whether one dependency is usable.
type ReadinessCheck func(ctx context.Context) error

// RegisterHealth registers /health (liveness) and /ready. /ready answers 503
// when any check fails; the per-dependency result is in "deps".
func RegisterHealth(rg gin.IRouter, started time.Time, checks map[string]ReadinessCheck) {
	rg.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	rg.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		ready := true
		deps := map[string]bool{}
		for name, check := range checks {
			err := check(ctx)
			deps[name] = err == nil
			if err != nil {
				ready = false
				logger.Warnf("readiness: %s: %v", name, err)
			}
		}

		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(started).Round(time.Second).String()})
	})
}
