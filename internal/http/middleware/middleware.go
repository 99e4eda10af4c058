package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/markawm/acme-github-issues/core"
)

// Recovery turns a handler panic into a 500 and an error log line.
func Recovery(logger core.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				core.LogWithLevel(c.Request.Context(), logger, "error", "panic recovered", map[string]any{
					"path":  c.Request.URL.Path,
					"panic": fmt.Sprint(recovered),
				})
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// Logger writes one line per request.
func Logger(logger core.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startedAt := time.Now()
		c.Next()

		level := "info"
		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			level = "error"
		}
		core.LogWithLevel(c.Request.Context(), logger, level, "http request", map[string]any{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": status,
			"duration_ms": time.Since(startedAt).Milliseconds(),
			"client_ip":   c.ClientIP(),
		})
	}
}
