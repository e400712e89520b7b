// README: Access log middleware on the structured logger.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"rides/internal/logger"
)

// Logging writes one line per request. Errors attached with c.Error are
// logged at error level, with the action and trip of the code that failed.
func Logging(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ctx := logger.WithAction(c.Request.Context(), "http_request")
		args := []any{
			"method", c.Request.Method,
			"path", routePath(c),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if err := c.Errors.Last(); err != nil {
			log.Error(logger.ErrorCtx(ctx, err.Err), "request failed", err.Err, args...)
			return
		}
		log.Info(ctx, "request handled", args...)
	}
}

func routePath(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return "unmatched"
}
