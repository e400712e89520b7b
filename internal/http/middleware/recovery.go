// README: Recovery middleware; turns panics into a logged 500.
package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"rides/internal/logger"
)

func Recovery(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if p := recover(); p != nil {
				ctx := logger.WithAction(c.Request.Context(), "panic")
				log.Error(ctx, "handler panicked", fmt.Errorf("%v", p), "path", c.Request.URL.Path)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
		}()
		c.Next()
	}
}
