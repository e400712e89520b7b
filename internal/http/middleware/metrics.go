package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"rides/internal/metrics"
)

// Metrics records request counts, latency and in-flight requests per route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		c.Next()
		metrics.RecordHTTP(c.Request.Method, routePath(c), c.Writer.Status(), time.Since(start))
	}
}
