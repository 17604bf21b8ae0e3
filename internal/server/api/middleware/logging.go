package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joekir/ssdeepviz/internal/logger"
	"github.com/joekir/ssdeepviz/internal/server/metrics"
)

// LoggingMiddleware logs each request and records its latency.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(statusCode)).Inc()
		metrics.HTTPDuration.WithLabelValues(route).Observe(latency.Seconds())

		if raw != "" {
			path = path + "?" + raw
		}
		logger.Debugf("[%s] %s - %d (%v)", c.Request.Method, path, statusCode, latency)
	}
}
