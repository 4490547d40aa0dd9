package server

import (
	"strconv"
	"time"

	"github.com/emrgen/travelexpense/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestTimeInterceptor logs the handling time of every request.
func RequestTimeInterceptor() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		reqTime := time.Since(start)
		logrus.Infof("request time: %v: %v", c.Request.Method+" "+routePath(c), reqTime)
	}
}

// MetricsInterceptor records the request count and latency per route.
func MetricsInterceptor() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		metrics.RecordHTTPRequest(c.Request.Method, routePath(c), status, time.Since(start).Seconds())
	}
}

// routePath returns the route template so that ids do not blow up label cardinality.
func routePath(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return "unmatched"
}
