package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPRecorder receives one observation per completed request.
type HTTPRecorder interface {
	RecordHTTPRequest(method, path string, status int, duration time.Duration)
}

// InFlight tracks concurrently served requests.
type InFlight interface {
	Inc()
	Dec()
}

// Metrics returns a middleware that records request counts and latency.
// Routes are labelled by their pattern so path parameters do not explode cardinality.
func Metrics(rec HTTPRecorder, inflight InFlight) gin.HandlerFunc {
	return func(c *gin.Context) {
		if inflight != nil {
			inflight.Inc()
			defer inflight.Dec()
		}
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		rec.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
