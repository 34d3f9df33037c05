package middleware

import (
	"time" // Request timing

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// RequestLogger logs one line per request with logrus
func RequestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now() // Start timer
		c.Next()            // Process request
		fields := logrus.Fields{
			"method":  c.Request.Method,           // HTTP method
			"path":    c.Request.URL.Path,         // Request path
			"status":  c.Writer.Status(),          // Response status
			"latency": time.Since(start).String(), // Time spent
			"client":  c.ClientIP(),               // Caller address
		}
		if userID, exists := c.Get("userID"); exists {
			fields["user_id"] = userID // Present on authenticated routes
		}
		entry := log.WithFields(fields)
		switch {
		case len(c.Errors) > 0:
			entry.WithField("error", c.Errors.String()).Error("Request failed")
		case c.Writer.Status() >= 500:
			entry.Error("Request failed")
		default:
			entry.Info("Request handled")
		}
	}
}
