package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"shadowtalk/pkg/logger"
)

// RequestLogger logs every HTTP request with latency and status.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.LogRequest(
			c.Request.Method,
			c.Request.URL.Path,
			c.ClientIP(),
			time.Since(start),
			c.Writer.Status(),
		)
	}
}
