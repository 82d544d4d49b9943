package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"timetrack-auth/internal/authctx"
)

// RequestLogger logs one line per request and stores the client IP on the
// request context for the audit trail.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ip := c.ClientIP()
		c.Request = c.Request.WithContext(authctx.WithClientIP(c.Request.Context(), ip))

		c.Next()

		log.Printf("http: %s %s %d %s ip=%s",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start).Round(time.Microsecond),
			ip,
		)
	}
}
