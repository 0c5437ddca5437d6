package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/teacher-ratings-api/pkg/middleware/requestid"
)

// Audit logs every admin request that reached a handler, tagged with the
// resource and action, after the response is written.
func Audit(logger *zap.Logger, resource, action string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		username := ""
		if claims, ok := CurrentAdmin(c); ok {
			username = claims.Username
		}
		fields := []zap.Field{
			zap.String("resource", resource),
			zap.String("action", action),
			zap.String("admin", username),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", requestid.Value(c)),
		}
		if c.Writer.Status() >= 400 {
			logger.Warn("admin action rejected", fields...)
			return
		}
		logger.Info("admin action", fields...)
	}
}
