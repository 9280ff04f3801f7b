package middleware

import (
	"time"

	"remark-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger writes one line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", c.GetString(ContextKeyRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("duration", time.Since(start)),
			zap.Int("body_size", c.Writer.Size()),
		}
		if userID, ok := GetCurrentUserID(c); ok {
			fields = append(fields, zap.Int64("actor", userID))
		}
		logger.Info("HTTP Request", fields...)

		for _, e := range c.Errors {
			logger.Error("Request Error",
				zap.String("request_id", c.GetString(ContextKeyRequestID)),
				zap.String("error", e.Error()),
				zap.Any("type", e.Type),
			)
		}
	}
}
