package middleware

import (
	"remark-go/internal/api/response"
	"remark-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery turns a panic into a 500 carrying the request id, so the log line
// can be found from the client side.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			fields := []zap.Field{
				zap.Any("panic", rec),
				zap.String("request_id", c.GetString(ContextKeyRequestID)),
				zap.String("route", c.FullPath()),
				zap.String("method", c.Request.Method),
				zap.Stack("stack"),
			}
			if userID, ok := GetCurrentUserID(c); ok {
				fields = append(fields, zap.Int64("actor", userID))
			}
			logger.Error("Panic recovered", fields...)

			if !c.Writer.Written() {
				response.InternalError(c, "internal server error, request id "+c.GetString(ContextKeyRequestID))
			}
			c.Abort()
		}()

		c.Next()
	}
}
