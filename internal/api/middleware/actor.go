package middleware

import (
	"strconv"
	"strings"

	"remark-go/internal/api/response"

	"github.com/gin-gonic/gin"
)

const (
	// ActorHeader names the acting user. Requests without it are anonymous.
	ActorHeader = "X-User-Id"

	ContextKeyUserID = "currentUserID"
)

// Actor stores the id from ActorHeader in the context. A malformed id is
// rejected; a missing one leaves the request anonymous.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(ActorHeader))
		if raw == "" {
			c.Next()
			return
		}

		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			response.BadRequest(c, "invalid "+ActorHeader+" header")
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, userID)
		c.Next()
	}
}

// GetCurrentUserID returns the acting user, or false for anonymous requests.
func GetCurrentUserID(c *gin.Context) (int64, bool) {
	val, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0, false
	}
	userID, ok := val.(int64)
	return userID, ok
}
