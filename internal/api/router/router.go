package router

import (
	"remark-go/internal/api/handler"
	"remark-go/internal/api/middleware"

	"github.com/gin-gonic/gin"
)

// Setup registers the API routes under /api/v1. limiter guards every route
// of the group; pass nil to disable rate limiting.
func Setup(
	r *gin.Engine,
	commentHandler *handler.CommentHandler,
	userHandler *handler.UserHandler,
	reactionHandler *handler.ReactionHandler,
	limiter *middleware.IPRateLimiter,
) {
	v1 := r.Group("/api/v1", middleware.Actor())
	if limiter != nil {
		v1.Use(middleware.RateLimit(limiter))
	}

	comments := v1.Group("/comments")
	{
		comments.GET("", commentHandler.List)
		comments.POST("", commentHandler.Create)
		comments.GET("/search", commentHandler.Search)
		comments.GET("/:id", commentHandler.Get)
		comments.PUT("/:id", commentHandler.Update)
		comments.PATCH("/:id", commentHandler.Update)
		comments.DELETE("/:id", commentHandler.Delete)
	}

	users := v1.Group("/users")
	{
		users.GET("", userHandler.List)
		users.POST("", userHandler.Create)
		users.GET("/:id", userHandler.Get)
		users.POST("/:id/avatar", userHandler.UploadAvatar)
	}

	reactions := v1.Group("/reactions")
	{
		reactions.GET("", reactionHandler.List)
		reactions.POST("", reactionHandler.Create)
		reactions.GET("/summary", reactionHandler.Summary)
		reactions.DELETE("/:id", reactionHandler.Delete)
	}
}
