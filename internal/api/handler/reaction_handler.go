package handler

import (
	"context"
	"errors"
	"net/http"

	"remark-go/internal/api/dto"
	"remark-go/internal/api/middleware"
	"remark-go/internal/api/response"
	"remark-go/internal/service"
	"remark-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReactionService is implemented by *service.ReactionService.
type ReactionService interface {
	List(ctx context.Context, q *dto.ReactionListQuery) ([]dto.ReactionInfo, error)
	Create(ctx context.Context, actorID int64, req *dto.ReactionCreateRequest) (*dto.ReactionInfo, bool, error)
	Delete(ctx context.Context, actorID, id int64) error
	Summary(ctx context.Context, commentID, userID int64) ([]dto.ReactionSummaryItem, error)
}

type ReactionHandler struct {
	reactionService ReactionService
}

func NewReactionHandler(reactionService ReactionService) *ReactionHandler {
	return &ReactionHandler{reactionService: reactionService}
}

// List lists reactions
// @Summary List reactions of a thread or a comment
// @Tags reactions
// @Produce json
// @Param threadId query string false "Thread id"
// @Param commentId query string false "Comment id"
// @Success 200 {array} dto.ReactionInfo
// @Failure 400 {object} response.ErrorResponse
// @Router /reactions [get]
func (h *ReactionHandler) List(c *gin.Context) {
	var q dto.ReactionListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query: "+err.Error())
		return
	}

	items, err := h.reactionService.List(c.Request.Context(), &q)
	if err != nil {
		handleReactionError(c, err)
		return
	}
	response.Record(c, http.StatusOK, items)
}

// Create adds a reaction
// @Summary React to a comment
// @Description A repeated (comment, user, kind) returns the existing reaction with 200
// @Tags reactions
// @Accept json
// @Produce json
// @Param X-User-Id header string false "Acting user"
// @Param request body dto.ReactionCreateRequest true "Reaction"
// @Success 201 {object} dto.ReactionInfo
// @Success 200 {object} dto.ReactionInfo
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Comment is deleted"
// @Router /reactions [post]
func (h *ReactionHandler) Create(c *gin.Context) {
	var req dto.ReactionCreateRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	actorID, _ := middleware.GetCurrentUserID(c)

	info, created, err := h.reactionService.Create(c.Request.Context(), actorID, &req)
	if err != nil {
		handleReactionError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.Record(c, status, info)
}

// Delete removes a reaction
// @Summary Remove a reaction
// @Tags reactions
// @Param X-User-Id header string true "Acting user"
// @Param id path int true "Reaction id"
// @Success 204
// @Failure 403 {object} response.ErrorResponse
// @Router /reactions/{id} [delete]
func (h *ReactionHandler) Delete(c *gin.Context) {
	reactionID, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "invalid reaction id")
		return
	}

	actorID, _ := middleware.GetCurrentUserID(c)

	if err := h.reactionService.Delete(c.Request.Context(), actorID, reactionID); err != nil {
		handleReactionError(c, err)
		return
	}
	response.NoContent(c)
}

// Summary aggregates reactions
// @Summary Reaction counts of a comment
// @Tags reactions
// @Produce json
// @Param commentId query string true "Comment id"
// @Param userId query string false "Flag this user's reactions"
// @Success 200 {object} response.Response{data=[]dto.ReactionSummaryItem}
// @Router /reactions/summary [get]
func (h *ReactionHandler) Summary(c *gin.Context) {
	var q dto.ReactionSummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query: "+err.Error())
		return
	}
	commentID, err := service.ParseID(q.CommentID)
	if err != nil {
		response.BadRequest(c, "invalid commentId")
		return
	}

	var userID int64
	if q.UserID != "" {
		if userID, err = service.ParseID(q.UserID); err != nil {
			response.BadRequest(c, "invalid userId")
			return
		}
	} else {
		userID, _ = middleware.GetCurrentUserID(c)
	}

	items, err := h.reactionService.Summary(c.Request.Context(), commentID, userID)
	if err != nil {
		handleReactionError(c, err)
		return
	}
	response.OK(c, "ok", items)
}

func handleReactionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrActorRequired):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrCommentNotFound),
		errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrCommentDeleted):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrReactionFilter),
		errors.Is(err, service.ErrEmptyKind),
		errors.Is(err, service.ErrInvalidID):
		response.BadRequest(c, err.Error())
	default:
		logger.Error("Reaction operation failed", zap.Error(err))
		response.InternalError(c, "operation failed, please retry later")
	}
}
