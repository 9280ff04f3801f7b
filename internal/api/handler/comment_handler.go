package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"remark-go/internal/api/dto"
	"remark-go/internal/api/middleware"
	"remark-go/internal/api/response"
	"remark-go/internal/service"
	"remark-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CommentService is implemented by *service.CommentService.
type CommentService interface {
	List(ctx context.Context, q *dto.CommentListQuery) ([]dto.CommentInfo, error)
	Get(ctx context.Context, id int64) (*dto.CommentInfo, error)
	Create(ctx context.Context, actorID int64, req *dto.CommentCreateRequest) (*dto.CommentInfo, error)
	Update(ctx context.Context, actorID, id int64, req *dto.CommentUpdateRequest) (*dto.CommentInfo, error)
	Delete(ctx context.Context, actorID, id int64) error
}

// SearchService is implemented by *service.SearchService.
type SearchService interface {
	Search(ctx context.Context, q *dto.SearchCommentQuery) (*dto.SearchCommentData, error)
}

type CommentHandler struct {
	commentService CommentService
	searchService  SearchService
}

func NewCommentHandler(commentService CommentService, searchService SearchService) *CommentHandler {
	return &CommentHandler{commentService: commentService, searchService: searchService}
}

// List lists a thread
// @Summary List the comments of a thread
// @Description Returns every comment of the thread in creation order, deleted ones included as tombstones
// @Tags comments
// @Produce json
// @Param threadId query string true "Thread id"
// @Param type query string false "all or sticked"
// @Success 200 {array} dto.CommentInfo
// @Failure 400 {object} response.ErrorResponse
// @Router /comments [get]
func (h *CommentHandler) List(c *gin.Context) {
	var q dto.CommentListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query: "+err.Error())
		return
	}

	items, err := h.commentService.List(c.Request.Context(), &q)
	if err != nil {
		handleCommentError(c, err)
		return
	}
	response.Record(c, http.StatusOK, items)
}

// Get GET /comments/:id
func (h *CommentHandler) Get(c *gin.Context) {
	commentID, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "invalid comment id")
		return
	}

	info, err := h.commentService.Get(c.Request.Context(), commentID)
	if err != nil {
		handleCommentError(c, err)
		return
	}
	response.Record(c, http.StatusOK, info)
}

// Create posts a comment
// @Summary Post a comment or a reply
// @Tags comments
// @Accept json
// @Produce json
// @Param X-User-Id header string false "Acting user"
// @Param request body dto.CommentCreateRequest true "Comment"
// @Success 201 {object} dto.CommentInfo
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse "Parent or author not found"
// @Failure 409 {object} response.ErrorResponse "Parent is deleted"
// @Router /comments [post]
func (h *CommentHandler) Create(c *gin.Context) {
	var req dto.CommentCreateRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	actorID, _ := middleware.GetCurrentUserID(c)

	info, err := h.commentService.Create(c.Request.Context(), actorID, &req)
	if err != nil {
		handleCommentError(c, err)
		return
	}
	response.Record(c, http.StatusCreated, info)
}

// Update edits a comment
// @Summary Edit the body or the pin of a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Acting user"
// @Param id path int true "Comment id"
// @Param request body dto.CommentUpdateRequest true "Changes"
// @Success 200 {object} dto.CommentInfo
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /comments/{id} [put]
// @Router /comments/{id} [patch]
func (h *CommentHandler) Update(c *gin.Context) {
	commentID, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "invalid comment id")
		return
	}

	var req dto.CommentUpdateRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	actorID, _ := middleware.GetCurrentUserID(c)

	info, err := h.commentService.Update(c.Request.Context(), actorID, commentID, &req)
	if err != nil {
		handleCommentError(c, err)
		return
	}
	response.Record(c, http.StatusOK, info)
}

// Delete tombstones a comment
// @Summary Delete a comment
// @Description The comment stays as a tombstone so its replies keep their parent. Deleting twice succeeds.
// @Tags comments
// @Param X-User-Id header string true "Acting user"
// @Param id path int true "Comment id"
// @Success 204
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /comments/{id} [delete]
func (h *CommentHandler) Delete(c *gin.Context) {
	commentID, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "invalid comment id")
		return
	}

	actorID, _ := middleware.GetCurrentUserID(c)

	if err := h.commentService.Delete(c.Request.Context(), actorID, commentID); err != nil {
		handleCommentError(c, err)
		return
	}
	response.NoContent(c)
}

// Search searches comment bodies
// @Summary Search comments
// @Tags comments
// @Produce json
// @Param q query string true "Query"
// @Param threadId query string false "Restrict to a thread"
// @Param limit query int false "At most 100"
// @Success 200 {object} response.Response{data=dto.SearchCommentData}
// @Router /comments/search [get]
func (h *CommentHandler) Search(c *gin.Context) {
	var q dto.SearchCommentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query: "+err.Error())
		return
	}

	data, err := h.searchService.Search(c.Request.Context(), &q)
	if err != nil {
		logger.Error("Comment search failed", zap.Error(err))
		response.InternalError(c, "search failed")
		return
	}
	response.OK(c, "ok", data)
}

func parseIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err == nil && id <= 0 {
		err = service.ErrInvalidID
	}
	return id, err
}

func handleCommentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrActorRequired):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrCommentNotFound),
		errors.Is(err, service.ErrParentNotFound),
		errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrCommentDeleted),
		errors.Is(err, service.ErrParentDeleted):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrParentThreadMismatch),
		errors.Is(err, service.ErrEmptyBody),
		errors.Is(err, service.ErrNothingToUpdate),
		errors.Is(err, service.ErrInvalidID):
		response.BadRequest(c, err.Error())
	default:
		logger.Error("Comment operation failed", zap.Error(err))
		response.InternalError(c, "operation failed, please retry later")
	}
}
