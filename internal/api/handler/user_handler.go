package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"remark-go/internal/api/dto"
	"remark-go/internal/api/middleware"
	"remark-go/internal/api/response"
	"remark-go/internal/service"
	"remark-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserService is implemented by *service.UserService.
type UserService interface {
	List(ctx context.Context, q *dto.UserListQuery) ([]dto.UserInfo, error)
	Get(ctx context.Context, id int64) (*dto.UserInfo, error)
	Create(ctx context.Context, req *dto.UserCreateRequest) (*dto.UserInfo, error)
	UploadAvatar(ctx context.Context, actorID, userID int64, filename string, r io.Reader, size int64, contentType string) (*dto.UserInfo, error)
}

type UserHandler struct {
	userService UserService
}

func NewUserHandler(userService UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List lists users
// @Summary List users
// @Description Returns all users, or the one named by id. An unknown id returns an empty list.
// @Tags users
// @Produce json
// @Param id query string false "User id"
// @Success 200 {array} dto.UserInfo
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	var q dto.UserListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query: "+err.Error())
		return
	}

	items, err := h.userService.List(c.Request.Context(), &q)
	if err != nil {
		handleUserError(c, err)
		return
	}
	response.Record(c, http.StatusOK, items)
}

// Get GET /users/:id
func (h *UserHandler) Get(c *gin.Context) {
	userID, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	info, err := h.userService.Get(c.Request.Context(), userID)
	if err != nil {
		handleUserError(c, err)
		return
	}
	response.Record(c, http.StatusOK, info)
}

// Create seeds a user
// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Param request body dto.UserCreateRequest true "User"
// @Success 201 {object} dto.UserInfo
// @Failure 409 {object} response.ErrorResponse
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.UserCreateRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	info, err := h.userService.Create(c.Request.Context(), &req)
	if err != nil {
		handleUserError(c, err)
		return
	}
	response.Record(c, http.StatusCreated, info)
}

// UploadAvatar stores an avatar image
// @Summary Upload an avatar
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param X-User-Id header string true "Acting user"
// @Param id path int true "User id"
// @Param file formData file true "Image, at most 2 MiB"
// @Success 200 {object} response.Response{data=dto.UserInfo}
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /users/{id}/avatar [post]
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	userID, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file")
		return
	}
	src, err := file.Open()
	if err != nil {
		response.BadRequest(c, "unreadable file")
		return
	}
	defer src.Close()

	actorID, _ := middleware.GetCurrentUserID(c)

	info, err := h.userService.UploadAvatar(c.Request.Context(), actorID, userID,
		file.Filename, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		handleUserError(c, err)
		return
	}
	response.OK(c, "avatar updated", info)
}

func handleUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrActorRequired):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrUsernameExists):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrInvalidAvatar):
		response.BadRequest(c, err.Error())
	default:
		logger.Error("User operation failed", zap.Error(err))
		response.InternalError(c, "operation failed, please retry later")
	}
}
