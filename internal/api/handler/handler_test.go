package handler_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"remark-go/internal/api/dto"
	"remark-go/internal/api/handler"
	"remark-go/internal/api/router"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

type MockCommentService struct {
	mock.Mock
}

func (m *MockCommentService) List(ctx context.Context, q *dto.CommentListQuery) ([]dto.CommentInfo, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.CommentInfo), args.Error(1)
}

func (m *MockCommentService) Get(ctx context.Context, id int64) (*dto.CommentInfo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CommentInfo), args.Error(1)
}

func (m *MockCommentService) Create(ctx context.Context, actorID int64, req *dto.CommentCreateRequest) (*dto.CommentInfo, error) {
	args := m.Called(ctx, actorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CommentInfo), args.Error(1)
}

func (m *MockCommentService) Update(ctx context.Context, actorID, id int64, req *dto.CommentUpdateRequest) (*dto.CommentInfo, error) {
	args := m.Called(ctx, actorID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CommentInfo), args.Error(1)
}

func (m *MockCommentService) Delete(ctx context.Context, actorID, id int64) error {
	args := m.Called(ctx, actorID, id)
	return args.Error(0)
}

type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) Search(ctx context.Context, q *dto.SearchCommentQuery) (*dto.SearchCommentData, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SearchCommentData), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) List(ctx context.Context, q *dto.UserListQuery) ([]dto.UserInfo, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.UserInfo), args.Error(1)
}

func (m *MockUserService) Get(ctx context.Context, id int64) (*dto.UserInfo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UserInfo), args.Error(1)
}

func (m *MockUserService) Create(ctx context.Context, req *dto.UserCreateRequest) (*dto.UserInfo, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UserInfo), args.Error(1)
}

func (m *MockUserService) UploadAvatar(ctx context.Context, actorID, userID int64, filename string, r io.Reader, size int64, contentType string) (*dto.UserInfo, error) {
	args := m.Called(ctx, actorID, userID, filename, r, size, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UserInfo), args.Error(1)
}

type MockReactionService struct {
	mock.Mock
}

func (m *MockReactionService) List(ctx context.Context, q *dto.ReactionListQuery) ([]dto.ReactionInfo, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.ReactionInfo), args.Error(1)
}

func (m *MockReactionService) Create(ctx context.Context, actorID int64, req *dto.ReactionCreateRequest) (*dto.ReactionInfo, bool, error) {
	args := m.Called(ctx, actorID, req)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*dto.ReactionInfo), args.Bool(1), args.Error(2)
}

func (m *MockReactionService) Delete(ctx context.Context, actorID, id int64) error {
	args := m.Called(ctx, actorID, id)
	return args.Error(0)
}

func (m *MockReactionService) Summary(ctx context.Context, commentID, userID int64) ([]dto.ReactionSummaryItem, error) {
	args := m.Called(ctx, commentID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.ReactionSummaryItem), args.Error(1)
}

type mocks struct {
	comments  *MockCommentService
	search    *MockSearchService
	users     *MockUserService
	reactions *MockReactionService
}

// newTestEngine wires the real routes to mocked services.
func newTestEngine() (*gin.Engine, *mocks) {
	gin.SetMode(gin.TestMode)
	m := &mocks{
		comments:  new(MockCommentService),
		search:    new(MockSearchService),
		users:     new(MockUserService),
		reactions: new(MockReactionService),
	}
	r := gin.New()
	router.Setup(r,
		handler.NewCommentHandler(m.comments, m.search),
		handler.NewUserHandler(m.users),
		handler.NewReactionHandler(m.reactions),
		nil,
	)
	return r, m
}

func (m *mocks) assertExpectations(t *testing.T) {
	m.comments.AssertExpectations(t)
	m.search.AssertExpectations(t)
	m.users.AssertExpectations(t)
	m.reactions.AssertExpectations(t)
}

func do(r http.Handler, method, target, body, actor string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != "" {
		req.Header.Set("X-User-Id", actor)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
