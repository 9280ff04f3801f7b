package handler_test

import (
	"net/http"
	"testing"

	"remark-go/internal/api/dto"
	"remark-go/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestReactionCreate_NewAndExisting(t *testing.T) {
	r, m := newTestEngine()
	req := &dto.ReactionCreateRequest{CommentID: "3", Kind: "like"}
	info := &dto.ReactionInfo{ID: "10", CommentID: "3", UserID: "1", Kind: "like"}
	m.reactions.On("Create", mock.Anything, int64(1), req).Return(info, true, nil).Once()
	m.reactions.On("Create", mock.Anything, int64(1), req).Return(info, false, nil).Once()

	w := do(r, http.MethodPost, "/api/v1/reactions", `{"commentId":"3","kind":"like"}`, "1")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"10"`)

	w = do(r, http.MethodPost, "/api/v1/reactions", `{"commentId":"3","kind":"like"}`, "1")
	assert.Equal(t, http.StatusOK, w.Code)
	m.assertExpectations(t)
}

func TestReactionCreate_DeletedComment(t *testing.T) {
	r, m := newTestEngine()
	m.reactions.On("Create", mock.Anything, int64(1), mock.Anything).Return(nil, false, service.ErrCommentDeleted)

	w := do(r, http.MethodPost, "/api/v1/reactions", `{"commentId":"3","kind":"like"}`, "1")

	assert.Equal(t, http.StatusConflict, w.Code)
	m.assertExpectations(t)
}

func TestReactionList_NeedsFilter(t *testing.T) {
	r, m := newTestEngine()
	m.reactions.On("List", mock.Anything, &dto.ReactionListQuery{}).Return(nil, service.ErrReactionFilter)
	m.reactions.On("List", mock.Anything, &dto.ReactionListQuery{ThreadID: "post"}).
		Return([]dto.ReactionInfo{}, nil)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/v1/reactions", "", "").Code)

	w := do(r, http.MethodGet, "/api/v1/reactions?threadId=post", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
	m.assertExpectations(t)
}

func TestReactionDelete(t *testing.T) {
	r, m := newTestEngine()
	m.reactions.On("Delete", mock.Anything, int64(1), int64(10)).Return(nil)
	m.reactions.On("Delete", mock.Anything, int64(0), int64(11)).Return(service.ErrActorRequired)

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/api/v1/reactions/10", "", "1").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodDelete, "/api/v1/reactions/11", "", "").Code)
	m.assertExpectations(t)
}

func TestReactionSummary_UserFromQueryOrActor(t *testing.T) {
	r, m := newTestEngine()
	items := []dto.ReactionSummaryItem{{Kind: "like", Count: 2, CurrentUserReacted: true}}
	m.reactions.On("Summary", mock.Anything, int64(3), int64(5)).Return(items, nil)
	m.reactions.On("Summary", mock.Anything, int64(3), int64(1)).Return(items, nil)

	w := do(r, http.MethodGet, "/api/v1/reactions/summary?commentId=3&userId=5", "", "1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"currentUserReacted":true`)

	w = do(r, http.MethodGet, "/api/v1/reactions/summary?commentId=3", "", "1")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/v1/reactions/summary?commentId=x", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	m.assertExpectations(t)
}
