package service

import (
	"context"
	"testing"

	"remark-go/internal/api/dto"
	"remark-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reactionFixture struct {
	svc       *ReactionService
	comments  *memComments
	reactions *memReactions
}

func newReactionFixture(t *testing.T) *reactionFixture {
	t.Helper()
	users := newMemUsers(
		model.User{ID: 1, Username: "ana"},
		model.User{ID: 2, Username: "bo"},
		model.User{ID: 3, Username: "mod", Role: model.RoleModerator},
	)
	f := &reactionFixture{comments: newMemComments(), reactions: newMemReactions()}
	f.svc = NewReactionService(f.reactions, f.comments, users)

	ctx := context.Background()
	for _, c := range []*model.Comment{
		{ThreadID: "post", AuthorID: 1, Body: "one"},
		{ThreadID: "post", AuthorID: 2, Body: "two"},
		{ThreadID: "other", AuthorID: 2, Body: "three"},
	} {
		require.NoError(t, f.comments.Create(ctx, c))
		f.reactions.threads[c.ID] = c.ThreadID
	}
	return f
}

func (f *reactionFixture) react(t *testing.T, actor int64, commentID, kind string) (*dto.ReactionInfo, bool) {
	t.Helper()
	info, created, err := f.svc.Create(context.Background(), actor, &dto.ReactionCreateRequest{CommentID: commentID, Kind: kind})
	require.NoError(t, err)
	return info, created
}

func TestReactionCreate_Duplicate(t *testing.T) {
	f := newReactionFixture(t)

	first, created := f.react(t, 1, "1", "like")
	assert.True(t, created)
	again, created := f.react(t, 1, "1", "like")
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	_, created = f.react(t, 1, "1", "heart")
	assert.True(t, created)
	_, created = f.react(t, 2, "1", "like")
	assert.True(t, created)
}

func TestReactionCreate_Rejections(t *testing.T) {
	f := newReactionFixture(t)
	ctx := context.Background()
	_, err := f.comments.Tombstone(ctx, 2)
	require.NoError(t, err)

	cases := []struct {
		name  string
		actor int64
		req   dto.ReactionCreateRequest
		want  error
	}{
		{"anonymous", 0, dto.ReactionCreateRequest{CommentID: "1", Kind: "like"}, ErrActorRequired},
		{"other user in body", 1, dto.ReactionCreateRequest{CommentID: "1", UserID: "2", Kind: "like"}, ErrNoPermission},
		{"blank kind", 1, dto.ReactionCreateRequest{CommentID: "1", Kind: " "}, ErrEmptyKind},
		{"unknown comment", 1, dto.ReactionCreateRequest{CommentID: "99", Kind: "like"}, ErrCommentNotFound},
		{"deleted comment", 1, dto.ReactionCreateRequest{CommentID: "2", Kind: "like"}, ErrCommentDeleted},
		{"unknown user", 9, dto.ReactionCreateRequest{CommentID: "1", Kind: "like"}, ErrUserNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			_, _, err := f.svc.Create(ctx, tc.actor, &req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestReactionDelete(t *testing.T) {
	f := newReactionFixture(t)
	ctx := context.Background()
	mine, _ := f.react(t, 1, "1", "like")
	id := mustID(t, mine.ID)

	assert.ErrorIs(t, f.svc.Delete(ctx, 2, id), ErrNoPermission)
	assert.ErrorIs(t, f.svc.Delete(ctx, 0, id), ErrActorRequired)

	require.NoError(t, f.svc.Delete(ctx, 1, id))
	require.NoError(t, f.svc.Delete(ctx, 1, id), "deleting twice succeeds")

	theirs, _ := f.react(t, 2, "1", "like")
	require.NoError(t, f.svc.Delete(ctx, 3, mustID(t, theirs.ID)), "moderators remove any reaction")

	left, err := f.svc.List(ctx, &dto.ReactionListQuery{CommentID: "1"})
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestReactionList_Filters(t *testing.T) {
	f := newReactionFixture(t)
	ctx := context.Background()
	f.react(t, 1, "1", "like")
	f.react(t, 1, "2", "like")
	f.react(t, 1, "3", "like")

	_, err := f.svc.List(ctx, &dto.ReactionListQuery{})
	assert.ErrorIs(t, err, ErrReactionFilter)

	byThread, err := f.svc.List(ctx, &dto.ReactionListQuery{ThreadID: "post"})
	require.NoError(t, err)
	assert.Len(t, byThread, 2)

	byComment, err := f.svc.List(ctx, &dto.ReactionListQuery{CommentID: "3"})
	require.NoError(t, err)
	require.Len(t, byComment, 1)
	assert.Equal(t, "3", byComment[0].CommentID)

	none, err := f.svc.List(ctx, &dto.ReactionListQuery{CommentID: "nope"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReactionSummary(t *testing.T) {
	f := newReactionFixture(t)
	ctx := context.Background()
	f.react(t, 1, "1", "like")
	f.react(t, 2, "1", "like")
	f.react(t, 2, "1", "heart")

	items, err := f.svc.Summary(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []dto.ReactionSummaryItem{
		{Kind: "heart", Count: 1, CurrentUserReacted: false},
		{Kind: "like", Count: 2, CurrentUserReacted: true},
	}, items)

	anon, err := f.svc.Summary(ctx, 1, 0)
	require.NoError(t, err)
	for _, it := range anon {
		assert.False(t, it.CurrentUserReacted)
	}

	_, err = f.svc.Summary(ctx, 99, 0)
	assert.ErrorIs(t, err, ErrCommentNotFound)
}
