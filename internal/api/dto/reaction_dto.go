package dto

import "time"

type ReactionCreateRequest struct {
	CommentID string `json:"commentId" form:"commentId" binding:"required"`
	UserID    string `json:"userId" form:"userId"`
	Kind      string `json:"kind" form:"kind" binding:"required,max=64"`
}

// ReactionListQuery needs one of its filters.
type ReactionListQuery struct {
	ThreadID  string `form:"threadId"`
	CommentID string `form:"commentId"`
}

type ReactionSummaryQuery struct {
	CommentID string `form:"commentId" binding:"required"`
	UserID    string `form:"userId"`
}

type ReactionInfo struct {
	ID        string    `json:"id"`
	CommentID string    `json:"commentId"`
	UserID    string    `json:"userId"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReactionSummaryItem is the per-kind aggregate of one comment.
type ReactionSummaryItem struct {
	Kind               string `json:"kind"`
	Count              int64  `json:"count"`
	CurrentUserReacted bool   `json:"currentUserReacted"`
}
