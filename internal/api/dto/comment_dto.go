package dto

import "time"

// CommentCreateRequest is accepted as JSON or as a form. authorId may be left
// out when the X-User-Id header names the author.
type CommentCreateRequest struct {
	ThreadID string `json:"threadId" form:"threadId" binding:"required,max=255"`
	ParentID string `json:"parentId" form:"parentId"`
	AuthorID string `json:"authorId" form:"authorId"`
	Body     string `json:"body" form:"body" binding:"max=10000"`
}

// CommentUpdateRequest changes the body, the pin, or both.
type CommentUpdateRequest struct {
	Body    *string `json:"body" form:"body" binding:"omitempty,max=10000"`
	Sticked *bool   `json:"sticked" form:"sticked"`
}

type CommentListQuery struct {
	ThreadID string `form:"threadId" binding:"required,max=255"`
	Type     string `form:"type" binding:"omitempty,oneof=all sticked"`
}

// CommentInfo is the comment record of the remote contract. Ids are strings
// so clients can treat them as opaque.
type CommentInfo struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"threadId"`
	ParentID  *string   `json:"parentId"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	Sticked   bool      `json:"sticked"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
