package model

import "time"

// Reaction is one user's reaction of one kind to a comment. The unique index
// keeps a (comment, user, kind) triple from appearing twice.
type Reaction struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CommentID int64     `gorm:"not null;uniqueIndex:idx_reactions_unique,priority:1" json:"comment_id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_reactions_unique,priority:2;index:idx_reactions_user_id" json:"user_id"`
	Kind      string    `gorm:"size:64;not null;uniqueIndex:idx_reactions_unique,priority:3" json:"kind"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Comment Comment `gorm:"foreignKey:CommentID" json:"-"`
}

func (Reaction) TableName() string {
	return "reactions"
}

// ReactionCount is one row of a per-kind aggregate.
type ReactionCount struct {
	Kind  string
	Count int64
}
