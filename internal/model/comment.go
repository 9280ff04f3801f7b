package model

import "time"

// Comment is one entry of a thread. Deleted comments stay in the table as
// tombstones so their replies keep a parent.
type Comment struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ThreadID  string    `gorm:"size:255;not null;index:idx_comments_thread_created,priority:1" json:"thread_id"`
	ParentID  *int64    `gorm:"index:idx_comments_parent_id" json:"parent_id"`
	AuthorID  int64     `gorm:"not null;index:idx_comments_author_id" json:"author_id"`
	Body      string    `gorm:"type:text;not null;default:''" json:"body"`
	Sticked   bool      `gorm:"not null;default:false" json:"sticked"`
	Deleted   bool      `gorm:"not null;default:false" json:"deleted"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_comments_thread_created,priority:2" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Author User `gorm:"foreignKey:AuthorID" json:"-"`
}

func (Comment) TableName() string {
	return "comments"
}

// Comment event types published on the comment topic.
const (
	CommentCreated = "created"
	CommentUpdated = "updated"
	CommentDeleted = "deleted"
)

// CommentEvent is the message written to Kafka after every comment change.
type CommentEvent struct {
	Type       string    `json:"type"`
	Comment    Comment   `json:"comment"`
	ActorID    int64     `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
