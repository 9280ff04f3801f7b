package model

import "time"

const (
	RoleUser      = "user"
	RoleModerator = "moderator"

	AvatarSquare = "square"
	AvatarCircle = "circle"
)

type User struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username   string    `gorm:"size:255;not null;uniqueIndex" json:"username"`
	Avatar     *string   `gorm:"size:500" json:"avatar"`
	AvatarType string    `gorm:"size:16;not null;default:'square'" json:"avatar_type"`
	Role       string    `gorm:"size:32;not null;default:'user'" json:"role"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}
