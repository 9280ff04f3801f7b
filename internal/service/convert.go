package service

import (
	"errors"
	"strconv"
	"strings"

	"remark-go/internal/api/dto"
	"remark-go/internal/model"
)

var ErrInvalidID = errors.New("invalid id")

// ParseID reads a decimal record id.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func toCommentInfo(c *model.Comment) *dto.CommentInfo {
	info := &dto.CommentInfo{
		ID:        formatID(c.ID),
		ThreadID:  c.ThreadID,
		AuthorID:  formatID(c.AuthorID),
		Body:      c.Body,
		Sticked:   c.Sticked,
		Deleted:   c.Deleted,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.ParentID != nil {
		pid := formatID(*c.ParentID)
		info.ParentID = &pid
	}
	return info
}

func toCommentInfos(comments []model.Comment) []dto.CommentInfo {
	items := make([]dto.CommentInfo, 0, len(comments))
	for i := range comments {
		items = append(items, *toCommentInfo(&comments[i]))
	}
	return items
}

func toUserInfo(u *model.User) *dto.UserInfo {
	return &dto.UserInfo{
		ID:         formatID(u.ID),
		Username:   u.Username,
		Avatar:     u.Avatar,
		AvatarType: u.AvatarType,
		Role:       u.Role,
	}
}

func toReactionInfo(r *model.Reaction) *dto.ReactionInfo {
	return &dto.ReactionInfo{
		ID:        formatID(r.ID),
		CommentID: formatID(r.CommentID),
		UserID:    formatID(r.UserID),
		Kind:      r.Kind,
		CreatedAt: r.CreatedAt,
	}
}
