package repository

import (
	"context"

	"remark-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) *ReactionRepository {
	return &ReactionRepository{db: db}
}

// Create inserts a reaction unless the same (comment, user, kind) exists, and
// reports whether a row was written. r is filled from the stored row either
// way.
func (r *ReactionRepository) Create(ctx context.Context, reaction *model.Reaction) (bool, error) {
	db := r.db.WithContext(ctx)
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(reaction)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	err := db.Where("comment_id = ? AND user_id = ? AND kind = ?",
		reaction.CommentID, reaction.UserID, reaction.Kind).
		First(reaction).Error
	return false, err
}

func (r *ReactionRepository) GetByID(ctx context.Context, id int64) (*model.Reaction, error) {
	var reaction model.Reaction
	if err := r.db.WithContext(ctx).First(&reaction, id).Error; err != nil {
		return nil, err
	}
	return &reaction, nil
}

func (r *ReactionRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&model.Reaction{}, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteByComment drops every reaction on a comment.
func (r *ReactionRepository) DeleteByComment(ctx context.Context, commentID int64) error {
	return r.db.WithContext(ctx).Where("comment_id = ?", commentID).Delete(&model.Reaction{}).Error
}

func (r *ReactionRepository) ListByComment(ctx context.Context, commentID int64) ([]model.Reaction, error) {
	var reactions []model.Reaction
	err := r.db.WithContext(ctx).Where("comment_id = ?", commentID).Order("id ASC").Find(&reactions).Error
	return reactions, err
}

// ListByThread returns the reactions on every comment of a thread.
func (r *ReactionRepository) ListByThread(ctx context.Context, threadID string) ([]model.Reaction, error) {
	var reactions []model.Reaction
	err := r.db.WithContext(ctx).
		Joins("JOIN comments ON comments.id = reactions.comment_id").
		Where("comments.thread_id = ?", threadID).
		Order("reactions.id ASC").
		Find(&reactions).Error
	return reactions, err
}

// CountByKind aggregates the reactions on a comment.
func (r *ReactionRepository) CountByKind(ctx context.Context, commentID int64) ([]model.ReactionCount, error) {
	var counts []model.ReactionCount
	err := r.db.WithContext(ctx).Model(&model.Reaction{}).
		Select("kind, COUNT(*) AS count").
		Where("comment_id = ?", commentID).
		Group("kind").
		Order("kind ASC").
		Scan(&counts).Error
	return counts, err
}

// KindsByUser returns the kinds userID reacted with on a comment.
func (r *ReactionRepository) KindsByUser(ctx context.Context, commentID, userID int64) ([]string, error) {
	var kinds []string
	err := r.db.WithContext(ctx).Model(&model.Reaction{}).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Pluck("kind", &kinds).Error
	return kinds, err
}
