package repository

import (
	"context"

	"remark-go/internal/model"

	"gorm.io/gorm"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	var comment model.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByThread returns the comments of a thread in creation order, tombstones
// included. stickedOnly narrows the result to pinned comments.
func (r *CommentRepository) ListByThread(ctx context.Context, threadID string, stickedOnly bool) ([]model.Comment, error) {
	query := r.db.WithContext(ctx).Where("thread_id = ?", threadID)
	if stickedOnly {
		query = query.Where("sticked = ? AND deleted = ?", true, false)
	}

	var comments []model.Comment
	err := query.Order("created_at ASC, id ASC").Find(&comments).Error
	return comments, err
}

func (r *CommentRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.Comment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var comments []model.Comment
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&comments).Error
	return comments, err
}

// UpdateBody replaces the body of a live comment.
func (r *CommentRepository) UpdateBody(ctx context.Context, id int64, body string) error {
	result := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("id = ? AND deleted = ?", id, false).
		Update("body", body)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetSticked pins or unpins a comment. Pinning clears any other pin in the
// same thread within one transaction.
func (r *CommentRepository) SetSticked(ctx context.Context, comment *model.Comment, sticked bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if sticked {
			err := tx.Model(&model.Comment{}).
				Where("thread_id = ? AND id <> ? AND sticked = ?", comment.ThreadID, comment.ID, true).
				Update("sticked", false).Error
			if err != nil {
				return err
			}
		}
		return tx.Model(&model.Comment{}).Where("id = ?", comment.ID).Update("sticked", sticked).Error
	})
}

// Tombstone marks a comment deleted and clears its body. It reports false when
// the comment was already a tombstone.
func (r *CommentRepository) Tombstone(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("id = ? AND deleted = ?", id, false).
		Updates(map[string]interface{}{"deleted": true, "body": "", "sticked": false})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Search matches live comment bodies case-insensitively. It backs search when
// Elasticsearch is unavailable.
func (r *CommentRepository) Search(ctx context.Context, q, threadID string, limit int) ([]model.Comment, error) {
	query := r.db.WithContext(ctx).
		Where("deleted = ? AND body ILIKE ?", false, "%"+q+"%")
	if threadID != "" {
		query = query.Where("thread_id = ?", threadID)
	}

	var comments []model.Comment
	err := query.Order("created_at DESC").Limit(limit).Find(&comments).Error
	return comments, err
}

// ListLive pages through every live comment, oldest first. The worker uses it
// to rebuild the search index.
func (r *CommentRepository) ListLive(ctx context.Context, afterID int64, limit int) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.db.WithContext(ctx).
		Where("deleted = ? AND id > ?", false, afterID).
		Order("id ASC").Limit(limit).Find(&comments).Error
	return comments, err
}
