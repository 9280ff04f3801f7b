package service

import (
	"context"
	"strings"
	"time"

	"remark-go/internal/api/dto"
	"remark-go/internal/model"
	"remark-go/pkg/logger"

	"go.uber.org/zap"
)

const (
	defaultSearchLimit = 20
	searchTimeout      = 5 * time.Second
)

// CommentIndex is a full-text index of comment bodies returning matching ids
// by relevance. The elasticsearch infra package implements it.
type CommentIndex interface {
	SearchComments(ctx context.Context, q, threadID string, limit int) ([]int64, error)
}

type CommentSearchStore interface {
	Search(ctx context.Context, q, threadID string, limit int) ([]model.Comment, error)
	GetByIDs(ctx context.Context, ids []int64) ([]model.Comment, error)
}

type SearchService struct {
	index    CommentIndex
	comments CommentSearchStore
}

// NewSearchService builds comment search. A nil index searches the database
// only.
func NewSearchService(index CommentIndex, comments CommentSearchStore) *SearchService {
	return &SearchService{index: index, comments: comments}
}

// Search queries the index first and falls back to the database when the
// index fails.
func (s *SearchService) Search(ctx context.Context, q *dto.SearchCommentQuery) (*dto.SearchCommentData, error) {
	query := strings.TrimSpace(q.Q)
	limit := q.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	if s.index != nil {
		data, err := s.searchIndex(ctx, query, q.ThreadID, limit)
		if err == nil {
			return data, nil
		}
		logger.Warn("Comment index search failed, fallback to DB", zap.Error(err))
	}
	return s.searchDB(ctx, query, q.ThreadID, limit)
}

func (s *SearchService) searchIndex(ctx context.Context, q, threadID string, limit int) (*dto.SearchCommentData, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	ids, err := s.index.SearchComments(ctx, q, threadID, limit)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*model.Comment, len(comments))
	for i := range comments {
		byID[comments[i].ID] = &comments[i]
	}
	// keep index relevance order; skip rows deleted since indexing
	ordered := make([]model.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok && !c.Deleted {
			ordered = append(ordered, *c)
		}
	}
	return searchData(ordered, dto.SearchSourceElasticsearch), nil
}

func (s *SearchService) searchDB(ctx context.Context, q, threadID string, limit int) (*dto.SearchCommentData, error) {
	comments, err := s.comments.Search(ctx, q, threadID, limit)
	if err != nil {
		return nil, err
	}
	return searchData(comments, dto.SearchSourceDatabase), nil
}

func searchData(comments []model.Comment, source string) *dto.SearchCommentData {
	items := toCommentInfos(comments)
	return &dto.SearchCommentData{Comments: items, Total: len(items), Source: source}
}
