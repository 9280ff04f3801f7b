package service

import (
	"context"
	"errors"
	"strings"

	"remark-go/internal/api/dto"
	"remark-go/internal/model"

	"gorm.io/gorm"
)

var (
	ErrReactionFilter = errors.New("threadId or commentId is required")
	ErrEmptyKind      = errors.New("reaction kind is empty")
)

type ReactionStore interface {
	Create(ctx context.Context, reaction *model.Reaction) (bool, error)
	GetByID(ctx context.Context, id int64) (*model.Reaction, error)
	Delete(ctx context.Context, id int64) (bool, error)
	ListByComment(ctx context.Context, commentID int64) ([]model.Reaction, error)
	ListByThread(ctx context.Context, threadID string) ([]model.Reaction, error)
	CountByKind(ctx context.Context, commentID int64) ([]model.ReactionCount, error)
	KindsByUser(ctx context.Context, commentID, userID int64) ([]string, error)
}

type CommentReader interface {
	GetByID(ctx context.Context, id int64) (*model.Comment, error)
}

type ReactionService struct {
	reactions ReactionStore
	comments  CommentReader
	users     UserReader
}

func NewReactionService(reactions ReactionStore, comments CommentReader, users UserReader) *ReactionService {
	return &ReactionService{reactions: reactions, comments: comments, users: users}
}

// List returns the reactions of a thread or of a single comment.
func (s *ReactionService) List(ctx context.Context, q *dto.ReactionListQuery) ([]dto.ReactionInfo, error) {
	var (
		reactions []model.Reaction
		err       error
	)
	switch {
	case q.CommentID != "":
		commentID, perr := ParseID(q.CommentID)
		if perr != nil {
			return []dto.ReactionInfo{}, nil
		}
		reactions, err = s.reactions.ListByComment(ctx, commentID)
	case q.ThreadID != "":
		reactions, err = s.reactions.ListByThread(ctx, q.ThreadID)
	default:
		return nil, ErrReactionFilter
	}
	if err != nil {
		return nil, err
	}

	items := make([]dto.ReactionInfo, 0, len(reactions))
	for i := range reactions {
		items = append(items, *toReactionInfo(&reactions[i]))
	}
	return items, nil
}

// Create records a reaction. It reports false with the stored row when the
// user already reacted with that kind.
func (s *ReactionService) Create(ctx context.Context, actorID int64, req *dto.ReactionCreateRequest) (*dto.ReactionInfo, bool, error) {
	userID, err := resolveActor(actorID, req.UserID)
	if err != nil {
		return nil, false, err
	}
	kind := strings.TrimSpace(req.Kind)
	if kind == "" {
		return nil, false, ErrEmptyKind
	}
	commentID, err := ParseID(req.CommentID)
	if err != nil {
		return nil, false, ErrCommentNotFound
	}

	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrCommentNotFound
		}
		return nil, false, err
	}
	if comment.Deleted {
		return nil, false, ErrCommentDeleted
	}
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, false, err
	}

	reaction := &model.Reaction{CommentID: commentID, UserID: userID, Kind: kind}
	created, err := s.reactions.Create(ctx, reaction)
	if err != nil {
		return nil, false, err
	}
	return toReactionInfo(reaction), created, nil
}

// Delete removes a reaction owned by the actor. A missing reaction counts as
// already removed.
func (s *ReactionService) Delete(ctx context.Context, actorID, id int64) error {
	if actorID == 0 {
		return ErrActorRequired
	}

	reaction, err := s.reactions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if reaction.UserID != actorID {
		actor, err := s.users.GetUser(ctx, actorID)
		if err != nil {
			return err
		}
		if !actor.IsModerator() {
			return ErrNoPermission
		}
	}

	_, err = s.reactions.Delete(ctx, id)
	return err
}

// Summary aggregates a comment's reactions by kind and flags the kinds userID
// reacted with. userID may be zero.
func (s *ReactionService) Summary(ctx context.Context, commentID, userID int64) ([]dto.ReactionSummaryItem, error) {
	if _, err := s.comments.GetByID(ctx, commentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	counts, err := s.reactions.CountByKind(ctx, commentID)
	if err != nil {
		return nil, err
	}

	mine := make(map[string]bool)
	if userID != 0 {
		kinds, err := s.reactions.KindsByUser(ctx, commentID, userID)
		if err != nil {
			return nil, err
		}
		for _, k := range kinds {
			mine[k] = true
		}
	}

	items := make([]dto.ReactionSummaryItem, 0, len(counts))
	for _, c := range counts {
		items = append(items, dto.ReactionSummaryItem{
			Kind:               c.Kind,
			Count:              c.Count,
			CurrentUserReacted: mine[c.Kind],
		})
	}
	return items, nil
}
