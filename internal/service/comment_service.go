package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"remark-go/internal/api/dto"
	"remark-go/internal/model"
	"remark-go/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrCommentNotFound      = errors.New("comment not found")
	ErrCommentDeleted       = errors.New("comment is deleted")
	ErrParentNotFound       = errors.New("parent comment not found")
	ErrParentThreadMismatch = errors.New("parent comment belongs to another thread")
	ErrParentDeleted        = errors.New("cannot reply to a deleted comment")
	ErrEmptyBody            = errors.New("comment body is empty")
	ErrNothingToUpdate      = errors.New("nothing to update")
	ErrNoPermission         = errors.New("no permission for this comment")
	ErrActorRequired        = errors.New("acting user is required")
)

const publishTimeout = 3 * time.Second

// CommentStore is the persistence CommentService needs.
// *repository.CommentRepository implements it.
type CommentStore interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id int64) (*model.Comment, error)
	ListByThread(ctx context.Context, threadID string, stickedOnly bool) ([]model.Comment, error)
	UpdateBody(ctx context.Context, id int64, body string) error
	SetSticked(ctx context.Context, comment *model.Comment, sticked bool) error
	Tombstone(ctx context.Context, id int64) (bool, error)
}

// ReactionCleaner drops the reactions of a deleted comment.
type ReactionCleaner interface {
	DeleteByComment(ctx context.Context, commentID int64) error
}

type UserReader interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
}

// EventPublisher delivers comment change events.
type EventPublisher interface {
	Publish(ctx context.Context, event *model.CommentEvent) error
}

type CommentService struct {
	comments  CommentStore
	reactions ReactionCleaner
	users     UserReader
	events    EventPublisher
}

// NewCommentService wires the comment use cases. events may be nil, in which
// case no events are published.
func NewCommentService(comments CommentStore, reactions ReactionCleaner, users UserReader, events EventPublisher) *CommentService {
	return &CommentService{comments: comments, reactions: reactions, users: users, events: events}
}

// List returns a thread in creation order, tombstones included.
func (s *CommentService) List(ctx context.Context, q *dto.CommentListQuery) ([]dto.CommentInfo, error) {
	comments, err := s.comments.ListByThread(ctx, q.ThreadID, q.Type == "sticked")
	if err != nil {
		return nil, err
	}
	return toCommentInfos(comments), nil
}

func (s *CommentService) Get(ctx context.Context, id int64) (*dto.CommentInfo, error) {
	comment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCommentInfo(comment), nil
}

// Create adds a root comment or a reply. The author is the acting user; an
// authorId in the body must name the same user.
func (s *CommentService) Create(ctx context.Context, actorID int64, req *dto.CommentCreateRequest) (*dto.CommentInfo, error) {
	authorID, err := resolveActor(actorID, req.AuthorID)
	if err != nil {
		return nil, err
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	if _, err := s.users.GetUser(ctx, authorID); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		ThreadID: req.ThreadID,
		AuthorID: authorID,
		Body:     body,
	}

	if strings.TrimSpace(req.ParentID) != "" {
		parentID, err := ParseID(req.ParentID)
		if err != nil {
			return nil, ErrParentNotFound
		}
		parent, err := s.comments.GetByID(ctx, parentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, err
		}
		if parent.ThreadID != req.ThreadID {
			return nil, ErrParentThreadMismatch
		}
		if parent.Deleted {
			return nil, ErrParentDeleted
		}
		comment.ParentID = &parent.ID
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.publish(ctx, model.CommentCreated, comment, authorID)
	return toCommentInfo(comment), nil
}

// Update edits the body (author only) and the pin (moderators only).
func (s *CommentService) Update(ctx context.Context, actorID, id int64, req *dto.CommentUpdateRequest) (*dto.CommentInfo, error) {
	if actorID == 0 {
		return nil, ErrActorRequired
	}
	if req.Body == nil && req.Sticked == nil {
		return nil, ErrNothingToUpdate
	}

	comment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.Deleted {
		return nil, ErrCommentDeleted
	}

	if req.Body != nil {
		if comment.AuthorID != actorID {
			return nil, ErrNoPermission
		}
		body := strings.TrimSpace(*req.Body)
		if body == "" {
			return nil, ErrEmptyBody
		}
		if err := s.comments.UpdateBody(ctx, id, body); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCommentDeleted
			}
			return nil, err
		}
	}

	if req.Sticked != nil {
		actor, err := s.users.GetUser(ctx, actorID)
		if err != nil {
			return nil, err
		}
		if !actor.IsModerator() {
			return nil, ErrNoPermission
		}
		if err := s.comments.SetSticked(ctx, comment, *req.Sticked); err != nil {
			return nil, err
		}
	}

	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, model.CommentUpdated, updated, actorID)
	return toCommentInfo(updated), nil
}

// Delete tombstones a comment. Deleting a tombstone succeeds without effect.
func (s *CommentService) Delete(ctx context.Context, actorID, id int64) error {
	if actorID == 0 {
		return ErrActorRequired
	}

	comment, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if comment.Deleted {
		return nil
	}

	if comment.AuthorID != actorID {
		actor, err := s.users.GetUser(ctx, actorID)
		if err != nil {
			return err
		}
		if !actor.IsModerator() {
			return ErrNoPermission
		}
	}

	changed, err := s.comments.Tombstone(ctx, id)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := s.reactions.DeleteByComment(ctx, id); err != nil {
		logger.Warn("Failed to drop reactions of deleted comment", zap.Int64("comment_id", id), zap.Error(err))
	}

	comment.Deleted = true
	comment.Body = ""
	comment.Sticked = false
	s.publish(ctx, model.CommentDeleted, comment, actorID)
	return nil
}

func (s *CommentService) load(ctx context.Context, id int64) (*model.Comment, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return comment, nil
}

// publish sends the event on a context detached from the request. Failures
// are logged only.
func (s *CommentService) publish(ctx context.Context, eventType string, comment *model.Comment, actorID int64) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := &model.CommentEvent{
		Type:       eventType,
		Comment:    *comment,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish comment event",
			zap.String("type", eventType),
			zap.Int64("comment_id", comment.ID),
			zap.Error(err),
		)
	}
}

// resolveActor picks the acting user from the header and the id claimed in
// the body. When both are present they must agree.
func resolveActor(actorID int64, claimed string) (int64, error) {
	if strings.TrimSpace(claimed) == "" {
		if actorID == 0 {
			return 0, ErrActorRequired
		}
		return actorID, nil
	}
	id, err := ParseID(claimed)
	if err != nil {
		return 0, err
	}
	if actorID != 0 && actorID != id {
		return 0, ErrNoPermission
	}
	return id, nil
}
