package thread

import (
	"context"

	"remark-go/internal/widget/datasource"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// React adds the current user's reaction of kind to comment commentID. A user
// holds at most one reaction per kind on a comment; reacting again returns
// the existing reaction without a remote call.
func (m *Model) React(ctx context.Context, commentID, kind string) (datasource.Reaction, error) {
	m.mu.Lock()
	n, err := m.mutable(OpReact, commentID)
	if err != nil {
		m.mu.Unlock()
		return datasource.Reaction{}, err
	}
	if !m.kinds[kind] {
		m.mu.Unlock()
		return datasource.Reaction{}, &MutationError{Op: OpReact, CommentID: commentID, Err: ErrUnknownKind}
	}
	if existing, ok := n.findReaction(m.user.ID, kind); ok {
		m.mu.Unlock()
		return existing, nil
	}
	if err := m.begin(commentID); err != nil {
		m.mu.Unlock()
		return datasource.Reaction{}, err
	}
	tempID := pendingPrefix + uuid.NewString()
	n.reactions[tempID] = datasource.Reaction{ID: tempID, CommentID: commentID, UserID: m.user.ID, Kind: kind}
	draft := datasource.ReactionDraft{CommentID: commentID, UserID: m.user.ID, Kind: kind}
	m.mu.Unlock()
	m.notify(Event{Kind: EventReacted, CommentID: commentID})

	opCtx, done := m.opContext(ctx)
	created, err := m.src.CreateReaction(opCtx, draft)
	done()

	m.mu.Lock()
	if endErr := m.end(commentID); endErr != nil {
		m.mu.Unlock()
		return datasource.Reaction{}, endErr
	}
	delete(n.reactions, tempID)
	if err == nil && created.ID == "" {
		err = datasource.ErrInvalidRecord
	}
	if err != nil {
		m.mu.Unlock()

		m.log.Warn("react failed, reaction withdrawn",
			zap.String("comment_id", commentID),
			zap.String("kind", kind),
			zap.Error(err),
		)
		mutErr := &MutationError{Op: OpReact, CommentID: commentID, Err: err}
		m.notify(Event{Kind: EventReverted, CommentID: commentID, Err: mutErr})
		return datasource.Reaction{}, mutErr
	}
	created.CommentID = commentID
	if created.UserID == "" {
		created.UserID = m.user.ID
	}
	if created.Kind == "" {
		created.Kind = kind
	}
	n.reactions[created.ID] = created
	m.mu.Unlock()

	m.notify(Event{Kind: EventConfirmed, CommentID: commentID})
	return created, nil
}

// Unreact withdraws the current user's reaction of kind from comment
// commentID. It is a no-op when there is no such reaction.
func (m *Model) Unreact(ctx context.Context, commentID, kind string) error {
	m.mu.Lock()
	n, err := m.mutable(OpUnreact, commentID)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	existing, ok := n.findReaction(m.user.ID, kind)
	if !ok {
		m.mu.Unlock()
		return nil
	}
	if err := m.begin(commentID); err != nil {
		m.mu.Unlock()
		return err
	}
	delete(n.reactions, existing.ID)
	m.mu.Unlock()
	m.notify(Event{Kind: EventUnreacted, CommentID: commentID})

	opCtx, done := m.opContext(ctx)
	err = m.src.DeleteReaction(opCtx, existing.ID)
	done()

	m.mu.Lock()
	if endErr := m.end(commentID); endErr != nil {
		m.mu.Unlock()
		return endErr
	}
	if err != nil {
		if n.state != StateTombstoned {
			n.reactions[existing.ID] = existing
		}
		m.mu.Unlock()

		m.log.Warn("unreact failed, reaction restored",
			zap.String("comment_id", commentID),
			zap.String("reaction_id", existing.ID),
			zap.Error(err),
		)
		mutErr := &MutationError{Op: OpUnreact, CommentID: commentID, Err: err}
		m.notify(Event{Kind: EventReverted, CommentID: commentID, Err: mutErr})
		return mutErr
	}
	m.mu.Unlock()
	return nil
}
