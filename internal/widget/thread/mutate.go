package thread

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"remark-go/internal/widget/datasource"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	OpAdd     = "add"
	OpEdit    = "edit"
	OpRemove  = "remove"
	OpReact   = "react"
	OpUnreact = "unreact"
)

const pendingPrefix = "pending-"

// AddComment posts body as the current user, as a reply to parentID or as a
// new root when parentID is empty. The comment is shown as pending until the
// remote confirms it; on failure it is removed again.
func (m *Model) AddComment(ctx context.Context, parentID, body string) (CommentView, error) {
	body = strings.TrimSpace(body)

	m.mu.Lock()
	if err := m.ready(); err != nil {
		m.mu.Unlock()
		return CommentView{}, err
	}
	if body == "" {
		m.mu.Unlock()
		return CommentView{}, &MutationError{Op: OpAdd, Err: ErrEmptyBody}
	}
	depth := 0
	if parentID != "" {
		parent := m.nodes[parentID]
		switch {
		case parent == nil:
			m.mu.Unlock()
			return CommentView{}, &MutationError{Op: OpAdd, CommentID: parentID, Err: ErrParentNotFound}
		case parent.state == StateTombstoned:
			m.mu.Unlock()
			return CommentView{}, &MutationError{Op: OpAdd, CommentID: parentID, Err: ErrParentDeleted}
		case parent.state == StatePending:
			m.mu.Unlock()
			return CommentView{}, &MutationError{Op: OpAdd, CommentID: parentID, Err: ErrConflict}
		}
		depth = m.depth(parentID) + 1
	}

	tempID := pendingPrefix + uuid.NewString()
	if err := m.begin(tempID); err != nil {
		m.mu.Unlock()
		return CommentView{}, err
	}
	now := time.Now()
	pending := newNode(datasource.Comment{
		ID:        tempID,
		ThreadID:  m.threadID,
		ParentID:  parentID,
		AuthorID:  m.user.ID,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}, StatePending)
	m.insert(pending)
	draft := datasource.CommentDraft{
		ThreadID: m.threadID,
		ParentID: parentID,
		AuthorID: m.user.ID,
		Body:     body,
	}
	m.mu.Unlock()
	m.notify(Event{Kind: EventAdded, CommentID: tempID})

	opCtx, done := m.opContext(ctx)
	created, err := m.src.CreateComment(opCtx, draft)
	done()

	m.mu.Lock()
	if endErr := m.end(tempID); endErr != nil {
		m.mu.Unlock()
		return CommentView{}, endErr
	}
	if err == nil && created.ID == "" {
		err = datasource.ErrInvalidRecord
	}
	if err == nil && m.nodes[created.ID] != nil {
		err = &datasource.RemoteError{Op: "create comments", Body: "duplicate id " + created.ID}
	}
	if err != nil {
		m.detach(tempID)
		m.mu.Unlock()

		m.log.Warn("add comment failed, pending comment discarded",
			zap.String("thread_id", draft.ThreadID),
			zap.String("parent_id", parentID),
			zap.Error(err),
		)
		mutErr := &MutationError{Op: OpAdd, CommentID: tempID, Err: err}
		m.notify(Event{Kind: EventReverted, CommentID: tempID, Err: mutErr})
		return CommentView{}, mutErr
	}

	// The reply position is local truth; remotes that omit parentId or
	// threadId in the response do not move the comment.
	created.ParentID = parentID
	if created.ThreadID == "" {
		created.ThreadID = draft.ThreadID
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	m.rekey(tempID, created)
	confirmed := m.nodes[created.ID]
	confirmed.state = StateConfirmed
	view := confirmed.view(depth)
	m.mu.Unlock()

	m.log.Debug("comment confirmed", zap.String("comment_id", created.ID), zap.String("pending_id", tempID))
	m.notify(Event{Kind: EventConfirmed, CommentID: created.ID})
	return view, nil
}

// EditComment replaces the body of comment id. Only the author may edit;
// the remote has the final say and a failed update restores the old body.
func (m *Model) EditComment(ctx context.Context, id, body string) (CommentView, error) {
	body = strings.TrimSpace(body)

	m.mu.Lock()
	n, err := m.mutable(OpEdit, id)
	if err != nil {
		m.mu.Unlock()
		return CommentView{}, err
	}
	if body == "" {
		m.mu.Unlock()
		return CommentView{}, &MutationError{Op: OpEdit, CommentID: id, Err: ErrEmptyBody}
	}
	if n.comment.AuthorID != m.user.ID {
		m.mu.Unlock()
		return CommentView{}, &MutationError{Op: OpEdit, CommentID: id, Err: ErrNotAuthor}
	}
	if err := m.begin(id); err != nil {
		m.mu.Unlock()
		return CommentView{}, err
	}
	prior := n.comment
	n.comment.Body = body
	n.state = StateEditing
	m.mu.Unlock()
	m.notify(Event{Kind: EventEdited, CommentID: id})

	opCtx, done := m.opContext(ctx)
	updated, err := m.src.UpdateComment(opCtx, id, body)
	done()

	m.mu.Lock()
	if endErr := m.end(id); endErr != nil {
		m.mu.Unlock()
		return CommentView{}, endErr
	}
	if err != nil {
		n.comment = prior
		n.state = StateConfirmed
		m.mu.Unlock()

		m.log.Warn("edit comment failed, body restored", zap.String("comment_id", id), zap.Error(err))
		mutErr := &MutationError{Op: OpEdit, CommentID: id, Err: err}
		m.notify(Event{Kind: EventReverted, CommentID: id, Err: mutErr})
		return CommentView{}, mutErr
	}

	if updated.Body != "" {
		n.comment.Body = updated.Body
	}
	if !updated.UpdatedAt.IsZero() {
		n.comment.UpdatedAt = updated.UpdatedAt
	} else {
		n.comment.UpdatedAt = time.Now()
	}
	n.state = StateConfirmed
	view := n.view(m.depth(id))
	m.mu.Unlock()

	m.notify(Event{Kind: EventConfirmed, CommentID: id})
	return view, nil
}

// RemoveComment deletes comment id. The node stays in the tree as a
// tombstone so its replies remain attached. Removing a tombstone is a no-op.
func (m *Model) RemoveComment(ctx context.Context, id string) error {
	m.mu.Lock()
	if err := m.ready(); err != nil {
		m.mu.Unlock()
		return err
	}
	n := m.nodes[id]
	if n == nil {
		m.mu.Unlock()
		return &MutationError{Op: OpRemove, CommentID: id, Err: ErrCommentNotFound}
	}
	if n.state == StateTombstoned {
		busy := m.busy(id)
		m.mu.Unlock()
		if busy {
			return &MutationError{Op: OpRemove, CommentID: id, Err: ErrConflict}
		}
		return nil
	}
	if n.comment.AuthorID != m.user.ID && !m.user.Moderator {
		m.mu.Unlock()
		return &MutationError{Op: OpRemove, CommentID: id, Err: ErrNotAuthor}
	}
	if err := m.begin(id); err != nil {
		m.mu.Unlock()
		return err
	}
	prior := *n
	prior.reactions = maps.Clone(n.reactions)
	n.tombstone()
	m.mu.Unlock()
	m.notify(Event{Kind: EventRemoved, CommentID: id})

	opCtx, done := m.opContext(ctx)
	err := m.src.DeleteComment(opCtx, id)
	done()

	m.mu.Lock()
	if endErr := m.end(id); endErr != nil {
		m.mu.Unlock()
		return endErr
	}
	if err != nil {
		n.comment = prior.comment
		n.state = prior.state
		n.reactions = prior.reactions
		m.mu.Unlock()

		m.log.Warn("remove comment failed, comment restored", zap.String("comment_id", id), zap.Error(err))
		mutErr := &MutationError{Op: OpRemove, CommentID: id, Err: err}
		m.notify(Event{Kind: EventReverted, CommentID: id, Err: mutErr})
		return mutErr
	}
	m.mu.Unlock()
	return nil
}

// mutable returns the node for id if it can be changed. A change already in
// flight on id wins over the node's state, since a pending remove may still
// be rolled back. Callers hold m.mu.
func (m *Model) mutable(op, id string) (*node, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	n := m.nodes[id]
	switch {
	case n == nil:
		return nil, &MutationError{Op: op, CommentID: id, Err: ErrCommentNotFound}
	case m.busy(id):
		return nil, &MutationError{Op: op, CommentID: id, Err: ErrConflict}
	case n.state == StateTombstoned:
		return nil, &MutationError{Op: op, CommentID: id, Err: ErrCommentDeleted}
	case n.state == StatePending:
		return nil, &MutationError{Op: op, CommentID: id, Err: ErrConflict}
	}
	return n, nil
}

// insert appends n under its parent or at the root. Callers hold m.mu.
func (m *Model) insert(n *node) {
	m.nodes[n.comment.ID] = n
	if n.comment.ParentID == "" {
		m.roots = append(m.roots, n.comment.ID)
		return
	}
	parent := m.nodes[n.comment.ParentID]
	parent.children = append(parent.children, n.comment.ID)
}

// detach removes a childless node. Callers hold m.mu.
func (m *Model) detach(id string) {
	n := m.nodes[id]
	if n == nil {
		return
	}
	delete(m.nodes, id)
	if n.comment.ParentID == "" {
		m.roots = slices.DeleteFunc(m.roots, func(s string) bool { return s == id })
		return
	}
	if parent := m.nodes[n.comment.ParentID]; parent != nil {
		parent.children = slices.DeleteFunc(parent.children, func(s string) bool { return s == id })
	}
}

// rekey gives the pending node tempID its confirmed identity, keeping its
// position among its siblings. Callers hold m.mu.
func (m *Model) rekey(tempID string, c datasource.Comment) {
	n := m.nodes[tempID]
	delete(m.nodes, tempID)
	n.comment = c
	m.nodes[c.ID] = n

	siblings := m.roots
	if c.ParentID != "" {
		siblings = m.nodes[c.ParentID].children
	}
	if i := slices.Index(siblings, tempID); i >= 0 {
		siblings[i] = c.ID
	}
}
