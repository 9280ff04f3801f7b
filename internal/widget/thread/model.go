// Package thread holds the local view of one comment thread and mediates
// every change to it through the data source.
package thread

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"

	"remark-go/internal/widget/datasource"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source is the remote side of the model.
type Source interface {
	Comments(ctx context.Context, threadID string) iter.Seq2[datasource.Comment, error]
	CreateComment(ctx context.Context, draft datasource.CommentDraft) (datasource.Comment, error)
	UpdateComment(ctx context.Context, id, body string) (datasource.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	Reactions(ctx context.Context, threadID string) iter.Seq2[datasource.Reaction, error]
	CreateReaction(ctx context.Context, draft datasource.ReactionDraft) (datasource.Reaction, error)
	DeleteReaction(ctx context.Context, id string) error
}

// Identity is the user acting through the model.
type Identity struct {
	ID        string
	Moderator bool
}

// Status is the lifecycle of the model as a whole.
type Status int

const (
	StatusEmpty Status = iota
	StatusLoading
	StatusReady
	StatusLoadFailed
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusLoadFailed:
		return "load_failed"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var defaultKinds = []string{"like", "heart"}

type Option func(*Model)

func WithBinding(b Binding) Option {
	return func(m *Model) { m.binding = b }
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Model) { m.log = l.Named("thread") }
}

// WithReactionKinds sets the kinds React accepts.
func WithReactionKinds(kinds ...string) Option {
	return func(m *Model) {
		m.kinds = make(map[string]bool, len(kinds))
		for _, k := range kinds {
			m.kinds[k] = true
		}
	}
}

// Model owns the comment tree of one thread. All methods are safe for
// concurrent use; the lock is never held across a remote call.
type Model struct {
	src     Source
	user    Identity
	kinds   map[string]bool
	binding Binding
	log     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	threadID string
	status   Status
	loadErr  error
	nodes    map[string]*node
	roots    []string
	inflight map[string]struct{}
}

func New(src Source, user Identity, opts ...Option) *Model {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		src:      src,
		user:     user,
		binding:  nopBinding{},
		log:      zap.NewNop(),
		ctx:      ctx,
		cancel:   cancel,
		nodes:    make(map[string]*node),
		inflight: make(map[string]struct{}),
	}
	WithReactionKinds(defaultKinds...)(m)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load fetches the comments and reactions of threadID and replaces the
// current tree. On failure the model is left empty in StatusLoadFailed and
// a *LoadError is returned; calling Load again retries.
func (m *Model) Load(ctx context.Context, threadID string) error {
	m.mu.Lock()
	switch {
	case m.status == StatusClosed:
		m.mu.Unlock()
		return ErrClosed
	case m.status == StatusLoading || len(m.inflight) > 0:
		m.mu.Unlock()
		return fmt.Errorf("load thread %s: %w", threadID, ErrConflict)
	}
	m.status = StatusLoading
	m.threadID = threadID
	m.mu.Unlock()

	ctx, done := m.opContext(ctx)
	defer done()

	var (
		comments  []datasource.Comment
		reactions []datasource.Reaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for c, err := range m.src.Comments(gctx, threadID) {
			if err != nil {
				return err
			}
			comments = append(comments, c)
		}
		return nil
	})
	g.Go(func() error {
		for r, err := range m.src.Reactions(gctx, threadID) {
			if err != nil {
				if errors.Is(err, datasource.ErrNotSupported) {
					reactions = nil
					return nil
				}
				return err
			}
			reactions = append(reactions, r)
		}
		return nil
	})
	err := g.Wait()

	m.mu.Lock()
	if m.status == StatusClosed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.reset()
	if err != nil {
		loadErr := &LoadError{ThreadID: threadID, Err: err}
		m.status = StatusLoadFailed
		m.loadErr = loadErr
		m.mu.Unlock()

		m.log.Warn("thread load failed", zap.String("thread_id", threadID), zap.Error(err))
		m.binding.Notify(Event{Kind: EventLoadFailed, Err: loadErr})
		return loadErr
	}
	m.build(comments, reactions)
	m.status = StatusReady
	n := len(m.nodes)
	m.mu.Unlock()

	m.log.Info("thread loaded",
		zap.String("thread_id", threadID),
		zap.Int("comments", n),
		zap.Int("reactions", len(reactions)),
	)
	m.binding.Notify(Event{Kind: EventLoaded})
	return nil
}

// Close tears the model down. In-flight remote calls are cancelled and their
// results discarded.
func (m *Model) Close() {
	m.mu.Lock()
	if m.status == StatusClosed {
		m.mu.Unlock()
		return
	}
	m.status = StatusClosed
	m.reset()
	m.mu.Unlock()

	m.cancel()
	m.binding.Notify(Event{Kind: EventClosed})
}

func (m *Model) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Err returns the error of the last failed Load, if the model is in
// StatusLoadFailed.
func (m *Model) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != StatusLoadFailed {
		return nil
	}
	return m.loadErr
}

func (m *Model) ThreadID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.threadID
}

// User returns the identity mutations are made as.
func (m *Model) User() Identity {
	return m.user
}

// reset empties the tree. Callers hold m.mu.
func (m *Model) reset() {
	m.nodes = make(map[string]*node)
	m.roots = nil
	m.loadErr = nil
}

// build indexes comments by id and links replies to parents. A reply whose
// parent the remote did not return gets a tombstone in the parent's place,
// so every parent reference resolves. Callers hold m.mu.
func (m *Model) build(comments []datasource.Comment, reactions []datasource.Reaction) {
	for _, c := range comments {
		state := StateConfirmed
		if c.Deleted {
			state = StateTombstoned
		}
		n := newNode(c, state)
		if state == StateTombstoned {
			n.tombstone()
		}
		m.nodes[c.ID] = n
	}

	placeholders := make(map[string]*node)
	for _, c := range comments {
		if c.ParentID == "" {
			continue
		}
		if p := placeholders[c.ParentID]; p != nil {
			if c.CreatedAt.Before(p.comment.CreatedAt) {
				p.comment.CreatedAt = c.CreatedAt
			}
			continue
		}
		if m.nodes[c.ParentID] != nil {
			continue
		}
		m.log.Debug("reply to missing comment, inserting tombstone",
			zap.String("comment_id", c.ID),
			zap.String("parent_id", c.ParentID),
		)
		// the placeholder sorts with its earliest reply
		placeholder := newNode(datasource.Comment{ID: c.ParentID, ThreadID: c.ThreadID, CreatedAt: c.CreatedAt}, StateTombstoned)
		placeholder.tombstone()
		m.nodes[c.ParentID] = placeholder
		placeholders[c.ParentID] = placeholder
	}

	ordered := make([]*node, 0, len(m.nodes))
	for _, n := range m.nodes {
		ordered = append(ordered, n)
	}
	slices.SortFunc(ordered, func(a, b *node) int {
		if c := a.comment.CreatedAt.Compare(b.comment.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.comment.ID, b.comment.ID)
	})
	for _, n := range ordered {
		if n.comment.ParentID == "" {
			m.roots = append(m.roots, n.comment.ID)
			continue
		}
		parent := m.nodes[n.comment.ParentID]
		parent.children = append(parent.children, n.comment.ID)
	}

	for _, r := range reactions {
		n := m.nodes[r.CommentID]
		if n == nil || n.state == StateTombstoned {
			continue
		}
		if _, dup := n.findReaction(r.UserID, r.Kind); dup {
			m.log.Debug("duplicate reaction ignored", zap.String("reaction_id", r.ID))
			continue
		}
		n.reactions[r.ID] = r
	}
}

// opContext derives a context for a remote call that is cancelled by the
// caller or by Close.
func (m *Model) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(m.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// begin marks id as having a mutation in flight. Callers hold m.mu.
func (m *Model) begin(id string) error {
	if err := m.ready(); err != nil {
		return err
	}
	if m.busy(id) {
		return fmt.Errorf("comment %s: %w", id, ErrConflict)
	}
	m.inflight[id] = struct{}{}
	return nil
}

func (m *Model) busy(id string) bool {
	_, ok := m.inflight[id]
	return ok
}

// end clears the in-flight mark and reports whether the result may still be
// applied. Callers hold m.mu.
func (m *Model) end(id string) error {
	delete(m.inflight, id)
	if m.status == StatusClosed {
		return ErrClosed
	}
	return nil
}

func (m *Model) ready() error {
	switch m.status {
	case StatusReady:
		return nil
	case StatusClosed:
		return ErrClosed
	default:
		return ErrNotLoaded
	}
}

func (m *Model) notify(events ...Event) {
	for _, e := range events {
		m.binding.Notify(e)
	}
}
