package thread

import (
	"context"
	"iter"
	"strconv"
	"sync"
	"time"

	"remark-go/internal/widget/datasource"
)

// fakeSource is an in-memory remote. Failures are injected per operation and
// gate, when set, blocks every mutation until it is closed or ctx ends.
type fakeSource struct {
	mu        sync.Mutex
	nextID    int
	comments  []datasource.Comment
	reactions []datasource.Reaction
	calls     map[string]int

	loadErr     error
	reactionErr error
	createErr   error
	updateErr   error
	deleteErr   error
	reactErr    error
	unreactErr  error

	gate    chan struct{}
	entered chan string
}

func newFakeSource() *fakeSource {
	return &fakeSource{nextID: 41, calls: make(map[string]int)}
}

func (f *fakeSource) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeSource) wait(ctx context.Context, op string) error {
	f.mu.Lock()
	f.calls[op]++
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if entered != nil {
		entered <- op
	}
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return &datasource.RemoteError{Op: op, Err: ctx.Err()}
	}
}

func (f *fakeSource) id() string {
	f.nextID++
	return strconv.Itoa(f.nextID)
}

func (f *fakeSource) Comments(ctx context.Context, threadID string) iter.Seq2[datasource.Comment, error] {
	return func(yield func(datasource.Comment, error) bool) {
		f.mu.Lock()
		err := f.loadErr
		items := make([]datasource.Comment, 0, len(f.comments))
		for _, c := range f.comments {
			if c.ThreadID == threadID {
				items = append(items, c)
			}
		}
		f.mu.Unlock()
		if err != nil {
			yield(datasource.Comment{}, err)
			return
		}
		for _, c := range items {
			if !yield(c, nil) {
				return
			}
		}
	}
}

func (f *fakeSource) Reactions(ctx context.Context, threadID string) iter.Seq2[datasource.Reaction, error] {
	return func(yield func(datasource.Reaction, error) bool) {
		f.mu.Lock()
		err := f.reactionErr
		items := append([]datasource.Reaction(nil), f.reactions...)
		f.mu.Unlock()
		if err != nil {
			yield(datasource.Reaction{}, err)
			return
		}
		for _, r := range items {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func (f *fakeSource) CreateComment(ctx context.Context, draft datasource.CommentDraft) (datasource.Comment, error) {
	if err := f.wait(ctx, "create"); err != nil {
		return datasource.Comment{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return datasource.Comment{}, f.createErr
	}
	now := time.Now()
	c := datasource.Comment{
		ID:        f.id(),
		ThreadID:  draft.ThreadID,
		ParentID:  draft.ParentID,
		AuthorID:  draft.AuthorID,
		Body:      draft.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.comments = append(f.comments, c)
	return c, nil
}

func (f *fakeSource) UpdateComment(ctx context.Context, id, body string) (datasource.Comment, error) {
	if err := f.wait(ctx, "update"); err != nil {
		return datasource.Comment{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return datasource.Comment{}, f.updateErr
	}
	for i := range f.comments {
		if f.comments[i].ID == id {
			f.comments[i].Body = body
			f.comments[i].UpdatedAt = time.Now()
			return f.comments[i], nil
		}
	}
	return datasource.Comment{}, datasource.ErrNotFound
}

func (f *fakeSource) DeleteComment(ctx context.Context, id string) error {
	if err := f.wait(ctx, "delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i := range f.comments {
		if f.comments[i].ID == id {
			f.comments[i].Deleted = true
			f.comments[i].Body = ""
		}
	}
	return nil
}

func (f *fakeSource) CreateReaction(ctx context.Context, draft datasource.ReactionDraft) (datasource.Reaction, error) {
	if err := f.wait(ctx, "react"); err != nil {
		return datasource.Reaction{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reactErr != nil {
		return datasource.Reaction{}, f.reactErr
	}
	r := datasource.Reaction{ID: "r" + f.id(), CommentID: draft.CommentID, UserID: draft.UserID, Kind: draft.Kind}
	f.reactions = append(f.reactions, r)
	return r, nil
}

func (f *fakeSource) DeleteReaction(ctx context.Context, id string) error {
	if err := f.wait(ctx, "unreact"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unreactErr != nil {
		return f.unreactErr
	}
	for i, r := range f.reactions {
		if r.ID == id {
			f.reactions = append(f.reactions[:i], f.reactions[i+1:]...)
			break
		}
	}
	return nil
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Notify(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

func (r *recorder) last() Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return Event{}
	}
	return r.events[len(r.events)-1]
}
