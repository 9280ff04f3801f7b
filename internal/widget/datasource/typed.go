package datasource

import (
	"context"
	"iter"
)

// mapSeq converts each record of seq, stopping at the first error.
func mapSeq[T any](seq iter.Seq2[Record, error], conv func(Record) (T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		for rec, err := range seq {
			if err != nil {
				yield(zero, err)
				return
			}
			v, err := conv(rec)
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

func (a *Adapter) timeLayout(entity Entity, op Operation) string {
	if o, ok := a.ops[entity][op]; ok {
		return o.schema.timeLayout
	}
	return ""
}

// Comments reads the comments of one thread.
func (a *Adapter) Comments(ctx context.Context, threadID string) iter.Seq2[Comment, error] {
	var filter Filter
	if threadID != "" {
		filter = Filter{"threadId": threadID}
	}
	layout := a.timeLayout(EntityComments, OpRead)
	return mapSeq(a.Read(ctx, EntityComments, filter), func(rec Record) (Comment, error) {
		c, err := commentFromRecord(rec, layout)
		if err == nil && c.ThreadID == "" {
			c.ThreadID = threadID
		}
		return c, err
	})
}

func (a *Adapter) CreateComment(ctx context.Context, draft CommentDraft) (Comment, error) {
	rec, err := a.Create(ctx, EntityComments, draft.record())
	if err != nil {
		return Comment{}, err
	}
	c, err := commentFromRecord(withDefaults(rec, draft.record()), a.timeLayout(EntityComments, OpCreate))
	if err != nil {
		return Comment{}, &RemoteError{Op: "create comments", Err: err}
	}
	return c, nil
}

// UpdateComment replaces the body of comment id.
func (a *Adapter) UpdateComment(ctx context.Context, id, body string) (Comment, error) {
	patch := Record{"body": body}
	rec, err := a.Update(ctx, EntityComments, id, patch)
	if err != nil {
		return Comment{}, err
	}
	c, err := commentFromRecord(withDefaults(rec, Record{"id": id, "body": body}), a.timeLayout(EntityComments, OpUpdate))
	if err != nil {
		return Comment{}, &RemoteError{Op: "update comments " + id, Err: err}
	}
	return c, nil
}

func (a *Adapter) DeleteComment(ctx context.Context, id string) error {
	return a.Delete(ctx, EntityComments, id)
}

// Users reads users, optionally narrowed by filter (e.g. {"id": "1"}).
func (a *Adapter) Users(ctx context.Context, filter Filter) iter.Seq2[User, error] {
	return mapSeq(a.Read(ctx, EntityUsers, filter), userFromRecord)
}

// Reactions reads the reactions of one thread.
func (a *Adapter) Reactions(ctx context.Context, threadID string) iter.Seq2[Reaction, error] {
	var filter Filter
	if threadID != "" {
		filter = Filter{"threadId": threadID}
	}
	return mapSeq(a.Read(ctx, EntityReactions, filter), reactionFromRecord)
}

func (a *Adapter) CreateReaction(ctx context.Context, draft ReactionDraft) (Reaction, error) {
	rec, err := a.Create(ctx, EntityReactions, draft.record())
	if err != nil {
		return Reaction{}, err
	}
	r, err := reactionFromRecord(withDefaults(rec, draft.record()))
	if err != nil {
		return Reaction{}, &RemoteError{Op: "create reactions", Err: err}
	}
	return r, nil
}

func (a *Adapter) DeleteReaction(ctx context.Context, id string) error {
	return a.Delete(ctx, EntityReactions, id)
}

// withDefaults fills fields the remote left out of its response with the
// values that were sent.
func withDefaults(rec, sent Record) Record {
	for k, v := range sent {
		if _, ok := rec[k]; !ok {
			rec[k] = v
		}
	}
	return rec
}
