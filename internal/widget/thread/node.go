package thread

import (
	"slices"
	"strings"

	"remark-go/internal/widget/datasource"
)

// State is the lifecycle position of one comment.
//
//	Pending -> Confirmed -> Editing -> Confirmed (or back to the prior body)
//	Confirmed -> Tombstoned (terminal)
type State int

const (
	StatePending State = iota
	StateConfirmed
	StateEditing
	StateTombstoned
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateConfirmed:
		return "confirmed"
	case StateEditing:
		return "editing"
	case StateTombstoned:
		return "tombstoned"
	default:
		return "unknown"
	}
}

type node struct {
	comment   datasource.Comment
	state     State
	children  []string
	reactions map[string]datasource.Reaction
}

func newNode(c datasource.Comment, state State) *node {
	return &node{
		comment:   c,
		state:     state,
		reactions: make(map[string]datasource.Reaction),
	}
}

// findReaction returns the reaction of userID with kind, if any.
func (n *node) findReaction(userID, kind string) (datasource.Reaction, bool) {
	for _, r := range n.reactions {
		if r.UserID == userID && r.Kind == kind {
			return r, true
		}
	}
	return datasource.Reaction{}, false
}

func (n *node) tombstone() {
	n.state = StateTombstoned
	n.comment.Deleted = true
	n.comment.Body = ""
	clear(n.reactions)
}

// CommentView is a read-only copy of a comment and its local state.
type CommentView struct {
	datasource.Comment
	State      State
	Depth      int
	ReplyCount int
	Reactions  []datasource.Reaction
}

// Tombstoned reports whether the comment is a placeholder for a deleted one.
func (v CommentView) Tombstoned() bool {
	return v.State == StateTombstoned
}

// Counts returns the number of reactions per kind.
func (v CommentView) Counts() map[string]int {
	counts := make(map[string]int)
	for _, r := range v.Reactions {
		counts[r.Kind]++
	}
	return counts
}

func (n *node) view(depth int) CommentView {
	reactions := make([]datasource.Reaction, 0, len(n.reactions))
	for _, r := range n.reactions {
		reactions = append(reactions, r)
	}
	slices.SortFunc(reactions, func(a, b datasource.Reaction) int {
		if c := strings.Compare(a.Kind, b.Kind); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return CommentView{
		Comment:    n.comment,
		State:      n.state,
		Depth:      depth,
		ReplyCount: len(n.children),
		Reactions:  reactions,
	}
}
