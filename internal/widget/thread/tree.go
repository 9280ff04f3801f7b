package thread

import (
	"cmp"
	"fmt"
	"slices"
)

// Comment returns the comment with id.
func (m *Model) Comment(id string) (CommentView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.nodes[id]
	if n == nil {
		return CommentView{}, false
	}
	return n.view(m.depth(id)), true
}

// Roots returns the top-level comments in display order.
func (m *Model) Roots() []CommentView {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CommentView, 0, len(m.roots))
	for _, id := range m.roots {
		out = append(out, m.nodes[id].view(0))
	}
	return out
}

// Children returns the direct replies to id.
func (m *Model) Children(id string) []CommentView {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.nodes[id]
	if n == nil {
		return nil
	}
	depth := m.depth(id) + 1
	out := make([]CommentView, 0, len(n.children))
	for _, child := range n.children {
		out = append(out, m.nodes[child].view(depth))
	}
	return out
}

// Walk visits the tree depth first, each comment before its replies.
// Returning false from fn stops the walk. fn runs on a snapshot, so it may
// call back into the model.
func (m *Model) Walk(fn func(CommentView) bool) {
	for _, v := range m.snapshot() {
		if !fn(v) {
			return
		}
	}
}

// Flat returns every comment ordered by creation time, as shown in flat mode.
func (m *Model) Flat() []CommentView {
	out := m.snapshot()
	slices.SortStableFunc(out, func(a, b CommentView) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	for i := range out {
		out[i].Depth = 0
	}
	return out
}

// ReactionCounts returns the number of reactions per kind on id, with every
// configured kind present.
func (m *Model) ReactionCounts(id string) map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int, len(m.kinds))
	for k := range m.kinds {
		counts[k] = 0
	}
	if n := m.nodes[id]; n != nil {
		for _, r := range n.reactions {
			counts[r.Kind]++
		}
	}
	return counts
}

// Len returns the number of comments in the tree, tombstones included.
func (m *Model) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.nodes)
}

// snapshot returns the tree in depth-first pre-order.
func (m *Model) snapshot() []CommentView {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CommentView, 0, len(m.nodes))
	var visit func(id string, depth int)
	visit = func(id string, depth int) {
		n := m.nodes[id]
		out = append(out, n.view(depth))
		for _, child := range n.children {
			visit(child, depth+1)
		}
	}
	for _, id := range m.roots {
		visit(id, 0)
	}
	return out
}

// depth counts the ancestors of id. Callers hold m.mu.
func (m *Model) depth(id string) int {
	d := 0
	for n := m.nodes[id]; n != nil && n.comment.ParentID != ""; n = m.nodes[n.comment.ParentID] {
		d++
		if d > len(m.nodes) {
			break
		}
	}
	return d
}

// verify checks the structural invariants of the tree: every reply resolves
// to a parent in the same thread that lists it, every node is reachable
// exactly once, and no user holds two reactions of one kind on a comment.
func (m *Model) verify() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]int, len(m.nodes))
	for _, id := range m.roots {
		seen[id]++
		if n := m.nodes[id]; n == nil || n.comment.ParentID != "" {
			return fmt.Errorf("root %s is missing or has a parent", id)
		}
	}
	for id, n := range m.nodes {
		if n.comment.ID != id {
			return fmt.Errorf("node %s is indexed as %s", n.comment.ID, id)
		}
		for _, child := range n.children {
			seen[child]++
			c := m.nodes[child]
			if c == nil {
				return fmt.Errorf("comment %s lists unknown reply %s", id, child)
			}
			if c.comment.ParentID != id {
				return fmt.Errorf("reply %s listed under %s has parent %q", child, id, c.comment.ParentID)
			}
		}
		if p := n.comment.ParentID; p != "" {
			parent := m.nodes[p]
			if parent == nil {
				return fmt.Errorf("comment %s has unresolved parent %s", id, p)
			}
			if parent.comment.ThreadID != "" && n.comment.ThreadID != "" && parent.comment.ThreadID != n.comment.ThreadID {
				return fmt.Errorf("comment %s and parent %s are in different threads", id, p)
			}
		}
		tuples := make(map[[2]string]bool, len(n.reactions))
		for _, r := range n.reactions {
			key := [2]string{r.UserID, r.Kind}
			if tuples[key] {
				return fmt.Errorf("comment %s has duplicate %s reaction from %s", id, r.Kind, r.UserID)
			}
			tuples[key] = true
		}
	}
	for id := range m.nodes {
		if seen[id] != 1 {
			return fmt.Errorf("comment %s is reachable %d times", id, seen[id])
		}
	}
	return nil
}
