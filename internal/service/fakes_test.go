package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"remark-go/internal/model"

	"gorm.io/gorm"
)

type memComments struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*model.Comment
}

func newMemComments() *memComments {
	return &memComments{rows: make(map[int64]*model.Comment)}
}

func (m *memComments) Create(_ context.Context, c *model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.rows[c.ID] = &cp
	return nil
}

func (m *memComments) GetByID(_ context.Context, id int64) (*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memComments) ListByThread(_ context.Context, threadID string, stickedOnly bool) ([]model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Comment
	for _, c := range m.rows {
		if c.ThreadID == threadID && (!stickedOnly || c.Sticked) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memComments) UpdateBody(_ context.Context, id int64, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok || c.Deleted {
		return gorm.ErrRecordNotFound
	}
	c.Body = body
	return nil
}

func (m *memComments) SetSticked(_ context.Context, comment *model.Comment, sticked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sticked {
		for _, c := range m.rows {
			if c.ThreadID == comment.ThreadID {
				c.Sticked = false
			}
		}
	}
	m.rows[comment.ID].Sticked = sticked
	return nil
}

func (m *memComments) Tombstone(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok || c.Deleted {
		return false, nil
	}
	c.Deleted, c.Body, c.Sticked = true, "", false
	return true, nil
}

func (m *memComments) Search(_ context.Context, q, threadID string, limit int) ([]model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Comment
	for _, c := range m.rows {
		if c.Deleted || (threadID != "" && c.ThreadID != threadID) {
			continue
		}
		if strings.Contains(strings.ToLower(c.Body), strings.ToLower(q)) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memComments) GetByIDs(_ context.Context, ids []int64) ([]model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Comment
	for _, id := range ids {
		if c, ok := m.rows[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

type memReactions struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*model.Reaction
	// comment id -> thread id, for ListByThread
	threads map[int64]string
}

func newMemReactions() *memReactions {
	return &memReactions{rows: make(map[int64]*model.Reaction), threads: make(map[int64]string)}
}

func (m *memReactions) Create(_ context.Context, r *model.Reaction) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.CommentID == r.CommentID && existing.UserID == r.UserID && existing.Kind == r.Kind {
			*r = *existing
			return false, nil
		}
	}
	m.nextID++
	r.ID = m.nextID
	r.CreatedAt = time.Now()
	cp := *r
	m.rows[r.ID] = &cp
	return true, nil
}

func (m *memReactions) GetByID(_ context.Context, id int64) (*model.Reaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memReactions) Delete(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[id]
	delete(m.rows, id)
	return ok, nil
}

func (m *memReactions) DeleteByComment(_ context.Context, commentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.rows {
		if r.CommentID == commentID {
			delete(m.rows, id)
		}
	}
	return nil
}

func (m *memReactions) sorted(keep func(*model.Reaction) bool) []model.Reaction {
	var out []model.Reaction
	for _, r := range m.rows {
		if keep(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memReactions) ListByComment(_ context.Context, commentID int64) ([]model.Reaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(r *model.Reaction) bool { return r.CommentID == commentID }), nil
}

func (m *memReactions) ListByThread(_ context.Context, threadID string) ([]model.Reaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(r *model.Reaction) bool { return m.threads[r.CommentID] == threadID }), nil
}

func (m *memReactions) CountByKind(_ context.Context, commentID int64) ([]model.ReactionCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int64)
	for _, r := range m.rows {
		if r.CommentID == commentID {
			counts[r.Kind]++
		}
	}
	out := make([]model.ReactionCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, model.ReactionCount{Kind: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out, nil
}

func (m *memReactions) KindsByUser(_ context.Context, commentID, userID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kinds []string
	for _, r := range m.rows {
		if r.CommentID == commentID && r.UserID == userID {
			kinds = append(kinds, r.Kind)
		}
	}
	return kinds, nil
}

type memUsers struct {
	mu    sync.Mutex
	rows  map[int64]*model.User
	reads int
}

func newMemUsers(users ...model.User) *memUsers {
	m := &memUsers{rows: make(map[int64]*model.User)}
	for i := range users {
		u := users[i]
		m.rows[u.ID] = &u
	}
	return m
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	u, ok := m.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

// GetUser lets memUsers stand in for UserReader directly.
func (m *memUsers) GetUser(ctx context.Context, id int64) (*model.User, error) {
	u, err := m.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (m *memUsers) ExistsByUsername(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = int64(len(m.rows) + 1)
	cp := *u
	m.rows[u.ID] = &cp
	return nil
}

func (m *memUsers) List(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.User, 0, len(m.rows))
	for _, u := range m.rows {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memUsers) UpdateAvatar(_ context.Context, id int64, avatar string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Avatar = &avatar
	return nil
}

type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
	failGet bool
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return false, errors.New("cache offline")
	}
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	c.deleted = append(c.deleted, keys...)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.CommentEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, e *model.CommentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	p.events = append(p.events, *e)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type memAvatars struct {
	objects map[string][]byte
}

func (a *memAvatars) PutAvatar(_ context.Context, objectName string, r io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if a.objects == nil {
		a.objects = make(map[string][]byte)
	}
	a.objects[objectName] = data
	return "http://minio.local/avatars/" + objectName, nil
}

type stubIndex struct {
	ids []int64
	err error
}

func (s stubIndex) SearchComments(context.Context, string, string, int) ([]int64, error) {
	return s.ids, s.err
}
