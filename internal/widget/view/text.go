// Package view renders a thread model as plain text.
package view

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"remark-go/internal/config"
	"remark-go/internal/widget/datasource"
	"remark-go/internal/widget/thread"

	"go.uber.org/zap"
)

const (
	indent        = "    "
	deletedMarker = "[deleted]"
	timeFormat    = "2006-01-02 15:04"

	// pixelsPerLine converts the editor height to composer rows.
	pixelsPerLine = 25
	minEditorRows = 2
)

// Users resolves author ids. *datasource.Directory implements it.
type Users interface {
	Lookup(ctx context.Context, id string) (datasource.User, error)
}

type noUsers struct{}

func (noUsers) Lookup(_ context.Context, id string) (datasource.User, error) {
	return datasource.User{}, datasource.ErrNotSupported
}

// Model is the read side of thread.Model used for rendering.
type Model interface {
	ThreadID() string
	Status() thread.Status
	Err() error
	Walk(fn func(thread.CommentView) bool)
	Flat() []thread.CommentView
	Len() int
}

// Text draws a thread either as an indented reply tree or as a flat
// chronological list. Used as a thread.Binding it redraws to its writer on
// every change and prints failed mutations as notices.
type Text struct {
	model  Model
	users  Users
	mode   string
	rows   int
	kinds  []string
	user   config.UserInfo
	frames map[datasource.AvatarType]string
	log    *zap.Logger

	mu  sync.Mutex
	out io.Writer
	ctx context.Context
}

type Option func(*Text)

func WithUsers(u Users) Option {
	return func(t *Text) { t.users = u }
}

// WithOutput makes Notify redraw the thread to w.
func WithOutput(w io.Writer) Option {
	return func(t *Text) { t.out = w }
}

func WithLogger(l *zap.Logger) Option {
	return func(t *Text) { t.log = l.Named("view") }
}

// WithContext sets the context used for name lookups triggered by Notify.
func WithContext(ctx context.Context) Option {
	return func(t *Text) { t.ctx = ctx }
}

// New returns a renderer for m configured by cfg. The model may be attached
// after construction with Attach when the renderer is also its binding.
func New(m Model, cfg *config.WidgetConfig, opts ...Option) *Text {
	t := &Text{
		model:  m,
		users:  noUsers{},
		mode:   cfg.CommentMode,
		rows:   EditorRows(cfg.Editor.Height),
		kinds:  cfg.ReactionKinds,
		user:   cfg.UserInfo,
		frames: map[datasource.AvatarType]string{datasource.AvatarSquare: "[%s]", datasource.AvatarCircle: "(%s)"},
		log:    zap.NewNop(),
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Attach sets the model to draw.
func (t *Text) Attach(m Model) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.model = m
}

// EditorRows converts an editor height in pixels to text rows.
func EditorRows(height int) int {
	return max(height/pixelsPerLine, minEditorRows)
}

// Notify implements thread.Binding.
func (t *Text) Notify(e thread.Event) {
	t.mu.Lock()
	out, ctx := t.out, t.ctx
	t.mu.Unlock()
	if out == nil {
		return
	}

	switch e.Kind {
	case thread.EventReverted, thread.EventLoadFailed:
		if _, err := fmt.Fprintf(out, "! %v\n", e.Err); err != nil {
			t.log.Warn("write notice failed", zap.Error(err))
		}
		if e.Kind == thread.EventLoadFailed {
			return
		}
	case thread.EventAdded, thread.EventEdited, thread.EventReacted, thread.EventUnreacted:
		// the confirmation or revert that follows redraws
		return
	case thread.EventClosed:
		return
	}
	if err := t.Render(ctx, out); err != nil {
		t.log.Warn("render failed", zap.String("event", string(e.Kind)), zap.Error(err))
	}
}

// Render writes the whole thread followed by the composer box.
func (t *Text) Render(ctx context.Context, w io.Writer) error {
	t.mu.Lock()
	m := t.model
	t.mu.Unlock()

	var b strings.Builder
	t.header(&b, m)
	switch m.Status() {
	case thread.StatusReady:
		if m.Len() == 0 {
			b.WriteString("No comments yet.\n")
		} else if t.mode == config.ModeFlat {
			for _, v := range m.Flat() {
				t.comment(ctx, &b, v, "")
			}
		} else {
			m.Walk(func(v thread.CommentView) bool {
				t.comment(ctx, &b, v, strings.Repeat(indent, v.Depth))
				return true
			})
		}
	case thread.StatusLoadFailed:
		fmt.Fprintf(&b, "Could not load comments: %v\n", m.Err())
	case thread.StatusLoading:
		b.WriteString("Loading comments...\n")
	case thread.StatusClosed:
		b.WriteString("Thread closed.\n")
		_, err := io.WriteString(w, b.String())
		return err
	default:
		b.WriteString("No thread loaded.\n")
	}
	t.composer(&b)

	_, err := io.WriteString(w, b.String())
	return err
}

func (t *Text) header(b *strings.Builder, m Model) {
	title := fmt.Sprintf("Thread %s", m.ThreadID())
	if m.Status() == thread.StatusReady {
		title = fmt.Sprintf("%s (%d comments, %s view)", title, m.Len(), t.mode)
	}
	b.WriteString(title)
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("=", len(title)))
	b.WriteByte('\n')
}

func (t *Text) comment(ctx context.Context, b *strings.Builder, v thread.CommentView, pad string) {
	if v.Tombstoned() {
		fmt.Fprintf(b, "%s%s #%s\n", pad, deletedMarker, v.ID)
		return
	}

	author := t.author(ctx, v.AuthorID)
	fmt.Fprintf(b, "%s%s %s #%s  %s", pad, t.avatarFor(author), author.Username, v.ID, stamp(v.CreatedAt))
	if v.UpdatedAt.After(v.CreatedAt) {
		b.WriteString(" (edited)")
	}
	switch v.State {
	case thread.StatePending:
		b.WriteString(" (sending)")
	case thread.StateEditing:
		b.WriteString(" (saving)")
	}
	if t.mode == config.ModeFlat && v.ParentID != "" {
		fmt.Fprintf(b, " in reply to #%s", v.ParentID)
	}
	b.WriteByte('\n')

	for _, line := range strings.Split(v.Body, "\n") {
		fmt.Fprintf(b, "%s  %s\n", pad, line)
	}
	if r := t.reactions(v); r != "" {
		fmt.Fprintf(b, "%s  %s\n", pad, r)
	}
}

func (t *Text) reactions(v thread.CommentView) string {
	counts := v.Counts()
	mine := make(map[string]bool)
	for _, r := range v.Reactions {
		if r.UserID == t.user.ID {
			mine[r.Kind] = true
		}
	}

	kinds := append([]string(nil), t.kinds...)
	for k := range counts {
		if !contains(kinds, k) {
			kinds = append(kinds, k)
		}
	}
	sort.Strings(kinds[len(t.kinds):])

	var parts []string
	for _, k := range kinds {
		if counts[k] == 0 {
			continue
		}
		part := fmt.Sprintf("%s %d", k, counts[k])
		if mine[k] {
			part += "*"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " | ")
}

// author returns the profile of id. The current user comes from the config,
// anyone else from the directory; unknown users show their id.
func (t *Text) author(ctx context.Context, id string) datasource.User {
	if id == t.user.ID && t.user.Username != "" {
		return datasource.User{ID: id, Username: t.user.Username, AvatarType: datasource.AvatarType(t.user.AvatarType)}
	}
	u, err := t.users.Lookup(ctx, id)
	if err != nil {
		t.log.Debug("author lookup failed", zap.String("user_id", id), zap.Error(err))
		return datasource.User{ID: id, Username: id, AvatarType: datasource.AvatarSquare}
	}
	if u.Username == "" {
		u.Username = id
	}
	return u
}

// avatarFor draws the initial of u in the frame of its avatar type.
func (t *Text) avatarFor(u datasource.User) string {
	initial := "?"
	for _, r := range u.Username {
		initial = strings.ToUpper(string(r))
		break
	}
	frame, ok := t.frames[u.AvatarType]
	if !ok {
		frame = t.frames[datasource.AvatarSquare]
	}
	return fmt.Sprintf(frame, initial)
}

// composer draws the empty reply box, t.rows lines high.
func (t *Text) composer(b *strings.Builder) {
	const width = 60
	label := " Reply as " + t.user.Username + " "
	if t.user.Username == "" {
		label = " Reply as " + t.user.ID + " "
	}
	top := "+" + label + strings.Repeat("-", max(width-len(label), 0)) + "+"
	b.WriteByte('\n')
	b.WriteString(top)
	b.WriteByte('\n')
	for range t.rows {
		b.WriteString("|" + strings.Repeat(" ", len(top)-2) + "|\n")
	}
	b.WriteString("+" + strings.Repeat("-", len(top)-2) + "+\n")
}

func stamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(timeFormat)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
