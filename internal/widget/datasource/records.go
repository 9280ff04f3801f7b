package datasource

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Entity names a remote collection.
type Entity string

const (
	EntityComments  Entity = "comments"
	EntityUsers     Entity = "users"
	EntityReactions Entity = "reactions"
)

// Operation names a CRUD operation on an entity.
type Operation string

const (
	OpRead   Operation = "read"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Record is one remote entity with canonical field names.
type Record map[string]any

// Filter holds query parameters keyed by canonical field name.
type Filter map[string]string

// AvatarType is how the widget crops a user's avatar.
type AvatarType string

const (
	AvatarSquare AvatarType = "square"
	AvatarCircle AvatarType = "circle"
)

type Comment struct {
	ID        string
	ThreadID  string
	ParentID  string
	AuthorID  string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
	Deleted   bool
}

// CommentDraft is the payload of a comment create.
type CommentDraft struct {
	ThreadID string
	ParentID string
	AuthorID string
	Body     string
}

type User struct {
	ID         string
	Username   string
	Avatar     string
	AvatarType AvatarType
}

type Reaction struct {
	ID        string
	CommentID string
	UserID    string
	Kind      string
}

// ReactionDraft is the payload of a reaction create.
type ReactionDraft struct {
	CommentID string
	UserID    string
	Kind      string
}

func (d CommentDraft) record() Record {
	rec := Record{
		"threadId": d.ThreadID,
		"authorId": d.AuthorID,
		"body":     d.Body,
	}
	if d.ParentID != "" {
		rec["parentId"] = d.ParentID
	}
	return rec
}

func (d ReactionDraft) record() Record {
	return Record{
		"commentId": d.CommentID,
		"userId":    d.UserID,
		"kind":      d.Kind,
	}
}

func commentFromRecord(rec Record, layout string) (Comment, error) {
	c := Comment{
		ID:       stringField(rec, "id"),
		ThreadID: stringField(rec, "threadId"),
		ParentID: stringField(rec, "parentId"),
		AuthorID: stringField(rec, "authorId"),
		Body:     stringField(rec, "body"),
		Deleted:  boolField(rec, "deleted"),
	}
	if c.ID == "" {
		return Comment{}, fmt.Errorf("comment: %w: missing id", ErrInvalidRecord)
	}

	var err error
	if c.CreatedAt, err = timeField(rec, "createdAt", layout); err != nil {
		return Comment{}, fmt.Errorf("comment %s: %w", c.ID, err)
	}
	if c.UpdatedAt, err = timeField(rec, "updatedAt", layout); err != nil {
		return Comment{}, fmt.Errorf("comment %s: %w", c.ID, err)
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	return c, nil
}

func userFromRecord(rec Record) (User, error) {
	u := User{
		ID:         stringField(rec, "id"),
		Username:   stringField(rec, "username"),
		Avatar:     stringField(rec, "avatar"),
		AvatarType: AvatarType(stringField(rec, "avatarType")),
	}
	if u.ID == "" {
		return User{}, fmt.Errorf("user: %w: missing id", ErrInvalidRecord)
	}
	if u.AvatarType != AvatarCircle {
		u.AvatarType = AvatarSquare
	}
	return u, nil
}

func reactionFromRecord(rec Record) (Reaction, error) {
	r := Reaction{
		ID:        stringField(rec, "id"),
		CommentID: stringField(rec, "commentId"),
		UserID:    stringField(rec, "userId"),
		Kind:      stringField(rec, "kind"),
	}
	if r.ID == "" || r.CommentID == "" {
		return Reaction{}, fmt.Errorf("reaction: %w: missing id or commentId", ErrInvalidRecord)
	}
	return r, nil
}

// stringField reads an opaque identifier or text. Remotes that use integer
// keys are normalised to their decimal string.
func stringField(rec Record, key string) string {
	switch v := rec[key].(type) {
	case nil:
		return ""
	case string:
		if v == "undefined" || v == "null" {
			return ""
		}
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func boolField(rec Record, key string) bool {
	switch v := rec[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	case json.Number:
		return v.String() != "0"
	default:
		return false
	}
}

var fallbackLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04:05",
}

// timeField accepts a string in the configured layout (or a common one) or
// a number of unix seconds.
func timeField(rec Record, key, layout string) (time.Time, error) {
	switch v := rec[key].(type) {
	case nil:
		return time.Time{}, nil
	case string:
		if v == "" {
			return time.Time{}, nil
		}
		if layout != "" {
			t, err := time.Parse(layout, v)
			if err != nil {
				return time.Time{}, fmt.Errorf("%w: %s: %v", ErrInvalidRecord, key, err)
			}
			return t, nil
		}
		for _, l := range fallbackLayouts {
			if t, err := time.Parse(l, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %s: unrecognised time %q", ErrInvalidRecord, key, v)
	case json.Number:
		secs, err := v.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s: %v", ErrInvalidRecord, key, err)
		}
		return time.Unix(secs, 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %s: unexpected %T", ErrInvalidRecord, key, v)
	}
}
