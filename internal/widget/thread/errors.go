package thread

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict indicates another mutation on the same comment is in flight
	ErrConflict = errors.New("concurrent mutation on the same comment")

	// ErrClosed indicates the model was torn down
	ErrClosed = errors.New("thread model closed")

	// ErrNotLoaded indicates no thread has been loaded successfully yet
	ErrNotLoaded = errors.New("thread not loaded")

	// ErrCommentNotFound indicates the comment is not part of the thread
	ErrCommentNotFound = errors.New("comment not found")

	// ErrCommentDeleted indicates the comment is a tombstone
	ErrCommentDeleted = errors.New("comment is deleted")

	// ErrParentNotFound indicates a reply targets an unknown comment
	ErrParentNotFound = errors.New("parent comment not found")

	// ErrParentDeleted indicates a reply targets a tombstone
	ErrParentDeleted = errors.New("parent comment is deleted")

	// ErrNotAuthor indicates the current user may not change the comment
	ErrNotAuthor = errors.New("only the author can change this comment")

	// ErrUnknownKind indicates a reaction kind outside the configured set
	ErrUnknownKind = errors.New("unknown reaction kind")

	// ErrEmptyBody indicates a comment without text
	ErrEmptyBody = errors.New("comment body is empty")
)

// LoadError is returned when the initial fetch of a thread fails. The model
// is left empty and Load may be called again.
type LoadError struct {
	ThreadID string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load thread %s: %v", e.ThreadID, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// MutationError is returned when a create, update or delete fails. Any
// optimistic change has been rolled back by the time it is returned.
type MutationError struct {
	Op        string
	CommentID string
	Err       error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s comment %s: %v", e.Op, e.CommentID, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether retrying the same call may succeed.
func IsRetryable(err error) bool {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return true
	}
	return errors.Is(err, ErrConflict)
}
