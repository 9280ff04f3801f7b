package datasource

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the remote does not know the targeted id
	ErrNotFound = errors.New("record not found")

	// ErrNotSupported indicates the operation is not configured for the entity
	ErrNotSupported = errors.New("operation not supported")

	// ErrConsumed indicates a read sequence was iterated a second time
	ErrConsumed = errors.New("read sequence already consumed")

	// ErrInvalidRecord indicates a remote record is missing a required field
	ErrInvalidRecord = errors.New("invalid record")
)

// RemoteError is returned for any failed round trip. StatusCode is 0 when the
// request never produced an HTTP response.
type RemoteError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means the remote does not have the record.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var remoteErr *RemoteError
	return errors.As(err, &remoteErr) && remoteErr.StatusCode == 404
}

// StatusCode extracts the HTTP status of a remote failure, or 0.
func StatusCode(err error) int {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.StatusCode
	}
	return 0
}
