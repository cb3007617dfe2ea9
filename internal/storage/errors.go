package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageUnavailable means the backend is missing required
	// configuration and cannot be used at all.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrRemote is matched by every *RemoteError.
	ErrRemote = errors.New("remote storage error")
)

// RemoteError is a failed call to a remote backend: a transport failure or a
// non-2xx response.
type RemoteError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
}

func (e *RemoteError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrRemote, e.Err}
	}
	return []error{ErrRemote}
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStorageUnavailable, fmt.Sprintf(format, args...))
}
