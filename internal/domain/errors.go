package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInput      = errors.New("empty input")
	ErrStreamBusy      = errors.New("stream already active")
	ErrStreamAbandoned = errors.New("stream abandoned")
	ErrIdleTimeout     = errors.New("stream idle timeout")
	ErrNoActiveSession = errors.New("no active session")
	ErrSessionNotFound = errors.New("session not found")
	ErrAnonymous       = errors.New("operation requires a signed-in user")
	ErrUserNotFound    = errors.New("user not found")
)

// UpstreamError reports a failed completion request or a broken stream.
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("upstream: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// FrameParseError is logged per frame and never aborts a stream.
type FrameParseError struct {
	Line string
	Err  error
}

func (e *FrameParseError) Error() string {
	return fmt.Sprintf("parse frame %q: %v", e.Line, e.Err)
}

func (e *FrameParseError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps a failed transcript write. The in-memory transcript is kept.
type PersistenceError struct {
	SessionID string
	Err       error
}

func (e *PersistenceError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("persist local transcript: %v", e.Err)
	}
	return fmt.Sprintf("persist session %s: %v", e.SessionID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
