package engine

import (
	"errors"
	"fmt"
)

// Kind categorizes business outcomes.
type Kind string

const (
	// KindUnauthenticated indicates a request without a worker id.
	KindUnauthenticated Kind = "UNAUTHENTICATED"

	// KindBlocked indicates a worker that has run out of lives.
	KindBlocked Kind = "BLOCKED"

	// KindOutOfVideos indicates the worker has seen too much of the
	// catalogue to build another level.
	KindOutOfVideos Kind = "OUT_OF_VIDEOS"

	// KindInvalidResults indicates a submission that failed validation.
	KindInvalidResults Kind = "INVALID_RESULTS"
)

// Error is a business outcome. It is returned to the caller, never logged
// as a fault.
type Error struct {
	// Kind identifies the outcome.
	Kind Kind

	// Message is a human-readable description safe to show to clients.
	Message string

	// WorkerID is the worker the request was made for, if known.
	WorkerID string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.WorkerID != "" {
		return fmt.Sprintf("%s: %s (worker=%s)", e.Kind, e.Message, e.WorkerID)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// KindOf returns the Kind of err if it wraps an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsKind reports whether err wraps an *Error of kind k.
func IsKind(err error, k Kind) bool {
	kind, ok := KindOf(err)
	return ok && kind == k
}

func errUnauthenticated() *Error {
	return &Error{Kind: KindUnauthenticated, Message: "no worker id provided"}
}

func errBlocked(workerID string) *Error {
	return &Error{Kind: KindBlocked, Message: "worker has no lives left", WorkerID: workerID}
}

func errOutOfVideos(workerID string) *Error {
	return &Error{Kind: KindOutOfVideos, Message: "not enough unseen videos to build a level", WorkerID: workerID}
}

func errInvalidResults(workerID, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidResults, Message: fmt.Sprintf(format, args...), WorkerID: workerID}
}
