package service

import (
	"context"
	"errors"
)

var (
	// ErrNotInitialized means the store connection was never established,
	// usually because configuration is missing.
	ErrNotInitialized = errors.New("store not initialized")

	// ErrNotFound means the target task does not exist.
	ErrNotFound = errors.New("task not found")

	// ErrTransport covers every other store or network failure.
	ErrTransport = errors.New("store request failed")
)

// Classify returns a short label for err, suitable for metrics and logs.
func Classify(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotInitialized):
		return "not_initialized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "transport"
	}
}
