package service

import (
	"context"
	"fmt"
)

// Unconfigured is the Service used when no store connection could be
// established. Every call fails with ErrNotInitialized.
type Unconfigured struct {
	// Reason explains what is missing, e.g. "FIREBASE_PROJECT_ID not set".
	Reason string
}

func (u Unconfigured) err() error {
	if u.Reason == "" {
		return ErrNotInitialized
	}
	return fmt.Errorf("%w: %s", ErrNotInitialized, u.Reason)
}

// CreateTask implements Service.
func (u Unconfigured) CreateTask(ctx context.Context, text string) (string, error) {
	return "", u.err()
}

// ListTasks implements Service.
func (u Unconfigured) ListTasks(ctx context.Context) ([]Task, error) {
	return nil, u.err()
}

// UpdateTask implements Service.
func (u Unconfigured) UpdateTask(ctx context.Context, id string, update TaskUpdate) error {
	return u.err()
}

// DeleteTask implements Service.
func (u Unconfigured) DeleteTask(ctx context.Context, id string) error {
	return u.err()
}
