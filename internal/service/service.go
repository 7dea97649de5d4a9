// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service is the persistence gateway for the task collection.
// All store access goes through this interface.
// Views and commands never import a store SDK directly.
type Service interface {
	// CreateTask inserts a task with the given text, completed=false and
	// a creation time chosen by the store. Returns the generated ID.
	CreateTask(ctx context.Context, text string) (string, error)

	// ListTasks returns every task, most recently created first.
	ListTasks(ctx context.Context) ([]Task, error)

	// UpdateTask applies a partial update.
	// Returns ErrNotFound if the task does not exist.
	UpdateTask(ctx context.Context, id string, update TaskUpdate) error

	// DeleteTask removes a task. Deleting a missing task is not an error.
	DeleteTask(ctx context.Context, id string) error
}
