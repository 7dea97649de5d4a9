// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"strings"
	"time"
)

// Task represents a single to-do item.
type Task struct {
	ID        string
	Text      string
	Completed bool
	CreatedAt time.Time
}

// TaskUpdate is a partial update. Nil fields are left unchanged.
type TaskUpdate struct {
	Text      *string
	Completed *bool
}

// SetText returns an update that changes only the text.
func SetText(text string) TaskUpdate {
	return TaskUpdate{Text: &text}
}

// SetCompleted returns an update that changes only the completion flag.
func SetCompleted(completed bool) TaskUpdate {
	return TaskUpdate{Completed: &completed}
}

// IsEmpty reports whether the update changes nothing.
func (u TaskUpdate) IsEmpty() bool {
	return u.Text == nil && u.Completed == nil
}

// FieldPaths returns the document field names touched by the update,
// in a stable order.
func (u TaskUpdate) FieldPaths() []string {
	var paths []string
	if u.Text != nil {
		paths = append(paths, FieldText)
	}
	if u.Completed != nil {
		paths = append(paths, FieldCompleted)
	}
	return paths
}

// Apply merges the update into t.
func (u TaskUpdate) Apply(t *Task) {
	if u.Text != nil {
		t.Text = *u.Text
	}
	if u.Completed != nil {
		t.Completed = *u.Completed
	}
}

// Document field names shared by every store.
const (
	FieldText      = "text"
	FieldCompleted = "completed"
	FieldCreatedAt = "createdAt"
)

// DefaultCollection is the collection holding task documents.
const DefaultCollection = "todos"

// IsBlank reports whether text is empty or whitespace-only.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
