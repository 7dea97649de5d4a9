// Package memory implements service.Service in process memory.
// State is lost when the process exits.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"gtodo/internal/service"
)

// Store is an in-memory task store, safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	tasks  map[string]service.Task
	now    func() time.Time
	lastID int64
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		tasks: make(map[string]service.Task),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// nextID derives an ID from the creation time in nanoseconds.
// Two creations within the same nanosecond get consecutive IDs.
func (s *Store) nextID(t time.Time) string {
	n := t.UnixNano()
	if n <= s.lastID {
		n = s.lastID + 1
	}
	s.lastID = n
	return strconv.FormatInt(n, 10)
}

// CreateTask implements service.Service.
func (s *Store) CreateTask(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id := s.nextID(now)
	s.tasks[id] = service.Task{
		ID:        id,
		Text:      text,
		Completed: false,
		CreatedAt: now,
	}
	return id, nil
}

// ListTasks implements service.Service.
func (s *Store) ListTasks(ctx context.Context) ([]service.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]service.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		result = append(result, t)
	}
	SortNewestFirst(result)
	return result, nil
}

// UpdateTask implements service.Service.
func (s *Store) UpdateTask(ctx context.Context, id string, update service.TaskUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return service.ErrNotFound
	}
	update.Apply(&t)
	s.tasks[id] = t
	return nil
}

// DeleteTask implements service.Service.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tasks, id)
	return nil
}

// SortNewestFirst orders tasks by CreatedAt descending, breaking ties by
// ID descending so the order is deterministic.
func SortNewestFirst(tasks []service.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID > tasks[j].ID
	})
}
