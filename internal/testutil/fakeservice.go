// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sync"
	"time"

	"gtodo/internal/backend/memory"
	"gtodo/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
// It records how often each operation was called and can fail on demand.
type FakeService struct {
	store *memory.Store

	mu    sync.Mutex
	calls map[string]int
	clock time.Time

	// Error injection for testing
	CreateTaskErr error
	ListTasksErr  error
	UpdateTaskErr error
	DeleteTaskErr error

	// Block, when set, is received from before each call returns, so tests
	// can observe in-flight state.
	Block chan struct{}
}

// NewFakeService creates an empty FakeService. Creation times advance by one
// second per task so list order is deterministic.
func NewFakeService() *FakeService {
	f := &FakeService{
		calls: make(map[string]int),
		clock: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	f.store = memory.New(memory.WithClock(f.tick))
	return f
}

func (f *FakeService) tick() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *FakeService) record(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
	if f.Block != nil {
		<-f.Block
	}
}

// Calls returns how many times op ("create", "list", "update", "delete")
// was called, including failed calls.
func (f *FakeService) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// AddTask seeds a task without counting a call. Returns the generated ID.
func (f *FakeService) AddTask(text string, completed bool) string {
	ctx := context.Background()
	id, _ := f.store.CreateTask(ctx, text)
	if completed {
		_ = f.store.UpdateTask(ctx, id, service.SetCompleted(true))
	}
	return id
}

// Tasks returns the stored tasks without counting a call.
func (f *FakeService) Tasks() []service.Task {
	tasks, _ := f.store.ListTasks(context.Background())
	return tasks
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, text string) (string, error) {
	f.record("create")
	if f.CreateTaskErr != nil {
		return "", f.CreateTaskErr
	}
	return f.store.CreateTask(ctx, text)
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	f.record("list")
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	return f.store.ListTasks(ctx)
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id string, update service.TaskUpdate) error {
	f.record("update")
	if f.UpdateTaskErr != nil {
		return f.UpdateTaskErr
	}
	return f.store.UpdateTask(ctx, id, update)
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id string) error {
	f.record("delete")
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	return f.store.DeleteTask(ctx, id)
}
