package redisstore_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"gtodo/internal/backend/redisstore"
	"gtodo/internal/service"
)

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestStoreIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	pass := os.Getenv("REDIS_PASSWORD")
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			db = n
		}
	}

	ctx := context.Background()
	collection := fmt.Sprintf("todos_test_%d", time.Now().UnixNano())
	s, err := redisstore.Open(ctx, addr, pass, db, collection)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	first, err := s.CreateTask(ctx, "Buy milk")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	second, err := s.CreateTask(ctx, "Walk dog")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	t.Cleanup(func() {
		s.DeleteTask(context.Background(), first)
		s.DeleteTask(context.Background(), second)
	})

	tasks, err := s.ListTasks(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != second || tasks[1].ID != first {
		t.Errorf("expected newest first, got %+v", tasks)
	}
	if tasks[1].Completed || tasks[1].Text != "Buy milk" {
		t.Errorf("unexpected task: %+v", tasks[1])
	}

	if err := s.UpdateTask(ctx, first, service.SetCompleted(true)); err != nil {
		t.Fatalf("update: %v", err)
	}
	tasks, _ = s.ListTasks(ctx)
	if !tasks[1].Completed {
		t.Error("expected task completed")
	}

	if err := s.UpdateTask(ctx, "missing", service.SetText("x")); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := s.DeleteTask(ctx, first); err != nil {
		t.Fatalf("delete: %v", err)
	}
	tasks, _ = s.ListTasks(ctx)
	if len(tasks) != 1 || tasks[0].ID != second {
		t.Errorf("expected only %s left, got %+v", second, tasks)
	}
}
