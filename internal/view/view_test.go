package view_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gtodo/internal/logger"
	"gtodo/internal/service"
	"gtodo/internal/testutil"
	"gtodo/internal/view"
)

func newView(t *testing.T, fake *testutil.FakeService, opts ...view.Option) *view.View {
	t.Helper()
	opts = append([]view.Option{view.WithLogger(logger.Discard())}, opts...)
	return view.New(fake, opts...)
}

func TestLoad_NewestFirst(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask("Buy milk", false)
	fake.AddTask("Walk dog", true)
	v := newView(t, fake)

	if err := v.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st := v.Snapshot()
	if len(st.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(st.Tasks))
	}
	if st.Tasks[0].Text != "Walk dog" {
		t.Errorf("expected %q first, got %q", "Walk dog", st.Tasks[0].Text)
	}
	if st.Phase() != view.Ready {
		t.Errorf("expected phase ready, got %s", st.Phase())
	}

	c := st.Counts()
	if c.Total != 2 || c.Completed != 1 || c.Pending != 1 {
		t.Errorf("unexpected counts: %+v", c)
	}
}

func TestLoad_FailureKeepsList(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask("Buy milk", false)
	v := newView(t, fake)
	ctx := context.Background()

	if err := v.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fake.ListTasksErr = fmt.Errorf("%w: connection reset", service.ErrTransport)
	if err := v.Load(ctx); !errors.Is(err, service.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}

	st := v.Snapshot()
	if len(st.Tasks) != 1 {
		t.Errorf("expected last-known list to be kept, got %d tasks", len(st.Tasks))
	}
	if st.Phase() != view.Error {
		t.Errorf("expected phase error, got %s", st.Phase())
	}
	if st.Err == "" {
		t.Error("expected banner message")
	}
	if st.Hint != "" {
		t.Errorf("expected no hint for transport errors, got %q", st.Hint)
	}
}

func TestLoad_NotInitializedHint(t *testing.T) {
	svc := service.Unconfigured{Reason: "FIREBASE_PROJECT_ID not set"}
	v := view.New(svc, view.WithLogger(logger.Discard()))

	if err := v.Load(context.Background()); !errors.Is(err, service.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	st := v.Snapshot()
	if st.Hint != view.NotInitializedHint {
		t.Errorf("expected hint %q, got %q", view.NotInitializedHint, st.Hint)
	}
	if len(st.Tasks) != 0 {
		t.Errorf("expected empty list, got %d tasks", len(st.Tasks))
	}
}

func TestLoad_ClearsPreviousError(t *testing.T) {
	fake := testutil.NewFakeService()
	v := newView(t, fake)
	ctx := context.Background()

	fake.ListTasksErr = service.ErrTransport
	_ = v.Load(ctx)
	fake.ListTasksErr = nil
	if err := v.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st := v.Snapshot(); st.Err != "" {
		t.Errorf("expected banner to clear, got %q", st.Err)
	}
}

func TestSubmit_AddsAndClearsDraft(t *testing.T) {
	fake := testutil.NewFakeService()
	v := newView(t, fake)
	ctx := context.Background()
	_ = v.Load(ctx)

	v.SetDraft("Buy milk")
	if err := v.Submit(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st := v.Snapshot()
	if st.Draft != "" {
		t.Errorf("expected draft to be cleared, got %q", st.Draft)
	}
	if len(st.Tasks) != 1 || st.Tasks[0].Text != "Buy milk" || st.Tasks[0].Completed {
		t.Errorf("unexpected tasks: %+v", st.Tasks)
	}
	if st.Adding {
		t.Error("expected adding to be false after submit")
	}
	if fake.Calls("list") != 2 {
		t.Errorf("expected reload after create, got %d list calls", fake.Calls("list"))
	}
}

func TestSubmit_KeepsTextVerbatim(t *testing.T) {
	fake := testutil.NewFakeService()
	v := newView(t, fake)

	v.SetDraft("  padded  ")
	if err := v.Submit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fake.Tasks()[0].Text; got != "  padded  " {
		t.Errorf("expected %q, got %q", "  padded  ", got)
	}
}

func TestSubmit_BlankRejected(t *testing.T) {
	for _, draft := range []string{"", "   ", "\t\n"} {
		fake := testutil.NewFakeService()
		v := newView(t, fake)

		v.SetDraft(draft)
		if err := v.Submit(context.Background()); !errors.Is(err, view.ErrBlankText) {
			t.Errorf("draft %q: expected ErrBlankText, got %v", draft, err)
		}
		if fake.Calls("create") != 0 {
			t.Errorf("draft %q: expected no create call", draft)
		}
		if st := v.Snapshot(); st.Draft != draft {
			t.Errorf("draft %q: expected draft to be kept, got %q", draft, st.Draft)
		}
	}
}

func TestSubmit_FailureKeepsDraft(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.CreateTaskErr = fmt.Errorf("%w: timeout", service.ErrTransport)
	v := newView(t, fake)

	v.SetDraft("Buy milk")
	if err := v.Submit(context.Background()); !errors.Is(err, service.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}

	st := v.Snapshot()
	if st.Draft != "Buy milk" {
		t.Errorf("expected draft to be kept, got %q", st.Draft)
	}
	if st.Adding {
		t.Error("expected adding to be reset")
	}
	if st.Phase() != view.Error {
		t.Errorf("expected phase error, got %s", st.Phase())
	}
	if fake.Calls("list") != 0 {
		t.Errorf("expected no reload after failed create, got %d", fake.Calls("list"))
	}
}

func TestSubmit_BusyWhileAdding(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.Block = make(chan struct{})
	v := newView(t, fake)
	ctx := context.Background()

	v.SetDraft("Buy milk")
	done := make(chan error, 1)
	go func() { done <- v.Submit(ctx) }()

	waitFor(t, func() bool { return v.Snapshot().Adding })
	if st := v.Snapshot(); st.Phase() != view.Adding {
		t.Errorf("expected phase adding, got %s", st.Phase())
	}

	if err := v.Submit(ctx); !errors.Is(err, view.ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}

	// Release the create and the reload that follows.
	fake.Block <- struct{}{}
	fake.Block <- struct{}{}
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.Calls("create") != 1 {
		t.Errorf("expected 1 create call, got %d", fake.Calls("create"))
	}
}

func TestSubmit_DraftEditedDuringCreateIsKept(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.Block = make(chan struct{})
	v := newView(t, fake)

	v.SetDraft("first")
	done := make(chan error, 1)
	go func() { done <- v.Submit(context.Background()) }()

	waitFor(t, func() bool { return v.Snapshot().Adding })
	v.SetDraft("second")
	fake.Block <- struct{}{}
	fake.Block <- struct{}{}
	<-done

	if st := v.Snapshot(); st.Draft != "second" {
		t.Errorf("expected newer draft to survive, got %q", st.Draft)
	}
}

func TestSubmitText_CreatesGivenText(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.Block = make(chan struct{})
	v := newView(t, fake)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- v.SubmitText(ctx, "first") }()

	waitFor(t, func() bool { return v.Snapshot().Adding })
	v.SetDraft("second")
	if err := v.SubmitText(ctx, "third"); !errors.Is(err, view.ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}
	if st := v.Snapshot(); st.Draft != "second" {
		t.Errorf("a rejected submit must not replace the draft, got %q", st.Draft)
	}

	fake.Block <- struct{}{}
	fake.Block <- struct{}{}
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tasks := fake.Tasks()
	if len(tasks) != 1 || tasks[0].Text != "first" {
		t.Errorf("expected only %q to be created, got %+v", "first", tasks)
	}
}

func TestSubmitText_BlankRejected(t *testing.T) {
	fake := testutil.NewFakeService()
	v := newView(t, fake)
	v.SetDraft("Buy milk")

	if err := v.SubmitText(context.Background(), "  "); !errors.Is(err, view.ErrBlankText) {
		t.Errorf("expected ErrBlankText, got %v", err)
	}
	if fake.Calls("create") != 0 {
		t.Error("expected no create call")
	}
	if st := v.Snapshot(); st.Draft != "Buy milk" {
		t.Errorf("expected draft unchanged, got %q", st.Draft)
	}
}

func TestToggle(t *testing.T) {
	fake := testutil.NewFakeService()
	id := fake.AddTask("Buy milk", false)
	v := newView(t, fake)
	ctx := context.Background()
	_ = v.Load(ctx)

	if err := v.Toggle(ctx, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st := v.Snapshot()
	if !st.Tasks[0].Completed {
		t.Error("expected task to be completed")
	}
	if c := st.Counts(); c.Completed != 1 || c.Pending != 0 {
		t.Errorf("unexpected counts: %+v", c)
	}

	if err := v.Toggle(ctx, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Snapshot().Tasks[0].Completed {
		t.Error("expected task to be pending again")
	}
}

func TestToggle_UnknownTask(t *testing.T) {
	fake := testutil.NewFakeService()
	v := newView(t, fake)

	if err := v.Toggle(context.Background(), "nope"); !errors.Is(err, view.ErrUnknownTask) {
		t.Errorf("expected ErrUnknownTask, got %v", err)
	}
	if fake.Calls("update") != 0 {
		t.Error("expected no update call")
	}
}

func TestToggle_FailureReloadsWithoutBanner(t *testing.T) {
	fake := testutil.NewFakeService()
	id := fake.AddTask("Buy milk", false)
	v := newView(t, fake)
	ctx := context.Background()
	_ = v.Load(ctx)

	fake.UpdateTaskErr = service.ErrTransport
	if err := v.Toggle(ctx, id); !errors.Is(err, service.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}

	st := v.Snapshot()
	if st.Err != "" {
		t.Errorf("expected no banner, got %q", st.Err)
	}
	if st.Tasks[0].Completed {
		t.Error("expected store value to win after reload")
	}
	if fake.Calls("list") != 2 {
		t.Errorf("expected reload after failed toggle, got %d list calls", fake.Calls("list"))
	}
}

func TestToggle_FailureSurfaced(t *testing.T) {
	fake := testutil.NewFakeService()
	id := fake.AddTask("Buy milk", false)
	v := newView(t, fake, view.WithSurfacedMutationErrors(true))
	ctx := context.Background()
	_ = v.Load(ctx)

	fake.UpdateTaskErr = service.ErrTransport
	_ = v.Toggle(ctx, id)

	st := v.Snapshot()
	if st.Phase() != view.Error {
		t.Errorf("expected phase error after reload, got %s", st.Phase())
	}
	if fake.Calls("list") != 2 {
		t.Errorf("expected reload, got %d list calls", fake.Calls("list"))
	}
}

func TestEdit_SaveUpdatesText(t *testing.T) {
	fake := testutil.NewFakeService()
	id := fake.AddTask("Buy milk", true)
	v := newView(t, fake)
	ctx := context.Background()
	_ = v.Load(ctx)

	if err := v.StartEdit(id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st := v.Snapshot()
	if !st.Editing(id) || st.EditText != "Buy milk" {
		t.Fatalf("expected edit mode with current text, got %q/%q", st.EditingID, st.EditText)
	}

	v.SetEditText("Buy oat milk")
	if err := v.SaveEdit(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st = v.Snapshot()
	if st.EditingID != "" {
		t.Errorf("expected edit mode to end, got %q", st.EditingID)
	}
	task := st.Tasks[0]
	if task.Text != "Buy oat milk" {
		t.Errorf("expected %q, got %q", "Buy oat milk", task.Text)
	}
	if !task.Completed {
		t.Error("edit must not change completion")
	}
}

func TestSaveEditText_OnlyForEditedRow(t *testing.T) {
	fake := testutil.NewFakeService()
	milk := fake.AddTask("Buy milk", false)
	dog := fake.AddTask("Walk dog", false)
	v := newView(t, fake)
	ctx := context.Background()
	_ = v.Load(ctx)

	if err := v.StartEdit(milk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := v.SaveEditText(ctx, dog, "Walk cat"); !errors.Is(err, view.ErrNotEditing) {
		t.Errorf("expected ErrNotEditing, got %v", err)
	}
	if fake.Calls("update") != 0 {
		t.Error("expected no update call for a row not in edit mode")
	}
	if st := v.Snapshot(); st.EditText != "Buy milk" {
		t.Errorf("expected edit buffer unchanged, got %q", st.EditText)
	}

	if err := v.SaveEditText(ctx, milk, "Buy oat milk"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st := v.Snapshot()
	if st.EditingID != "" {
		t.Errorf("expected edit mode to end, got %q", st.EditingID)
	}
	for _, task := range fake.Tasks() {
		if task.ID == milk && task.Text != "Buy oat milk" {
			t.Errorf("expected %q, got %q", "Buy oat milk", task.Text)
		}
		if task.ID == dog && task.Text != "Walk dog" {
			t.Errorf("expected other row unchanged, got %q", task.Text)
		}
	}
}

func TestEdit_BlankKeepsEditMode(t *testing.T) {
	fake := testutil.NewFakeService()
	id := fake.AddTask("Buy milk", false)
	v := newView(t, fake)
	ctx := context.Background()
	_ = v.Load(ctx)
	_ = v.StartEdit(id)

	v.SetEditText("   ")
	if err := v.SaveEdit(ctx); !errors.Is(err, view.ErrBlankText) {
		t.Fatalf("expected ErrBlankText, got %v", err)
	}
	if fake.Calls("update") != 0 {
		t.Error("expected no update call")
	}
	if st := v.Snapshot(); !st.Editing(id) {
		t.Error("expected row to stay in edit mode")
	}
}

func TestEdit_FailureKeepsEditMode(t *testing.T) {
	fake := testutil.NewFakeService()
	id := fake.AddTask("Buy milk", false)
	v := newView(t, fake)
	ctx := context.Background()
	_ = v.Load(ctx)
	_ = v.StartEdit(id)
	v.SetEditText("Buy bread")

	fake.UpdateTaskErr = service.ErrTransport
	if err := v.SaveEdit(ctx); !errors.Is(err, service.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	st := v.Snapshot()
	if !st.Editing(id) || st.EditText != "Buy bread" {
		t.Errorf("expected edit buffer to be kept, got %q/%q", st.EditingID, st.EditText)
	}
	if st.Err != "" {
		t.Errorf("expected no banner by default, got %q", st.Err)
	}
}

func TestEdit_FailureSurfaced(t *testing.T) {
	fake := testutil.NewFakeService()
	id := fake.AddTask("Buy milk", false)
	v := newView(t, fake, view.WithSurfacedMutationErrors(true))
	ctx := context.Background()
	_ = v.Load(ctx)
	_ = v.StartEdit(id)
	v.SetEditText("Buy bread")

	fake.UpdateTaskErr = fmt.Errorf("%w: backend down", service.ErrTransport)
	_ = v.SaveEdit(ctx)

	if st := v.Snapshot(); st.Phase() != view.Error {
		t.Errorf("expected phase error, got %s", st.Phase())
	}
}

func TestEdit_CancelDiscardsBuffer(t *testing.T) {
	fake := testutil.NewFakeService()
	id := fake.AddTask("Buy milk", false)
	v := newView(t, fake)
	_ = v.Load(context.Background())

	_ = v.StartEdit(id)
	v.SetEditText("something else")
	v.CancelEdit()

	st := v.Snapshot()
	if st.EditingID != "" || st.EditText != "" {
		t.Errorf("expected edit mode to end, got %q/%q", st.EditingID, st.EditText)
	}
	if st.Tasks[0].Text != "Buy milk" {
		t.Errorf("expected text to be unchanged, got %q", st.Tasks[0].Text)
	}
	if fake.Calls("update") != 0 {
		t.Error("expected no update call")
	}
}

func TestEdit_SingleRow(t *testing.T) {
	fake := testutil.NewFakeService()
	first := fake.AddTask("first", false)
	second := fake.AddTask("second", false)
	v := newView(t, fake)
	_ = v.Load(context.Background())

	_ = v.StartEdit(first)
	v.SetEditText("changed")
	_ = v.StartEdit(second)

	st := v.Snapshot()
	if st.Editing(first) || !st.Editing(second) {
		t.Errorf("expected only %s in edit mode, got %q", second, st.EditingID)
	}
	if st.EditText != "second" {
		t.Errorf("expected buffer to hold second row text, got %q", st.EditText)
	}
	if fake.Calls("update") != 0 {
		t.Error("switching rows must not save")
	}
}

func TestEdit_SaveWithoutEditing(t *testing.T) {
	v := newView(t, testutil.NewFakeService())
	if err := v.SaveEdit(context.Background()); !errors.Is(err, view.ErrNotEditing) {
		t.Errorf("expected ErrNotEditing, got %v", err)
	}
}

func TestEdit_RowDeletedElsewhere(t *testing.T) {
	fake := testutil.NewFakeService()
	id := fake.AddTask("Buy milk", false)
	v := newView(t, fake)
	ctx := context.Background()
	_ = v.Load(ctx)
	_ = v.StartEdit(id)

	_ = fake.DeleteTask(ctx, id)
	_ = v.Load(ctx)

	if st := v.Snapshot(); st.EditingID != "" {
		t.Errorf("expected edit mode to end, got %q", st.EditingID)
	}
}

func TestDelete(t *testing.T) {
	fake := testutil.NewFakeService()
	id := fake.AddTask("Buy milk", false)
	fake.AddTask("Walk dog", false)
	v := newView(t, fake)
	ctx := context.Background()
	_ = v.Load(ctx)

	if err := v.Delete(ctx, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st := v.Snapshot()
	if len(st.Tasks) != 1 || st.Tasks[0].Text != "Walk dog" {
		t.Errorf("unexpected tasks after delete: %+v", st.Tasks)
	}
}

func TestDelete_FailureReloads(t *testing.T) {
	fake := testutil.NewFakeService()
	id := fake.AddTask("Buy milk", false)
	v := newView(t, fake)
	ctx := context.Background()
	_ = v.Load(ctx)

	fake.DeleteTaskErr = service.ErrTransport
	if err := v.Delete(ctx, id); !errors.Is(err, service.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	st := v.Snapshot()
	if len(st.Tasks) != 1 {
		t.Errorf("expected task to still be listed, got %d", len(st.Tasks))
	}
	if st.Err != "" {
		t.Errorf("expected no banner by default, got %q", st.Err)
	}
	if fake.Calls("list") != 2 {
		t.Errorf("expected reload, got %d list calls", fake.Calls("list"))
	}
}

func TestDelete_MissingIsNotAnError(t *testing.T) {
	fake := testutil.NewFakeService()
	v := newView(t, fake)

	if err := v.Delete(context.Background(), "gone"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestTaskAt(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask("older", false)
	fake.AddTask("newer", false)
	v := newView(t, fake)
	_ = v.Load(context.Background())

	task, ok := v.TaskAt(1)
	if !ok || task.Text != "newer" {
		t.Errorf("expected row 1 to be %q, got %q (ok=%v)", "newer", task.Text, ok)
	}
	for _, n := range []int{0, 3, -1} {
		if _, ok := v.TaskAt(n); ok {
			t.Errorf("expected row %d to be out of range", n)
		}
	}
}

func TestPhase_InFlightWinsOverError(t *testing.T) {
	st := view.State{Err: "boom", Loading: true}
	if st.Phase() != view.Loading {
		t.Errorf("expected loading, got %s", st.Phase())
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
