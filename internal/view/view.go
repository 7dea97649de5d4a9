// Package view implements the task view: the list state, the draft and edit
// buffers, and the reload-after-mutation protocol shared by every frontend.
package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"gtodo/internal/service"
)

var (
	// ErrBlankText is returned when a draft or edit is empty or whitespace.
	// No store call is made.
	ErrBlankText = errors.New("text required")

	// ErrBusy is returned when a create is already in flight.
	ErrBusy = errors.New("a task is already being added")

	// ErrUnknownTask is returned for an ID not in the displayed list.
	ErrUnknownTask = errors.New("task not in list")

	// ErrNotEditing is returned by SaveEdit when no row is in edit mode.
	ErrNotEditing = errors.New("no task is being edited")
)

// NotInitializedHint is shown under the banner when the store has no
// usable configuration.
const NotInitializedHint = "Por favor, verifica que la configuración del almacén de tareas " +
	"(FIREBASE_PROJECT_ID y credenciales, DATABASE_URL o REDIS_ADDR) esté disponible."

// Phase is the coarse state of the view.
type Phase int

const (
	Ready Phase = iota
	Loading
	Adding
	Error
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Adding:
		return "adding"
	case Error:
		return "error"
	default:
		return "ready"
	}
}

// State is a snapshot of the view.
type State struct {
	Tasks []service.Task

	// Draft is the new-task input.
	Draft string

	// EditingID names the single row in edit mode; empty when none.
	EditingID string
	EditText  string

	Loading bool
	Adding  bool

	// Err is the banner message; Hint is optional guidance below it.
	Err  string
	Hint string
}

// Phase reports the coarse state. In-flight work wins over a stale error.
func (s State) Phase() Phase {
	switch {
	case s.Loading:
		return Loading
	case s.Adding:
		return Adding
	case s.Err != "":
		return Error
	default:
		return Ready
	}
}

// Editing reports whether the row id is in edit mode.
func (s State) Editing(id string) bool {
	return id != "" && s.EditingID == id
}

// Counts summarises the list.
type Counts struct {
	Total     int
	Completed int
	Pending   int
}

// Counts returns total, completed and pending task counts.
func (s State) Counts() Counts {
	c := Counts{Total: len(s.Tasks)}
	for _, t := range s.Tasks {
		if t.Completed {
			c.Completed++
		}
	}
	c.Pending = c.Total - c.Completed
	return c
}

// Option configures a View.
type Option func(*View)

// WithLogger sets the logger used for swallowed failures.
func WithLogger(log *slog.Logger) Option {
	return func(v *View) { v.log = log }
}

// WithSurfacedMutationErrors puts toggle, edit and delete failures on the
// banner. By default they are only logged.
func WithSurfacedMutationErrors(on bool) Option {
	return func(v *View) { v.surfaceMutationErrors = on }
}

// View owns the task list state and talks to the gateway.
// It is safe for concurrent use. Gateway calls run without holding the
// lock, so snapshots stay available while a call is outstanding.
type View struct {
	svc                   service.Service
	log                   *slog.Logger
	surfaceMutationErrors bool

	mu sync.Mutex
	st State
}

// New creates a View over svc. The list is empty until Load is called.
func New(svc service.Service, opts ...Option) *View {
	v := &View{
		svc: svc,
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Snapshot returns a copy of the current state.
func (v *View) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()

	st := v.st
	st.Tasks = append([]service.Task(nil), v.st.Tasks...)
	return st
}

func (v *View) update(fn func(st *State)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(&v.st)
}

// setError puts err on the banner, with guidance when the store was never
// initialized.
func setError(st *State, err error) {
	st.Err = err.Error()
	st.Hint = ""
	if errors.Is(err, service.ErrNotInitialized) {
		st.Hint = NotInitializedHint
	}
}

// Load fetches the full list. On failure the banner is set and the
// last-known list is kept.
func (v *View) Load(ctx context.Context) error {
	v.update(func(st *State) {
		st.Loading = true
		st.Err, st.Hint = "", ""
	})

	tasks, err := v.svc.ListTasks(ctx)

	v.update(func(st *State) {
		st.Loading = false
		if err != nil {
			setError(st, err)
			return
		}
		st.Tasks = tasks
		// A row removed by someone else cannot stay in edit mode.
		if st.EditingID != "" && !containsTask(tasks, st.EditingID) {
			st.EditingID, st.EditText = "", ""
		}
	})
	if err != nil {
		v.log.Error("loading tasks failed", "error", err)
		return fmt.Errorf("load tasks: %w", err)
	}
	v.log.Debug("tasks loaded", "count", len(tasks))
	return nil
}

// SetDraft replaces the new-task input.
func (v *View) SetDraft(text string) {
	v.update(func(st *State) { st.Draft = text })
}

// Submit creates a task from the draft, then reloads. The draft is cleared
// only after a successful create; on failure it is kept for a retry.
func (v *View) Submit(ctx context.Context) error {
	return v.submit(ctx, nil)
}

// SubmitText sets the draft and submits it in one step, so a concurrent
// SetDraft cannot change the text between the two.
func (v *View) SubmitText(ctx context.Context, text string) error {
	return v.submit(ctx, &text)
}

func (v *View) submit(ctx context.Context, draft *string) error {
	var (
		text string
		err  error
	)
	v.update(func(st *State) {
		text = st.Draft
		if draft != nil {
			text = *draft
		}
		switch {
		case service.IsBlank(text):
			err = ErrBlankText
		case st.Adding:
			err = ErrBusy
		default:
			st.Draft = text
			st.Adding = true
			st.Err, st.Hint = "", ""
		}
	})
	if err != nil {
		return err
	}

	_, err = v.svc.CreateTask(ctx, text)
	if err != nil {
		v.update(func(st *State) {
			st.Adding = false
			setError(st, err)
		})
		v.log.Error("adding task failed", "error", err)
		return fmt.Errorf("add task: %w", err)
	}

	// Reload failures are reported on the banner by Load itself.
	_ = v.Load(ctx)
	v.update(func(st *State) {
		st.Adding = false
		if st.Draft == text {
			st.Draft = ""
		}
	})
	return nil
}

// Toggle flips the completion flag of a listed task, then reloads whether
// or not the update succeeded.
func (v *View) Toggle(ctx context.Context, id string) error {
	task, ok := v.find(id)
	if !ok {
		return ErrUnknownTask
	}

	err := v.svc.UpdateTask(ctx, id, service.SetCompleted(!task.Completed))
	_ = v.Load(ctx)
	if err != nil {
		v.mutationFailed("updating task failed", id, err)
		return fmt.Errorf("toggle task: %w", err)
	}
	return nil
}

// StartEdit puts the row in edit mode with its current text. Any other row
// leaves edit mode without saving.
func (v *View) StartEdit(id string) error {
	var err error
	v.update(func(st *State) {
		for _, t := range st.Tasks {
			if t.ID == id {
				st.EditingID = id
				st.EditText = t.Text
				return
			}
		}
		err = ErrUnknownTask
	})
	return err
}

// SetEditText replaces the edit buffer.
func (v *View) SetEditText(text string) {
	v.update(func(st *State) { st.EditText = text })
}

// SaveEdit persists the edit buffer. A blank buffer is rejected and the row
// stays in edit mode. On success the row leaves edit mode and the list is
// reloaded; on failure the row stays in edit mode.
func (v *View) SaveEdit(ctx context.Context) error {
	return v.saveEdit(ctx, "", nil)
}

// SaveEditText replaces the edit buffer of row id and saves it in one step.
// It fails with ErrNotEditing unless id is the row in edit mode.
func (v *View) SaveEditText(ctx context.Context, id, text string) error {
	return v.saveEdit(ctx, id, &text)
}

func (v *View) saveEdit(ctx context.Context, want string, buf *string) error {
	var (
		id, text string
		err      error
	)
	v.update(func(st *State) {
		if buf != nil && want != "" && st.EditingID == want {
			st.EditText = *buf
		}
		switch {
		case st.EditingID == "", want != "" && st.EditingID != want:
			err = ErrNotEditing
		case service.IsBlank(st.EditText):
			err = ErrBlankText
		default:
			id, text = st.EditingID, st.EditText
		}
	})
	if err != nil {
		return err
	}

	if err := v.svc.UpdateTask(ctx, id, service.SetText(text)); err != nil {
		v.mutationFailed("saving task failed", id, err)
		return fmt.Errorf("save task: %w", err)
	}

	v.update(func(st *State) {
		if st.EditingID == id {
			st.EditingID, st.EditText = "", ""
		}
	})
	_ = v.Load(ctx)
	return nil
}

// CancelEdit leaves edit mode without saving.
func (v *View) CancelEdit() {
	v.update(func(st *State) {
		st.EditingID, st.EditText = "", ""
	})
}

// Delete removes a task, then reloads whether or not the delete succeeded.
func (v *View) Delete(ctx context.Context, id string) error {
	err := v.svc.DeleteTask(ctx, id)
	_ = v.Load(ctx)
	if err != nil {
		v.mutationFailed("deleting task failed", id, err)
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// mutationFailed logs a toggle/edit/delete failure and, if configured,
// puts it on the banner. Called after any reload so the banner sticks.
func (v *View) mutationFailed(msg, id string, err error) {
	v.log.Error(msg, "task", id, "error", err)
	if v.surfaceMutationErrors {
		v.update(func(st *State) { setError(st, err) })
	}
}

func (v *View) find(id string) (service.Task, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, t := range v.st.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

// TaskAt returns the task shown at 1-based row n.
func (v *View) TaskAt(n int) (service.Task, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if n < 1 || n > len(v.st.Tasks) {
		return service.Task{}, false
	}
	return v.st.Tasks[n-1], true
}

func containsTask(tasks []service.Task, id string) bool {
	for _, t := range tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}
