// Package terminal runs the task view as an interactive line-oriented shell.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gtodo/internal/output"
	"gtodo/internal/view"
)

// CancelInput leaves edit mode without saving. A line holding only ESC
// does the same.
const CancelInput = "/cancel"

const helpText = `Commands:
  a <text>   Add a task
  t <n>      Toggle task n completed or pending
  e <n>      Edit task n (next line is the new text, /cancel or ESC to cancel)
  d <n>      Delete task n
  r          Reload
  ?          Show this help
  q          Quit
`

// Shell reads commands from In and renders the view to Out after each one.
type Shell struct {
	View *view.View
	In   io.Reader
	Out  io.Writer
	Opts output.Options
}

// Run loads the list and processes input until EOF, q, or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		sc := bufio.NewScanner(s.In)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		readErr <- sc.Err()
		close(lines)
	}()

	// Load failures end up on the banner.
	_ = s.View.Load(ctx)
	s.render()

	for {
		s.prompt()

		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(s.Out)
				return <-readErr
			}
			line = l
		}

		if quit := s.handle(ctx, line); quit {
			return nil
		}
	}
}

func (s *Shell) prompt() {
	if id := s.View.Snapshot().EditingID; id != "" {
		fmt.Fprint(s.Out, "editar> ")
		return
	}
	fmt.Fprint(s.Out, "> ")
}

func (s *Shell) render() {
	output.RenderView(s.Out, s.View.Snapshot(), s.Opts)
}

func (s *Shell) fail(err error) {
	fmt.Fprintf(s.Out, "error: %v\n", err)
}

// handle runs one input line. It reports true when the shell should exit.
func (s *Shell) handle(ctx context.Context, line string) bool {
	if s.View.Snapshot().EditingID != "" {
		s.handleEdit(ctx, line)
		return false
	}

	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
		return false
	case "q", "quit", "exit":
		return true
	case "?", "h", "help":
		fmt.Fprint(s.Out, helpText)
		return false
	case "r", "reload":
		_ = s.View.Load(ctx)
	case "a", "add":
		s.View.SetDraft(arg)
		if err := s.View.Submit(ctx); err != nil && !isStoreError(err) {
			s.fail(err)
			return false
		}
	case "t", "toggle":
		id, ok := s.row(arg)
		if !ok {
			return false
		}
		if err := s.View.Toggle(ctx, id); err != nil {
			s.fail(err)
		}
	case "e", "edit":
		id, ok := s.row(arg)
		if !ok {
			return false
		}
		if err := s.View.StartEdit(id); err != nil {
			s.fail(err)
			return false
		}
		fmt.Fprintf(s.Out, "%s\n", s.View.Snapshot().EditText)
		return false
	case "d", "delete", "rm":
		id, ok := s.row(arg)
		if !ok {
			return false
		}
		if err := s.View.Delete(ctx, id); err != nil {
			s.fail(err)
		}
	default:
		fmt.Fprintf(s.Out, "unknown command: %s (? for help)\n", cmd)
		return false
	}

	s.render()
	return false
}

func (s *Shell) handleEdit(ctx context.Context, line string) {
	if isCancel(line) {
		s.View.CancelEdit()
		s.render()
		return
	}

	s.View.SetEditText(line)
	if err := s.View.SaveEdit(ctx); err != nil {
		s.fail(err)
		return
	}
	s.render()
}

func isCancel(line string) bool {
	line = strings.TrimSpace(line)
	return line == CancelInput || line == "\x1b"
}

// row resolves a 1-based row argument to a task ID, printing an error if
// it is not a listed row.
func (s *Shell) row(arg string) (string, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Fprintf(s.Out, "error: invalid task reference: %s\n", arg)
		return "", false
	}
	task, ok := s.View.TaskAt(n)
	if !ok {
		fmt.Fprintf(s.Out, "error: task number out of range: %d\n", n)
		return "", false
	}
	return task.ID, true
}

// isStoreError reports whether err came from the store rather than from
// input validation. Store failures on add are already on the banner.
func isStoreError(err error) bool {
	return !errors.Is(err, view.ErrBlankText) && !errors.Is(err, view.ErrBusy)
}
