package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"gtodo/internal/config"
	"gtodo/internal/exitcode"
	"gtodo/internal/logger"
	"gtodo/internal/output"
	"gtodo/internal/service"
	"gtodo/internal/view"
)

// newView builds a view over svc. One-shot commands report failures on
// stderr themselves, so the view logs only with --debug.
func newView(cfg *config.Config, svc service.Service) *view.View {
	log := logger.Discard()
	if cfg.Debug {
		log = cfg.Logger()
	}
	return view.New(svc,
		view.WithLogger(log),
		view.WithSurfacedMutationErrors(cfg.SurfaceMutationErrors),
	)
}

// storeError prints a store failure and returns the matching exit code.
func storeError(errOut io.Writer, err error) int {
	if errors.Is(err, service.ErrNotInitialized) {
		fmt.Fprintf(errOut, "error: %v\n", err)
		fmt.Fprintln(errOut, view.NotInitializedHint)
		return exitcode.ConfigError
	}
	fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	return exitcode.BackendError
}

// loadRow loads the list and returns the task at the referenced row.
// On failure the error has been printed and code is the exit code.
func loadRow(ctx context.Context, v *view.View, args []string, errOut io.Writer) (task service.Task, rest []string, code int) {
	ref, rest, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return service.Task{}, nil, exitcode.UserError
	}
	if ref.TaskNum < 1 {
		fmt.Fprintf(errOut, "error: task number out of range: %d\n", ref.TaskNum)
		return service.Task{}, nil, exitcode.UserError
	}

	if err := v.Load(ctx); err != nil {
		return service.Task{}, nil, storeError(errOut, err)
	}

	task, ok := v.TaskAt(ref.TaskNum)
	if !ok {
		fmt.Fprintf(errOut, "error: task number out of range: %d\n", ref.TaskNum)
		return service.Task{}, nil, exitcode.UserError
	}
	return task, rest, exitcode.Success
}

// colorEnabled reports whether out is a terminal that should get ANSI
// styling. NO_COLOR disables it.
func colorEnabled(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func outputOptions(out io.Writer) output.Options {
	return output.Options{Color: colorEnabled(out)}
}
