package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"gtodo/internal/config"
	"gtodo/internal/exitcode"
	"gtodo/internal/service"
	"gtodo/internal/view"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command.
type EditCmd struct{}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Change the text of a task" }
func (c *EditCmd) Usage() string     { return "gtodo edit <n> <text...>" }
func (c *EditCmd) NeedsStore() bool  { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	v := newView(cfg, svc)
	task, rest, code := loadRow(ctx, v, args, errOut)
	if code != exitcode.Success {
		return code
	}

	if err := v.StartEdit(task.ID); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	v.SetEditText(strings.Join(rest, " "))

	if err := v.SaveEdit(ctx); err != nil {
		if errors.Is(err, view.ErrBlankText) {
			fmt.Fprintln(errOut, "error: text required")
			return exitcode.UserError
		}
		return storeError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
