package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"gtodo/internal/config"
	"gtodo/internal/exitcode"
	"gtodo/internal/service"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command. Like the checkbox it mirrors, it
// flips the flag, so running it on a completed task reopens it.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string  { return "Toggle a task completed or pending" }
func (c *DoneCmd) Usage() string     { return "gtodo done <n>" }
func (c *DoneCmd) NeedsStore() bool  { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	v := newView(cfg, svc)
	task, _, code := loadRow(ctx, v, args, errOut)
	if code != exitcode.Success {
		return code
	}

	if err := v.Toggle(ctx, task.ID); err != nil {
		return storeError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
