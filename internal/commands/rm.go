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
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "gtodo rm <n>" }
func (c *RmCmd) NeedsStore() bool  { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	v := newView(cfg, svc)
	task, _, code := loadRow(ctx, v, args, errOut)
	if code != exitcode.Success {
		return code
	}

	if err := v.Delete(ctx, task.ID); err != nil {
		return storeError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
