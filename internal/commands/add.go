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
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct{}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string     { return "gtodo add <text...>" }
func (c *AddCmd) NeedsStore() bool  { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	v := newView(cfg, svc)
	v.SetDraft(strings.Join(args, " "))

	if err := v.Submit(ctx); err != nil {
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
