package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"gtodo/internal/config"
	"gtodo/internal/exitcode"
	"gtodo/internal/service"
	"gtodo/internal/terminal"
)

func init() {
	Register(&ShellCmd{})
}

// ShellCmd implements the shell command.
type ShellCmd struct {
	// In is the input stream; nil means stdin.
	In io.Reader
}

func (c *ShellCmd) Name() string      { return "shell" }
func (c *ShellCmd) Aliases() []string { return []string{"sh"} }
func (c *ShellCmd) Synopsis() string  { return "Manage tasks interactively" }
func (c *ShellCmd) Usage() string     { return "gtodo shell" }
func (c *ShellCmd) NeedsStore() bool  { return true }

func (c *ShellCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShellCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	in := c.In
	if in == nil {
		in = os.Stdin
	}

	sh := &terminal.Shell{
		View: newView(cfg, svc),
		In:   in,
		Out:  out,
		Opts: outputOptions(out),
	}
	if err := sh.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}
