package commands

import (
	"context"
	"flag"
	"io"

	"gtodo/internal/config"
	"gtodo/internal/exitcode"
	"gtodo/internal/output"
	"gtodo/internal/service"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `gtodo` (no args) and `gtodo list`.
type ListCmd struct{}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks, newest first" }
func (c *ListCmd) Usage() string     { return "gtodo list" }
func (c *ListCmd) NeedsStore() bool  { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	v := newView(cfg, svc)
	if err := v.Load(ctx); err != nil {
		return storeError(errOut, err)
	}

	st := v.Snapshot()
	if len(st.Tasks) == 0 && cfg.Quiet {
		return exitcode.Success
	}

	opts := outputOptions(out)
	output.FormatList(out, st, opts)
	if len(st.Tasks) > 0 && !cfg.Quiet {
		output.FormatCounts(out, st.Counts())
	}
	return exitcode.Success
}
