package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gtodo/internal/config"
	"gtodo/internal/exitcode"
	"gtodo/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command. It lists every command in Registry,
// or in DefaultRegistry when Registry is nil.
type HelpCmd struct {
	Registry *Registry
}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "gtodo help" }
func (c *HelpCmd) NeedsStore() bool  { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	reg := c.Registry
	if reg == nil {
		reg = DefaultRegistry
	}

	fmt.Fprintln(out, "Usage:")
	fmt.Fprintf(out, "  %s [command] [common flags] [args]\n", config.AppName)
	fmt.Fprintln(out, "  With no command, lists tasks.")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")

	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	for _, cmd := range reg.All() {
		synopsis := cmd.Synopsis()
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			synopsis += " (alias: " + strings.Join(aliases, ", ") + ")"
		}
		fmt.Fprintf(tw, "  %s\t%s\n", cmd.Usage(), synopsis)
	}
	tw.Flush()

	fmt.Fprint(out, commonFlagsText)
	return exitcode.Success
}

const commonFlagsText = `
<n> is the row number shown by list.

Common flags:
  --config <dir>       Override config directory
  --backend <name>     firestore, postgres, redis or memory
  --quiet              Suppress informational output
  --debug              Print debug logs to stderr
`
