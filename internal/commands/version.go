package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"runtime/debug"

	"gtodo/internal/config"
	"gtodo/internal/exitcode"
	"gtodo/internal/service"
)

// Version is the application version. Set at build time with
// -ldflags "-X gtodo/internal/commands.Version=...".
var Version = "0.1.0"

func init() {
	Register(&VersionCmd{})
}

// VersionCmd implements the version command.
type VersionCmd struct{}

func (c *VersionCmd) Name() string      { return "version" }
func (c *VersionCmd) Aliases() []string { return nil }
func (c *VersionCmd) Synopsis() string  { return "Print version" }
func (c *VersionCmd) Usage() string     { return "gtodo version" }
func (c *VersionCmd) NeedsStore() bool  { return false }

func (c *VersionCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *VersionCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	fmt.Fprintf(out, "%s %s\n", config.AppName, Version)
	if cfg != nil && cfg.Debug {
		if info, ok := debug.ReadBuildInfo(); ok {
			fmt.Fprintf(out, "go: %s\n", info.GoVersion)
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" {
					fmt.Fprintf(out, "revision: %s\n", s.Value)
				}
			}
		}
	}
	return exitcode.Success
}
