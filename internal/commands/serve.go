package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"gtodo/internal/config"
	"gtodo/internal/exitcode"
	"gtodo/internal/service"
	"gtodo/internal/view"
	"gtodo/internal/web"
)

func init() {
	Register(&ServeCmd{})
}

// ServeCmd implements the serve command.
type ServeCmd struct {
	addr string
}

func (c *ServeCmd) Name() string      { return "serve" }
func (c *ServeCmd) Aliases() []string { return nil }
func (c *ServeCmd) Synopsis() string  { return "Serve the task list over HTTP" }
func (c *ServeCmd) Usage() string     { return "gtodo serve [--addr <host:port>]" }
func (c *ServeCmd) NeedsStore() bool  { return true }

func (c *ServeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.addr, "addr", "", "")
}

func (c *ServeCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	addr := c.addr
	if addr == "" {
		addr = cfg.ListenAddr
	}

	log := cfg.Logger()
	v := view.New(svc,
		view.WithLogger(log),
		view.WithSurfacedMutationErrors(cfg.SurfaceMutationErrors),
	)

	if err := web.New(v, log, Version).Run(ctx, addr); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
