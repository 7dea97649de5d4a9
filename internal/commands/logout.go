package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"

	"gtodo/internal/config"
	"gtodo/internal/exitcode"
	"gtodo/internal/service"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd deletes token.json. oauth_client.json and any service account
// file are left alone.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return nil }
func (c *LogoutCmd) Synopsis() string  { return "Remove the stored Firestore login token" }
func (c *LogoutCmd) Usage() string     { return "gtodo logout" }
func (c *LogoutCmd) NeedsStore() bool  { return false }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	msg := "ok"
	err := cfg.RemoveToken()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		msg = "not logged in"
	case err != nil:
		fmt.Fprintf(errOut, "error: failed to remove token: %v\n", err)
		return exitcode.ConfigError
	default:
		cfg.Logger().Debug("token removed", "path", cfg.TokenPath())
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, msg)
	}
	return exitcode.Success
}
