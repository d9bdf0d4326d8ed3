package clicommand

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
	"github.com/vaultrun/vaultrun/env"
	"github.com/vaultrun/vaultrun/internal/hostenv"
)

const contextHelpDescription = `Usage:

    vaultrun context

Description:

Print the execution context vaultrun has classified this host as. The
context decides how sessions are acquired: interactive hosts may prompt and
cache, CI hosts require a service credential and never touch disk.

Example:

    $ vaultrun context
    github_actions`

var ContextCommand = cli.Command{
	Name:        "context",
	Usage:       "Print the classified execution context",
	Description: contextHelpDescription,
	Action: func(c *cli.Context) error {
		hctx := hostenv.Classify(env.FromSlice(os.Environ()))
		_, err := fmt.Fprintln(c.App.Writer, hctx)
		return err
	},
}
