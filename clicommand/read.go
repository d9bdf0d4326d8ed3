package clicommand

import (
	"context"
	"fmt"

	"github.com/urfave/cli"
	"github.com/vaultrun/vaultrun/internal/secretstore"
)

const readHelpDescription = `Usage:

    vaultrun read <ref> [options...]

Description:

Resolve a single secret reference and print its value to standard output.
The reference has the form vault://<vault>/<item>/<field>. A session is
acquired the same way ` + "`vaultrun run`" + ` acquires one.

The value goes to stdout only; it is never written into logs.

Example:

    $ vaultrun read vault://dev/github/password`

type ReadConfig struct {
	Ref string `cli:"arg:0" label:"secret reference" validate:"required"`

	// Global flags
	Debug       bool   `cli:"debug"`
	NoColor     bool   `cli:"no-color"`
	StoreCLI    string `cli:"store-cli"`
	SessionPath string `cli:"session-path"`
	ToolConfig  string `cli:"tool-config"`
}

var ReadCommand = cli.Command{
	Name:        "read",
	Usage:       "Resolve a secret reference and print its value",
	Description: readHelpDescription,
	Flags:       globalFlags(),
	Action: func(c *cli.Context) error {
		cfg, l, err := setupLoggerAndConfig[ReadConfig](c)
		if err != nil {
			return printableError(err)
		}

		ref, err := secretstore.ParseRef(cfg.Ref)
		if err != nil {
			return printableError(err)
		}

		stack, err := buildStack(GlobalConfig{
			Debug:       cfg.Debug,
			NoColor:     cfg.NoColor,
			StoreCLI:    cfg.StoreCLI,
			SessionPath: cfg.SessionPath,
			ToolConfig:  cfg.ToolConfig,
		}, l)
		if err != nil {
			return printableError(err)
		}

		ctx := context.Background()

		handle, err := stack.sessions.Acquire(ctx, stack.hostctx)
		if err != nil {
			return printableError(err)
		}

		value, err := stack.client.Read(ctx, handle.Token, ref)
		if err != nil {
			return printableError(err)
		}

		_, err = fmt.Fprintln(c.App.Writer, value)
		return err
	},
}
