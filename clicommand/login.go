package clicommand

import (
	"context"

	"github.com/urfave/cli"
)

const loginHelpDescription = `Usage:

    vaultrun login [options...]

Description:

Establish a secret store session ahead of time so later invocations don't
prompt. On an interactive host the session handle is cached on disk with
owner-only permissions and reused until the store rejects it. On CI hosts
the service credential in ` + "`VAULTRUN_SERVICE_TOKEN`" + ` is exchanged for a
session that lives only for this process.

Example:

    $ vaultrun login`

type LoginConfig struct {
	// Global flags
	Debug       bool   `cli:"debug"`
	NoColor     bool   `cli:"no-color"`
	StoreCLI    string `cli:"store-cli"`
	SessionPath string `cli:"session-path"`
	ToolConfig  string `cli:"tool-config"`
}

var LoginCommand = cli.Command{
	Name:        "login",
	Usage:       "Establish and cache a secret store session",
	Description: loginHelpDescription,
	Flags:       globalFlags(),
	Action: func(c *cli.Context) error {
		cfg, l, err := setupLoggerAndConfig[LoginConfig](c)
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

		handle, err := stack.sessions.Acquire(context.Background(), stack.hostctx)
		if err != nil {
			return printableError(err)
		}

		if handle.Cached {
			l.Notice("Already signed in, cached session is still valid")
		} else {
			l.Notice("Signed in to the secret store")
		}

		return nil
	},
}
