package clicommand

import (
	"context"

	"github.com/urfave/cli"
)

const logoutHelpDescription = `Usage:

    vaultrun logout [options...]

Description:

Sign the cached session out of the secret store and remove the handle from
disk. Safe to run when no session is cached.

Example:

    $ vaultrun logout`

type LogoutConfig struct {
	// Global flags
	Debug       bool   `cli:"debug"`
	NoColor     bool   `cli:"no-color"`
	StoreCLI    string `cli:"store-cli"`
	SessionPath string `cli:"session-path"`
	ToolConfig  string `cli:"tool-config"`
}

var LogoutCommand = cli.Command{
	Name:        "logout",
	Usage:       "Sign out and discard the cached session",
	Description: logoutHelpDescription,
	Flags:       globalFlags(),
	Action: func(c *cli.Context) error {
		cfg, l, err := setupLoggerAndConfig[LogoutConfig](c)
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

		handle, ok, err := stack.store.Get()
		if err != nil {
			return printableError(err)
		}
		if !ok {
			l.Notice("No cached session to sign out")
			return nil
		}

		if err := stack.sessions.Invalidate(context.Background(), handle); err != nil {
			return printableError(err)
		}

		l.Notice("Signed out of the secret store")
		return nil
	},
}
