package clicommand

import (
	"fmt"

	"github.com/urfave/cli"
)

const toolsHelpDescription = `Usage:

    vaultrun tools [options...]

Description:

List the tools vaultrun knows how to wrap, with the injection strategy each
one uses. Profiles from --tool-config are merged over the built-in set.

Example:

    $ vaultrun tools
    aws    export       (2 secrets)
    gh     export       (1 secret)
    git    bridge-file  (1 secret)`

type ToolsConfig struct {
	// Global flags
	Debug       bool   `cli:"debug"`
	NoColor     bool   `cli:"no-color"`
	StoreCLI    string `cli:"store-cli"`
	SessionPath string `cli:"session-path"`
	ToolConfig  string `cli:"tool-config"`
}

var ToolsCommand = cli.Command{
	Name:        "tools",
	Usage:       "List the wrappable tools and their injection strategies",
	Description: toolsHelpDescription,
	Flags:       globalFlags(),
	Action: func(c *cli.Context) error {
		cfg, l, err := setupLoggerAndConfig[ToolsConfig](c)
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

		for _, tool := range stack.registry.Tools() {
			profile, err := stack.registry.Resolve(tool)
			if err != nil {
				return printableError(err)
			}

			noun := "secrets"
			if len(profile.Bindings) == 1 {
				noun = "secret"
			}

			fmt.Fprintf(c.App.Writer, "%-10s %-12s (%d %s)\n",
				profile.Tool, profile.Strategy, len(profile.Bindings), noun)
		}

		return nil
	},
}
