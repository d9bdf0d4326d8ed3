package clicommand

import (
	"context"
	"os"

	"github.com/urfave/cli"
	"github.com/vaultrun/vaultrun/internal/supervisor"
	"github.com/vaultrun/vaultrun/process"
)

const runHelpDescription = `Usage:

    vaultrun run <tool> [arguments...]

Description:

Run a wrapped tool with its credentials injected for exactly this one
invocation. The tool's arguments are passed through untouched, its standard
streams are inherited, and its exit code becomes vaultrun's exit code.

Secrets are fetched from the configured secret store and handed to the tool
either as environment variables or through a short-lived helper file,
depending on the tool's profile. Everything created for the invocation is
removed before vaultrun exits, whether the tool succeeds, fails or is
interrupted.

On an interactive host a cached session is reused when the store still
accepts it; otherwise you are prompted to sign in. On CI hosts the service
credential must be present in ` + "`VAULTRUN_SERVICE_TOKEN`" + ` and no
prompting or caching happens.

Example:

    $ vaultrun run git push origin main
    $ vaultrun run gh pr list
    $ vaultrun run aws s3 ls`

var SignalFlag = cli.StringFlag{
	Name:   "signal",
	Value:  "SIGTERM",
	Usage:  "The signal sent to the wrapped tool when the invocation is cancelled",
	EnvVar: "VAULTRUN_SIGNAL",
}

type RunConfig struct {
	Command []string `cli:"arg:*" label:"tool and arguments"`
	Signal  string   `cli:"signal"`

	// Global flags
	Debug       bool   `cli:"debug"`
	NoColor     bool   `cli:"no-color"`
	StoreCLI    string `cli:"store-cli"`
	SessionPath string `cli:"session-path"`
	ToolConfig  string `cli:"tool-config"`
}

var RunCommand = cli.Command{
	Name:        "run",
	Usage:       "Run a tool with secrets injected for one invocation",
	Description: runHelpDescription,
	Flags:       append([]cli.Flag{SignalFlag}, globalFlags()...),
	Action: func(c *cli.Context) error {
		cfg, l, err := setupLoggerAndConfig[RunConfig](c)
		if err != nil {
			return printableError(err)
		}

		if len(cfg.Command) == 0 {
			return cli.NewExitError("missing tool to run. See: `vaultrun run --help`", 1)
		}

		interruptSignal, err := process.ParseSignal(cfg.Signal)
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

		exitCode, err := supervisor.Run(context.Background(), supervisor.Config{
			Tool:     cfg.Command[0],
			Args:     cfg.Command[1:],
			Registry: stack.registry,
			Sessions: stack.sessions,
			Client:   stack.client,
			Environ:  stack.environ,
			Logger:   l,

			// The wrapped tool owns the terminal; prompts from it (git
			// askpass, MFA) must reach the real stdin.
			Stdin:  os.Stdin,
			Stdout: os.Stdout,
			Stderr: os.Stderr,

			InterruptSignal: interruptSignal,
		})
		if err != nil {
			return printableError(err)
		}

		if exitCode != 0 {
			return cli.NewExitError("", exitCode)
		}

		return nil
	},
}
