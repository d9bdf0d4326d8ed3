package clicommand

import (
	"github.com/urfave/cli"
	"github.com/vaultrun/vaultrun/cliconfig"
	"github.com/vaultrun/vaultrun/logger"
)

// setupLoggerAndConfig loads the command's config struct from flags,
// arguments and environment variables, then builds a logger from it.
func setupLoggerAndConfig[T any](c *cli.Context) (cfg T, l logger.Logger, err error) {
	loader := cliconfig.Loader{CLI: c, Config: &cfg}
	if err := loader.Load(); err != nil {
		return cfg, nil, err
	}

	return cfg, CreateLogger(&cfg), nil
}

// printableError wraps an error for urfave/cli so the message is printed
// once and the process exits non-zero.
func printableError(err error) error {
	return cli.NewExitError(err.Error(), 1)
}
