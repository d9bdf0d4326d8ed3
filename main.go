package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
	"github.com/vaultrun/vaultrun/clicommand"
	"github.com/vaultrun/vaultrun/version"
)

var AppHelpTemplate = `vaultrun wraps command-line tools so their credentials come from your
secret store for exactly one invocation, and are torn down afterwards.

Usage:

  {{.Name}} <command> [arguments...]

Available commands are:

  {{range .Commands}}{{.Name}}{{with .ShortName}}, {{.}}{{end}}{{ "\t" }}{{.Usage}}
  {{end}}
Use "vaultrun <command> --help" for more information about a command.

`

var CommandHelpTemplate = `{{.Description}}

Options:

   {{range .Flags}}{{.}}
   {{end}}
`

func main() {
	cli.AppHelpTemplate = AppHelpTemplate
	cli.CommandHelpTemplate = CommandHelpTemplate
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintf(c.App.Writer, "%s version %s, build %s\n",
			c.App.Name, version.Version(), version.BuildVersion())
	}

	app := cli.NewApp()
	app.Name = "vaultrun"
	app.Version = version.Version()
	app.Usage = "Run tools with secrets injected from your secret store"
	app.Commands = []cli.Command{
		clicommand.RunCommand,
		clicommand.LoginCommand,
		clicommand.LogoutCommand,
		clicommand.ReadCommand,
		clicommand.ContextCommand,
		clicommand.ToolsCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
