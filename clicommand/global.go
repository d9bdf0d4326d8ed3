package clicommand

import (
	"os"

	"github.com/oleiade/reflections"
	"github.com/urfave/cli"
	"github.com/vaultrun/vaultrun/env"
	"github.com/vaultrun/vaultrun/internal/hostenv"
	"github.com/vaultrun/vaultrun/internal/registry"
	"github.com/vaultrun/vaultrun/internal/secretstore"
	"github.com/vaultrun/vaultrun/internal/session"
	"github.com/vaultrun/vaultrun/logger"
)

var DebugFlag = cli.BoolFlag{
	Name:   "debug",
	Usage:  "Enable debug mode",
	EnvVar: "VAULTRUN_DEBUG",
}

var NoColorFlag = cli.BoolFlag{
	Name:   "no-color",
	Usage:  "Don't show colors in logging",
	EnvVar: "VAULTRUN_NO_COLOR",
}

var StoreCLIFlag = cli.StringFlag{
	Name:   "store-cli",
	Value:  secretstore.DefaultCLI,
	Usage:  "The secret store CLI program that sign-in, reads and exports are delegated to",
	EnvVar: "VAULTRUN_STORE_CLI",
}

var SessionPathFlag = cli.StringFlag{
	Name:   "session-path",
	Value:  "",
	Usage:  "Override the location of the cached session handle",
	EnvVar: "VAULTRUN_SESSION_PATH",
}

var ToolConfigFlag = cli.StringFlag{
	Name:   "tool-config",
	Value:  "",
	Usage:  "A JSON file of additional tool profiles, merged over the built-in ones",
	EnvVar: "VAULTRUN_TOOL_CONFIG",
}

// GlobalConfig holds the flags shared by every command. Command configs embed
// it so a single cliconfig load fills both.
type GlobalConfig struct {
	Debug       bool   `cli:"debug"`
	NoColor     bool   `cli:"no-color"`
	StoreCLI    string `cli:"store-cli"`
	SessionPath string `cli:"session-path"`
	ToolConfig  string `cli:"tool-config"`
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		StoreCLIFlag,
		SessionPathFlag,
		ToolConfigFlag,

		DebugFlag,
		NoColorFlag,
	}
}

// CreateLogger builds a logger honouring the Debug and NoColor fields of any
// command config.
func CreateLogger(cfg any) logger.Logger {
	l := logger.NewTextLogger()

	if debug, err := reflections.GetField(cfg, "Debug"); debug == true && err == nil {
		l.SetLevel(logger.DEBUG)
	}

	if noColor, err := reflections.GetField(cfg, "NoColor"); noColor == true && err == nil {
		if tl, ok := l.(*logger.TextLogger); ok {
			tl.Colors = false
		}
	}

	return l
}

// stack bundles the collaborators that most commands need: the store client,
// the session manager (with its backing store), the tool registry, and a
// snapshot of the host environment.
type stack struct {
	client   *secretstore.ExecClient
	sessions *session.Manager
	store    session.Store
	registry *registry.Registry
	environ  *env.Environment
	hostctx  hostenv.Context
}

func buildStack(cfg GlobalConfig, l logger.Logger) (*stack, error) {
	environ := env.FromSlice(os.Environ())
	hctx := hostenv.Classify(environ)

	client := secretstore.NewExecClient(l, cfg.StoreCLI)

	// Session handles never touch disk on CI hosts.
	var store session.Store
	if hctx.IsCI() {
		store = &session.MemoryStore{}
	} else {
		path := cfg.SessionPath
		if path == "" {
			var err error
			path, err = session.DefaultStorePath()
			if err != nil {
				return nil, err
			}
		}
		store = &session.FileStore{Path: path}
	}

	reg := registry.New()
	if cfg.ToolConfig != "" {
		if err := reg.LoadFile(cfg.ToolConfig); err != nil {
			return nil, err
		}
	}

	sessions := session.NewManager(session.ManagerConfig{
		Client:  client,
		Store:   store,
		Environ: environ,
		Logger:  l,
	})

	return &stack{
		client:   client,
		sessions: sessions,
		store:    store,
		registry: reg,
		environ:  environ,
		hostctx:  hctx,
	}, nil
}
