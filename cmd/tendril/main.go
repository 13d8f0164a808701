// Package main is the entry point for the tendril plugin host.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/tendril-dev/tendril/internal/config"
	"github.com/tendril-dev/tendril/internal/notify"
	"github.com/tendril-dev/tendril/internal/resolver/luares"
	"github.com/tendril-dev/tendril/internal/setup"
)

// Build information. Populated at build-time via -ldflags.
var (
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// Installed via `go install module@version` ldflags aren't set, so
	// fall back to the module metadata Go records automatically.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}
	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

type flags struct {
	ConfigPath string
	LogLevel   string
	Roots      []string
	PackRoot   string
	Watch      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	f := &flags{}

	app := &cli.Command{
		Name:      "tendril",
		Usage:     "Lazy plugin host",
		UsageText: "tendril [global options] command [command options]",
		Description: `Tendril registers plugins from a declarative configuration, activates the
eager set at startup, and defers the rest behind the commands, events,
filetypes, and keys they declare.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("TENDRIL_CONFIG"),
				Value:       "tendril.yaml",
				Destination: &f.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Sources:     cli.EnvVars("TENDRIL_LOG_LEVEL"),
				Value:       "info",
				Destination: &f.LogLevel,
			},
			&cli.StringSliceFlag{
				Name:        "root",
				Usage:       "plugin search root (repeatable)",
				Sources:     cli.EnvVars("TENDRIL_ROOT"),
				Destination: &f.Roots,
			},
			&cli.StringFlag{
				Name:        "pack-root",
				Usage:       "directory for packaged plugin installs",
				Sources:     cli.EnvVars("TENDRIL_PACK_ROOT"),
				Destination: &f.PackRoot,
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Run setup from the configuration file",
				UsageText: "tendril run [--watch]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "watch",
						Usage:       "keep running and re-run setup when the config changes",
						Destination: &f.Watch,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return runCmd(ctx, f)
				},
			},
			{
				Name:      "status",
				Usage:     "Show the plugins the configuration declares",
				UsageText: "tendril status",
				Action: func(ctx context.Context, c *cli.Command) error {
					return statusCmd(f)
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newNotifier(level string) (notify.Notifier, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
	return notify.NewLoggerWith(log), nil
}

func runCmd(ctx context.Context, f *flags) error {
	n, err := newNotifier(f.LogLevel)
	if err != nil {
		return err
	}

	resOpts := []luares.Option{luares.WithRoots(f.Roots...)}
	if f.PackRoot != "" {
		resOpts = append(resOpts, luares.WithPackRoot(f.PackRoot))
	}
	res, err := luares.New(resOpts...)
	if err != nil {
		return fmt.Errorf("create resolver: %w", err)
	}
	defer res.Close()

	engine := setup.New(setup.WithResolver(res), setup.WithNotifier(n))

	file, err := config.Load(f.ConfigPath)
	if err != nil {
		return err
	}
	if err := engine.Setup(ctx, file.EngineConfig()); err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	n.Infof("setup complete: %d plugins registered", engine.Registry().Len())

	if !f.Watch {
		return nil
	}

	watcher, err := config.NewWatcher(f.ConfigPath, func(changed *config.File) {
		if err := engine.Setup(ctx, changed.EngineConfig()); err != nil {
			n.Errorf("setup after reload: %v", err)
		}
	}, n)
	if err != nil {
		return err
	}
	return watcher.Start(ctx)
}

func statusCmd(f *flags) error {
	file, err := config.Load(f.ConfigPath)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REPO\tMODE\tTRIGGERS")
	printPlugins(w, file.Eager, "eager")
	printPlugins(w, file.Deferred, "deferred")
	return w.Flush()
}

func printPlugins(w *tabwriter.Writer, plugins []config.Plugin, mode string) {
	for _, p := range plugins {
		var triggers []string
		if len(p.Commands) > 0 {
			triggers = append(triggers, fmt.Sprintf("%d commands", len(p.Commands)))
		}
		if len(p.Events) > 0 {
			triggers = append(triggers, fmt.Sprintf("%d events", len(p.Events)))
		}
		if len(p.Filetypes) > 0 {
			triggers = append(triggers, fmt.Sprintf("%d filetypes", len(p.Filetypes)))
		}
		if len(p.Keys) > 0 {
			triggers = append(triggers, fmt.Sprintf("%d keys", len(p.Keys)))
		}
		if len(p.After) > 0 {
			triggers = append(triggers, fmt.Sprintf("after %d", len(p.After)))
		}
		sort.Strings(triggers)

		desc := "-"
		if len(triggers) > 0 {
			desc = strings.Join(triggers, ", ")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Repo, mode, desc)
	}
}
