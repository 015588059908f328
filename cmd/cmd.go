// submodule cmd contains command definitions
package main

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tri/internal/formatter"
	"github.com/desertthunder/tri/internal/shared"
	"github.com/urfave/cli/v3"
)

// newApp builds the root command. --debug lowers the runner's log level before any subcommand runs.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tri",
		Usage:   "Save Spotify tracks in three quality tiers",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Log at debug level",
				Sources: cli.EnvVars("TRI_DEBUG"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				shared.SetLogLevel(r.logger, log.DebugLevel)
			}
			return ctx, nil
		},
		Commands: r.register(),
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: table, csv or json",
		Value:   formatter.FormatTable,
	}
}

// serveCommand runs the HTTP ingress
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Accept download requests over HTTP (POST /dl)",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides server.port)",
			},
		},
		Action: r.Serve,
	}
}

// downloadCommand runs a single download in-process
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "download",
		Aliases: []string{"dl"},
		Usage:   "Resolve a track and save its best, medium and low tiers",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "url",
				Aliases: []string{"u"},
				Usage:   "spotify:track: URI or open.spotify.com track link",
			},
			&cli.StringFlag{
				Name:    "title",
				Aliases: []string{"t"},
				Usage:   "Search query used when --url is empty",
			},
			&cli.StringFlag{
				Name:     "hash",
				Usage:    "Content hash naming the cache directory",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Access token for search and the streaming backend",
				Sources: cli.EnvVars("TRI_TOKEN"),
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Request deadline (overrides server.request_timeout)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the outcome as JSON",
			},
		},
		Action: r.Download,
	}
}

// cacheCommand inspects persisted artifacts
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the artifact cache",
		Commands: []*cli.Command{
			{
				Name:    "ls",
				Aliases: []string{"list"},
				Usage:   "List persisted tiers",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "hash",
						Usage: "Only list artifacts under this content hash",
					},
					formatFlag(),
				},
				Action: r.CacheList,
			},
		},
	}
}

// jobsCommand reads the request ledger
func jobsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "jobs",
		Usage: "Inspect the request ledger",
		Commands: []*cli.Command{
			{
				Name:    "ls",
				Aliases: []string{"list"},
				Usage:   "List recorded download requests, newest first",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "state",
						Usage: "Filter by state: running, succeeded, failed or timed_out",
					},
					&cli.StringFlag{
						Name:  "hash",
						Usage: "Filter by content hash",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of jobs to return",
						Value: 50,
					},
					formatFlag(),
				},
				Action: r.JobsList,
			},
		},
	}
}

// setupCommand handles setup operations for the config file and the ledger.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config file from the built-in template",
				Flags: []cli.Flag{
					configFlag(),
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the request ledger and run migrations",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "path",
						Usage: "Ledger path (overrides database.path)",
					},
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Undo the most recent migration instead of migrating up",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}
