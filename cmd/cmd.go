// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func verboseFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Enable debug logging",
	}
}

// runCommand fetches, rewrites and writes the playlist once
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Fetch the source playlist, apply rules and write the output",
		Flags: []cli.Flag{
			configFlag(),
			verboseFlag(),
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "Source URL or file, overrides source.url",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path, overrides output.path",
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Process even when the source is unchanged",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Report what would be written without writing or storing the digest",
			},
		},
		Action: r.Run,
	}
}

// inspectCommand prints the parsed channel list without side effects
func inspectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Parse the source playlist and print its channels",
		Flags: []cli.Flag{
			configFlag(),
			verboseFlag(),
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "Source URL or file, overrides source.url",
			},
			&cli.BoolFlag{
				Name:    "apply",
				Aliases: []string{"a"},
				Usage:   "Apply the configured rules before printing",
			},
			&cli.StringSliceFlag{
				Name:    "group",
				Aliases: []string{"g"},
				Usage:   "Only show channels in these groups",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: table, csv, json, markdown or text",
				Value: "table",
			},
		},
		Action: r.Inspect,
	}
}

// rulesCommand lists and validates the configured rules
func rulesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "rules",
		Usage:  "List the configured rules in application order",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Rules,
	}
}

// digestCommand manages the stored source digest
func digestCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "digest",
		Usage: "Inspect or clear the stored source digest",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the stored digest",
				Flags:  []cli.Flag{configFlag()},
				Action: r.DigestShow,
			},
			{
				Name:   "reset",
				Usage:  "Clear the stored digest so the next run always processes",
				Flags:  []cli.Flag{configFlag()},
				Action: r.DigestReset,
			},
		},
	}
}

// historyCommand lists recorded runs
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded pipeline runs, newest first",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of runs to show",
				Value:   20,
			},
			&cli.StringFlag{
				Name:  "outcome",
				Usage: "Only show runs with this outcome (skipped, processed, dry_run)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show one recorded run",
				ArgsUsage: "<run-id>",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryShow,
			},
			{
				Name:      "delete",
				Usage:     "Remove a run from the history",
				ArgsUsage: "<run-id>",
				Flags:     []cli.Flag{configFlag()},
				Action:    r.HistoryDelete,
			},
		},
	}
}

// serveCommand refreshes the playlist on a timer and serves it over HTTP
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the rewritten playlist, run history and metrics, refreshing on an interval",
		Flags: []cli.Flag{
			configFlag(),
			verboseFlag(),
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, overrides server.addr",
			},
			&cli.StringFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Refresh interval such as 30m, overrides server.refresh_interval; 0 runs once at startup",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config file from the built-in template",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}
