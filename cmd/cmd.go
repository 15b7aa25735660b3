// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
		Sources: cli.EnvVars("LISTENLOG_CONFIG"),
	}
}

// serveCommand starts the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the listenlog API server",
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
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the sign-in page in a browser once the server starts",
			},
			&cli.DurationFlag{
				Name:  "grace",
				Usage: "How long to wait for in-flight requests on shutdown",
				Value: 5 * time.Second,
			},
		},
		Action: r.Serve,
	}
}

// setupCommand writes a starter config file
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create a config file from the built-in template",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// secretCommand prints a fresh session secret
func secretCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "secret",
		Usage: "Generate a random session secret",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "bytes",
				Usage: "Number of random bytes",
				Value: 32,
			},
		},
		Action: r.Secret,
	}
}

// sessionCommand handles session cookie operations
func sessionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Session cookie utilities",
		Commands: []*cli.Command{
			{
				Name:  "inspect",
				Usage: "Verify a session cookie value and print what it carries, without the tokens",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output JSON",
					},
				},
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "value"},
				},
				Action: r.SessionInspect,
			},
		},
	}
}

// historyCommand prints recent listening history
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Print your recently played tracks",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Spotify access token",
				Sources: cli.EnvVars("SPOTIFY_ACCESS_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "session",
				Usage:   "Session cookie value to take the access token from",
				Sources: cli.EnvVars("LISTENLOG_SESSION_COOKIE"),
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, csv or markdown",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to this file instead of stdout",
			},
		},
		Action: r.History,
	}
}
