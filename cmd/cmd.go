// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP download API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.host:server.port)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Downloads directory (defaults to the configured folder)",
			},
		},
		Action: r.Serve,
	}
}

// downloadCommand runs the playlist pipeline
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "download",
		Aliases:   []string{"dl"},
		Usage:     "Download every track of one or more playlists or tracks",
		ArgsUsage: "<url> [url...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "override",
				Usage: "Search query used for the first track instead of \"<title> <artist>\"",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Tracks processed at once (defaults to downloads.concurrency)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Downloads directory (defaults to the configured folder)",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write a run report to `FILE` (.csv, .json or text)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the run summary as JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Show every pipeline step",
			},
		},
		Action: r.Download,
	}
}

// searchCommand resolves a query or track to a video URL
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Find the YouTube video for a query or a track",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "title",
				Usage: "Track title; uses the \"<title> <artist>\" then \"<title> <url>\" queries",
			},
			&cli.StringFlag{
				Name:  "artist",
				Usage: "Track artist",
			},
			&cli.StringFlag{
				Name:  "url",
				Usage: "Track catalog URL for the fallback query",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Search,
	}
}

// tokenCommand prints a catalog access token
func tokenCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Print a fresh Spotify access token",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Token,
	}
}

// setupCommand writes the config file and downloads directory
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and the downloads directory",
		Action: r.Setup,
	}
}
