package main

import (
	"context"

	"github.com/desertthunder/spotdl/internal/server"
	"github.com/desertthunder/spotdl/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	pipeline, err := r.pipeline(ctx, cmd.String("output"))
	if err != nil {
		return err
	}
	// pipeline built both of these already
	provider, err := r.catalog()
	if err != nil {
		return err
	}
	locator, err := r.search(ctx)
	if err != nil {
		return err
	}

	logger := shared.WithLogger(r.logger, "component", "http")
	router := server.NewRouter(server.Deps{
		Pipeline: pipeline,
		Locator:  locator,
		Auth:     provider,
		Metrics:  r.metrics,
		Logger:   logger,
	})

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Addr()
	}
	r.writePlain("Listening on http://%s (downloads: %s)\n", addr, pipeline.DownloadsDir())
	return server.NewServer(addr, router, logger).Start(ctx)
}
