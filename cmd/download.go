package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/desertthunder/spotdl/internal/formatter"
	"github.com/desertthunder/spotdl/internal/shared"
	"github.com/desertthunder/spotdl/internal/tasks"
	"github.com/desertthunder/spotdl/internal/ui"
	"github.com/urfave/cli/v3"
)

// Download runs the pipeline for every URL argument.
//
// Progress is printed while the run is going, followed by a summary per collection (or one JSON document
// with --json). A collection that fails does not stop the others; the command still returns an error.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	urls := cmd.Args().Slice()
	if len(urls) == 0 {
		return fmt.Errorf("%w: at least one playlist or track url is required", shared.ErrMissingArgument)
	}

	pipeline, err := r.pipeline(ctx, cmd.String("output"))
	if err != nil {
		return err
	}

	opts := tasks.RunOptions{
		QueryOverride: cmd.String("override"),
		Concurrency:   cmd.Int("concurrency"),
	}
	useJSON := cmd.Bool("json")

	r.logger.Info("starting download", "collections", len(urls), "dir", pipeline.DownloadsDir())

	progressCh := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if useJSON {
			for range progressCh {
			}
			return
		}
		ui.Watch(r.output, progressCh, r.palette, cmd.Bool("verbose"))
	}()

	batch, runErr := pipeline.RunBatch(ctx, urls, opts, progressCh)
	close(progressCh)
	<-done

	if report := cmd.String("report"); report != "" {
		for i, run := range batch.Runs {
			path, err := formatter.WriteRunReport(run, reportPath(report, i, len(batch.Runs)))
			if err != nil {
				return err
			}
			r.logger.Info("report written", "path", path)
		}
	}

	if useJSON {
		summaries := make([]formatter.RunSummary, len(batch.Runs))
		for i, run := range batch.Runs {
			summaries[i] = formatter.Summarize(run)
		}
		var data any = summaries
		if len(summaries) == 1 {
			data = summaries[0]
		}
		if err := r.writeJSON(data, cmd.Bool("pretty")); err != nil {
			return err
		}
	} else {
		for _, run := range batch.Runs {
			r.writePlainln("%s", formatter.RenderSummary(run, r.palette))
			if run.Flushed > 0 {
				r.writePlain("%s\n", r.palette.Help("Failures logged to "+pipeline.LogPath()))
			}
		}
	}

	if runErr != nil {
		return runErr
	}
	if batch.Failed > 0 {
		errs := make([]error, 0, batch.Failed)
		for _, url := range urls {
			if err, ok := batch.Errors[url]; ok {
				errs = append(errs, fmt.Errorf("%s: %w", url, err))
			}
		}
		return fmt.Errorf("%d of %d collections failed: %w", batch.Failed, len(urls), errors.Join(errs...))
	}
	return nil
}

// reportPath numbers the report file per collection when a batch has more than one.
func reportPath(path string, i, n int) string {
	if n <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), i+1, ext)
}
