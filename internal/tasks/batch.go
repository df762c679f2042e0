package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotdl/internal/shared"
)

// BatchResult contains the runs of a multi-collection download.
type BatchResult struct {
	Runs      []*RunResult
	Succeeded int              // Runs that finished without error
	Failed    int              // Runs that stopped early
	Errors    map[string]error // Keyed by collection URL
}

// RunBatch runs each collection in turn, each as its own top-level [PlaylistPipeline.Run] with its own flush.
//
// A failed collection does not stop the batch; cancellation does. The query override applies to the first
// collection only.
func (p *PlaylistPipeline) RunBatch(ctx context.Context, urls []string, opts RunOptions, progress chan<- ProgressUpdate) (*BatchResult, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: at least one collection URL is required", shared.ErrMissingArgument)
	}

	batch := &BatchResult{Errors: make(map[string]error)}
	for i, url := range urls {
		if err := ctx.Err(); err != nil {
			return batch, err
		}

		runOpts := opts
		if i > 0 {
			runOpts.QueryOverride = ""
		}

		result, err := p.Run(ctx, url, runOpts, progress)
		batch.Runs = append(batch.Runs, result)
		if err != nil {
			batch.Failed++
			batch.Errors[url] = err
			p.logger.Warn("collection failed", "url", url, "error", err)
			continue
		}
		batch.Succeeded++
	}
	return batch, ctx.Err()
}
