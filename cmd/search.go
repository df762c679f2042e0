package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/spotdl/internal/models"
	"github.com/desertthunder/spotdl/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search prints the video URL for a raw query, or for a track given with --title.
//
// With --title the query argument, when present, replaces the "<title> <artist>" query.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	title := strings.TrimSpace(cmd.String("title"))
	if query == "" && title == "" {
		return fmt.Errorf("%w: a query or --title is required", shared.ErrMissingArgument)
	}

	locator, err := r.search(ctx)
	if err != nil {
		return err
	}

	var videoURL string
	if title != "" {
		track := models.Track{Title: title, SourceURL: cmd.String("url")}
		if artist := strings.TrimSpace(cmd.String("artist")); artist != "" {
			track.Artists = []string{artist}
		}
		var media models.ResolvedMedia
		media, err = locator.Locate(ctx, track, query)
		videoURL = media.URL
	} else {
		videoURL, err = locator.Search(ctx, query)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if videoURL == "" {
		return fmt.Errorf("%w: no video found", shared.ErrTrackNotFound)
	}

	r.logger.Debug("search resolved", "query", query, "title", title, "url", videoURL)
	if cmd.Bool("json") {
		return r.writeJSON(map[string]string{"videoUrl": videoURL}, true)
	}
	return r.writePlain("%s\n", videoURL)
}
