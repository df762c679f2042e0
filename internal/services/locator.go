package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotdl/internal/models"
	"golang.org/x/time/rate"
)

// Locator maps a [models.Track] to a media URL with a primary query and one fallback query.
type Locator struct {
	searcher Searcher
	limiter  *rate.Limiter
	logger   *log.Logger
}

// NewLocator creates a Locator over searcher, allowing at most perSecond searches per second.
//
// A non-positive perSecond disables rate limiting.
func NewLocator(searcher Searcher, perSecond float64, logger *log.Logger) *Locator {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Locator{searcher: searcher, limiter: rate.NewLimiter(limit, 1), logger: logger}
}

// PrimaryQuery is the descriptive query tried first.
func PrimaryQuery(t models.Track) string {
	q := fmt.Sprintf("Song: %s, Artist: %s", t.Title, t.PrimaryArtist())
	if t.SourceURL != "" {
		q += ", " + t.SourceURL
	}
	return q
}

// SecondaryQuery is the shorter query tried when the primary finds nothing.
func SecondaryQuery(t models.Track) string {
	return fmt.Sprintf("%s: %s", t.Title, t.PrimaryArtist())
}

// Search runs a single rate-limited search. An empty URL means no result.
func (l *Locator) Search(ctx context.Context, query string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return l.searcher.Search(ctx, query)
}

// Locate resolves a track to a media URL.
//
// override, when non-empty, replaces the primary query. The secondary query is tried only when the primary
// produced nothing. A miss on both returns media with an empty URL and a nil error; the error is non-nil
// only when both searches failed outright.
func (l *Locator) Locate(ctx context.Context, track models.Track, override string) (models.ResolvedMedia, error) {
	media := models.ResolvedMedia{Track: track}

	primary := override
	if primary == "" {
		primary = PrimaryQuery(track)
	}

	url, primaryErr := l.Search(ctx, primary)
	if primaryErr == nil && url != "" {
		media.URL = url
		return media, nil
	}
	if primaryErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return media, ctxErr
		}
		l.logger.Warn("primary search failed", "query", primary, "error", primaryErr)
	}

	secondary := SecondaryQuery(track)
	url, secondaryErr := l.Search(ctx, secondary)
	if secondaryErr == nil && url != "" {
		l.logger.Debug("resolved with fallback query", "query", secondary)
		media.URL = url
		return media, nil
	}
	if secondaryErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return media, ctxErr
		}
		l.logger.Warn("fallback search failed", "query", secondary, "error", secondaryErr)
	}

	if primaryErr != nil && secondaryErr != nil {
		return media, errors.Join(primaryErr, secondaryErr)
	}
	return media, nil
}
