package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotdl/internal/ledger"
	"github.com/desertthunder/spotdl/internal/metrics"
	"github.com/desertthunder/spotdl/internal/models"
	"github.com/desertthunder/spotdl/internal/services"
	"github.com/desertthunder/spotdl/internal/shared"
	"golang.org/x/sync/errgroup"
)

// DefaultLogName is the failure log written inside the downloads directory.
const DefaultLogName = "failed_downloads.txt"

// Resolver maps a track to a media URL. Implemented by [services.Locator].
type Resolver interface {
	Locate(ctx context.Context, track models.Track, override string) (models.ResolvedMedia, error)
}

// Downloader writes the audio behind a media URL into destDir. Implemented by media.Downloader.
type Downloader interface {
	Download(ctx context.Context, mediaURL, destDir, desiredTitle string) (*models.DownloadResult, error)
}

// Tagger writes tag metadata into a downloaded file. Implemented by media.TagWriter.
type Tagger interface {
	WriteTags(path string, tags models.Tags) error
}

// Outcome is the terminal state of one track.
type Outcome int

const (
	Downloaded Outcome = iota
	NotFound
	DownloadFailed
)

func (o Outcome) String() string {
	switch o {
	case Downloaded:
		return metrics.OutcomeDownloaded
	case NotFound:
		return metrics.OutcomeNotFound
	case DownloadFailed:
		return metrics.OutcomeDownloadFailed
	default:
		return ""
	}
}

// TrackResult is what happened to one track.
//
// Outcome is [Downloaded] exactly when FilePath names a file on disk; every other outcome has a ledger record.
type TrackResult struct {
	Track    models.Track
	Outcome  Outcome
	MediaURL string
	FilePath string
	Tagged   bool
	TagErr   error // non-fatal, file kept
	CoverErr error // non-fatal, tagged without art
	Err      error // why the track failed
}

// RunResult contains all data from one pipeline run.
type RunResult struct {
	RunID       string
	Collection  models.Collection
	Tracks      []TrackResult // In collection order
	Downloaded  int
	Failed      int
	TagFailures int
	Pages       int
	Flushed     int // Ledger records written to the failure log at the end of the run
	Duration    time.Duration
}

// Failures returns the results that ended without a file.
func (r *RunResult) Failures() []TrackResult {
	var out []TrackResult
	for _, t := range r.Tracks {
		if t.Outcome != Downloaded {
			out = append(out, t)
		}
	}
	return out
}

func (r *RunResult) add(results []TrackResult) {
	for _, t := range results {
		if t.Outcome == Downloaded {
			r.Downloaded++
		} else {
			r.Failed++
		}
		if t.TagErr != nil {
			r.TagFailures++
		}
	}
	r.Tracks = append(r.Tracks, results...)
}

// RunOptions are per-run settings.
type RunOptions struct {
	QueryOverride string // Replaces the primary search query of the first track only
	Concurrency   int    // Tracks processed at once within a page; <= 0 uses the pipeline default
}

// PipelineOpts configures a [PlaylistPipeline].
type PipelineOpts struct {
	Provider     services.MetadataProvider
	Locator      Resolver
	Downloader   Downloader
	Tagger       Tagger
	Covers       services.Fetcher // Optional; without it files are tagged without art
	Ledger       *ledger.Ledger
	DownloadsDir string
	LogPath      string // Defaults to DownloadsDir/failed_downloads.txt
	Concurrency  int
	Metrics      *metrics.Metrics
	Logger       *log.Logger
}

// PlaylistPipeline drives a collection from catalog metadata to tagged files on disk.
//
// Every track that enters a run ends with exactly one outcome: a file, or one ledger record.
type PlaylistPipeline struct {
	provider    services.MetadataProvider
	locator     Resolver
	downloader  Downloader
	tagger      Tagger
	covers      services.Fetcher
	ledger      *ledger.Ledger
	dir         string
	logPath     string
	concurrency int
	metrics     *metrics.Metrics
	logger      *log.Logger
}

// NewPlaylistPipeline validates opts and creates a pipeline.
func NewPlaylistPipeline(opts PipelineOpts) (*PlaylistPipeline, error) {
	switch {
	case opts.Provider == nil:
		return nil, fmt.Errorf("%w: metadata provider not initialized", shared.ErrServiceUnavailable)
	case opts.Locator == nil:
		return nil, fmt.Errorf("%w: media locator not initialized", shared.ErrServiceUnavailable)
	case opts.Downloader == nil:
		return nil, fmt.Errorf("%w: downloader not initialized", shared.ErrServiceUnavailable)
	case opts.Tagger == nil:
		return nil, fmt.Errorf("%w: tag writer not initialized", shared.ErrServiceUnavailable)
	case opts.Ledger == nil:
		return nil, fmt.Errorf("%w: failure ledger not initialized", shared.ErrServiceUnavailable)
	case opts.DownloadsDir == "":
		return nil, fmt.Errorf("%w: downloads directory", shared.ErrMissingConfig)
	}

	logPath := opts.LogPath
	if logPath == "" {
		logPath = filepath.Join(opts.DownloadsDir, DefaultLogName)
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &PlaylistPipeline{
		provider:    opts.Provider,
		locator:     opts.Locator,
		downloader:  opts.Downloader,
		tagger:      opts.Tagger,
		covers:      opts.Covers,
		ledger:      opts.Ledger,
		dir:         opts.DownloadsDir,
		logPath:     logPath,
		concurrency: concurrency,
		metrics:     opts.Metrics,
		logger:      shared.WithLogger(logger, "component", "pipeline"),
	}, nil
}

// DownloadsDir returns the directory files are written to.
func (p *PlaylistPipeline) DownloadsDir() string { return p.dir }

// LogPath returns the failure log path.
func (p *PlaylistPipeline) LogPath() string { return p.logPath }

// Ledger returns the pipeline's failure ledger.
func (p *PlaylistPipeline) Ledger() *ledger.Ledger { return p.ledger }

// FlushLedger appends pending failures to the failure log.
func (p *PlaylistPipeline) FlushLedger() (int, error) {
	n, err := p.ledger.Flush(p.logPath)
	if n > 0 || err != nil {
		p.metrics.LedgerFlush(err)
	}
	if err != nil {
		p.logger.Error("failed to flush failure ledger", "path", p.logPath, "error", err)
	} else if n > 0 {
		p.logger.Info("flushed failure ledger", "path", p.logPath, "records", n)
	}
	return n, err
}

// Run downloads every track of the collection named by collectionURL.
//
// Pages are followed until the provider reports no next page. Per-track failures are recorded in the ledger and
// never stop the run; authentication, page fetch and cancellation errors do. The ledger is flushed exactly once
// when Run returns, whatever the outcome, and a flush error is joined into the returned error. The returned
// result is never nil and holds every track processed before a failure.
func (p *PlaylistPipeline) Run(ctx context.Context, collectionURL string, opts RunOptions, progress chan<- ProgressUpdate) (result *RunResult, err error) {
	start := time.Now()
	result = &RunResult{RunID: shared.GenerateID()}
	logger := shared.WithLogger(p.logger, "run_id", result.RunID)

	p.metrics.RunStarted()
	defer func() {
		flushed, flushErr := p.FlushLedger()
		result.Flushed = flushed
		if flushErr != nil {
			err = errors.Join(err, flushErr)
		}
		result.Duration = time.Since(start)
		p.metrics.RunFinished(result.Duration, err)

		if err != nil {
			logger.Error("run stopped", "downloaded", result.Downloaded, "failed", result.Failed, "error", err)
		} else {
			logger.Info("run complete", "downloaded", result.Downloaded, "failed", result.Failed,
				"tag_failures", result.TagFailures, "duration", result.Duration)
		}
		sendProgress(progress, finishedUpdate(result, err))
	}()

	collection, err := services.ParseCollection(collectionURL)
	if err != nil {
		return result, err
	}
	result.Collection = collection
	logger = shared.WithLogger(logger, "kind", collection.Kind.String(), "collection", collection.ID)

	sendProgress(progress, authenticatingUpdate(collection))
	if _, err := p.provider.Authenticate(ctx); err != nil {
		return result, err
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = p.concurrency
	}

	override := opts.QueryOverride
	pageToken := ""
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		seen := len(result.Tracks)
		sendProgress(progress, fetchingPageUpdate(result.Pages+1, seen))
		page, err := p.provider.FetchPage(ctx, collection, pageToken)
		if err != nil {
			return result, err
		}
		result.Pages++
		logger.Debug("fetched page", "page", result.Pages, "tracks", len(page.Tracks), "more", page.Next != "")

		batch := pageBatch{
			tracks:   page.Tracks,
			offset:   seen,
			total:    seen + len(page.Tracks),
			override: override,
		}
		if len(page.Tracks) > 0 {
			override = ""
		}

		results, err := p.processPage(ctx, logger, batch, concurrency, progress)
		result.add(results)
		if err != nil {
			return result, err
		}

		if page.Next == "" {
			return result, nil
		}
		sendProgress(progress, nextPageUpdate(len(result.Tracks), page.Next))
		pageToken = page.Next
	}
}

type pageBatch struct {
	tracks   []models.Track
	offset   int
	total    int
	override string // applies to tracks[0]
}

// processPage runs every track of a page, in order, or through a bounded group when concurrency > 1.
//
// Cancellation is checked before each track starts; a non-nil error means the page was cut short and the returned
// results hold only the tracks that started.
func (p *PlaylistPipeline) processPage(ctx context.Context, logger *log.Logger, b pageBatch, concurrency int, progress chan<- ProgressUpdate) ([]TrackResult, error) {
	results := make([]TrackResult, len(b.tracks))

	if concurrency <= 1 {
		for i, track := range b.tracks {
			if err := ctx.Err(); err != nil {
				return results[:i], err
			}
			results[i] = p.processTrack(ctx, logger, track, b.queryFor(i), b.offset+i+1, b.total, progress)
		}
		return results, nil
	}

	var g errgroup.Group
	g.SetLimit(concurrency)

	started := 0
	var cancelled error
	for i, track := range b.tracks {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		started++
		g.Go(func() error {
			results[i] = p.processTrack(ctx, logger, track, b.queryFor(i), b.offset+i+1, b.total, progress)
			return nil
		})
	}
	_ = g.Wait()

	return results[:started], cancelled
}

func (b pageBatch) queryFor(i int) string {
	if i == 0 {
		return b.override
	}
	return ""
}

// ProcessTrack resolves, downloads and tags a single track outside of a run.
//
// Failures are recorded in the ledger but not flushed.
func (p *PlaylistPipeline) ProcessTrack(ctx context.Context, track models.Track, override string) TrackResult {
	return p.processTrack(ctx, p.logger, track, override, 1, 1, nil)
}

func (p *PlaylistPipeline) processTrack(ctx context.Context, logger *log.Logger, track models.Track, override string, step, total int, progress chan<- ProgressUpdate) TrackResult {
	res := TrackResult{Track: track}
	logger = shared.WithLogger(logger, "track", track.Title, "artist", track.ArtistDisplay())
	defer func() {
		p.metrics.TrackOutcome(res.Outcome.String())
		sendProgress(progress, trackDoneUpdate(step, total, &res))
	}()

	sendProgress(progress, trackUpdate(ResolvingTrack, step, total, &track))
	media, err := p.locator.Locate(ctx, track, override)
	if err != nil || !media.Found() {
		if err == nil {
			err = shared.ErrResolutionMiss
		} else {
			err = fmt.Errorf("%w: %w", shared.ErrResolutionMiss, err)
		}
		logger.Warn("no media found", "error", err)
		p.fail(&res, NotFound, err)
		return res
	}
	res.MediaURL = media.URL

	sendProgress(progress, trackUpdate(Downloading, step, total, &track))
	dl, err := p.downloader.Download(ctx, media.URL, p.dir, track.Title)
	if err != nil {
		logger.Warn("download failed", "url", media.URL, "error", err)
		p.fail(&res, DownloadFailed, err)
		return res
	}
	res.Outcome = Downloaded
	res.FilePath = dl.FilePath

	sendProgress(progress, trackUpdate(Tagging, step, total, &track))
	p.tag(ctx, logger, &res)
	logger.Info("downloaded", "path", res.FilePath, "tagged", res.Tagged)
	return res
}

// DownloadTrack downloads mediaURL for a track whose media was already resolved by the caller.
//
// A download failure is recorded in the ledger (not flushed) and returned. Tagging is best effort:
// a tag failure leaves the file in place and is reported only through TrackResult.TagErr.
func (p *PlaylistPipeline) DownloadTrack(ctx context.Context, mediaURL string, track models.Track) (TrackResult, error) {
	res := TrackResult{Track: track, MediaURL: mediaURL}
	logger := shared.WithLogger(p.logger, "track", track.Title, "artist", track.ArtistDisplay())

	dl, err := p.downloader.Download(ctx, mediaURL, p.dir, track.Title)
	if err != nil {
		logger.Warn("download failed", "url", mediaURL, "error", err)
		p.fail(&res, DownloadFailed, err)
		p.metrics.TrackOutcome(res.Outcome.String())
		return res, err
	}
	res.Outcome = Downloaded
	res.FilePath = dl.FilePath
	p.tag(ctx, logger, &res)
	p.metrics.TrackOutcome(res.Outcome.String())
	logger.Info("downloaded", "path", res.FilePath, "tagged", res.Tagged)
	return res, nil
}

func (p *PlaylistPipeline) fail(res *TrackResult, outcome Outcome, err error) {
	res.Outcome = outcome
	res.Err = err
	p.ledger.Record(LedgerArtist(res.Track), LedgerTitle(res.Track))
}

func (p *PlaylistPipeline) tag(ctx context.Context, logger *log.Logger, res *TrackResult) {
	cover, err := p.fetchCover(ctx, res.Track.CoverURL)
	if err != nil {
		logger.Warn("failed to fetch cover art, tagging without it", "url", res.Track.CoverURL, "error", err)
		res.CoverErr = err
	}
	if err := p.tagger.WriteTags(res.FilePath, models.TagsFor(res.Track, cover)); err != nil {
		logger.Warn("failed to write tags, keeping file", "path", res.FilePath, "error", err)
		res.TagErr = err
		p.metrics.TagFailure()
		return
	}
	res.Tagged = true
}

// fetchCover returns nil data when there is no cover URL. Fetch errors wrap [shared.ErrCoverFetch].
func (p *PlaylistPipeline) fetchCover(ctx context.Context, coverURL string) ([]byte, error) {
	if coverURL == "" || p.covers == nil {
		return nil, nil
	}
	data, err := p.covers.Fetch(ctx, coverURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCoverFetch, err)
	}
	return data, nil
}

// LedgerArtist is the artist written into a failure record.
func LedgerArtist(t models.Track) string {
	if a := t.ArtistDisplay(); a != "" {
		return a
	}
	return models.UnknownArtist
}

// LedgerTitle is the title written into a failure record.
func LedgerTitle(t models.Track) string {
	if t.Title != "" {
		return t.Title
	}
	return models.UnknownTitle
}
