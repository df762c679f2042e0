package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotdl/internal/ledger"
	"github.com/desertthunder/spotdl/internal/media"
	"github.com/desertthunder/spotdl/internal/metrics"
	"github.com/desertthunder/spotdl/internal/services"
	"github.com/desertthunder/spotdl/internal/shared"
	"github.com/desertthunder/spotdl/internal/tasks"
	"github.com/desertthunder/spotdl/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Collaborators left nil are built from the config the first time a command needs them.
type Runner struct {
	config     *shared.Config
	logger     *log.Logger
	output     io.Writer
	httpClient *http.Client
	palette    *ui.Palette
	metrics    *metrics.Metrics
	ledger     *ledger.Ledger

	provider  services.MetadataProvider
	searcher  services.Searcher
	extractor services.Extractor
	tagger    tasks.Tagger
	covers    services.Fetcher

	mu      sync.Mutex
	locator *services.Locator
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Logger     *log.Logger
	Output     io.Writer
	HTTPClient *http.Client
	Palette    *ui.Palette

	Provider  services.MetadataProvider
	Searcher  services.Searcher
	Extractor services.Extractor
	Tagger    tasks.Tagger
	Covers    services.Fetcher
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Palette == nil {
		opts.Palette = ui.Default
	}

	return &Runner{
		config:     opts.Config,
		logger:     opts.Logger,
		output:     opts.Output,
		httpClient: opts.HTTPClient,
		palette:    opts.Palette,
		metrics:    metrics.New(),
		ledger:     ledger.New(),
		provider:   opts.Provider,
		searcher:   opts.Searcher,
		extractor:  opts.Extractor,
		tagger:     opts.Tagger,
		covers:     opts.Covers,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, downloadCommand, searchCommand, tokenCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// configure loads .env files and the config file named by the root flags, then applies the log level.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := shared.LoadEnv(cmd.StringSlice("env-file")...); err != nil {
		return ctx, err
	}

	config, err := shared.ResolveConfig(cmd.String("config"))
	if err != nil {
		return ctx, err
	}
	r.config = config

	level := config.Logging.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))
	r.logger.Debug("configuration loaded", "path", cmd.String("config"), "level", level)
	return ctx, nil
}

// catalog returns the metadata provider, creating a Spotify client from the configured credentials.
func (r *Runner) catalog() (services.MetadataProvider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.provider != nil {
		return r.provider, nil
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	spot := r.config.Credentials.Spotify
	provider, err := services.NewSpotifyProvider(services.SpotifyOptions{
		ClientID:     spot.ClientID,
		ClientSecret: spot.ClientSecret,
		TokenURL:     spot.TokenURL,
		APIBaseURL:   spot.APIBaseURL,
		HTTPClient:   r.httpClient,
		Logger:       shared.WithLogger(r.logger, "service", "spotify"),
	})
	if err != nil {
		return nil, err
	}
	r.provider = provider
	return provider, nil
}

// search returns the shared rate-limited locator.
//
// The YouTube Data API is used when an API key is configured, yt-dlp otherwise.
func (r *Runner) search(ctx context.Context) (*services.Locator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locator != nil {
		return r.locator, nil
	}

	searcher := r.searcher
	if searcher == nil {
		if key := r.config.Credentials.YouTube.APIKey; key != "" {
			yt, err := services.NewYouTubeSearcher(ctx, key)
			if err != nil {
				return nil, err
			}
			searcher = yt
		} else {
			searcher = r.ytdlp()
		}
	}

	r.logger.Debug("search backend selected", "backend", backendName(searcher))
	r.locator = services.NewLocator(searcher, r.config.Search.RateLimit, shared.WithLogger(r.logger, "component", "locator"))
	return r.locator, nil
}

// pipeline builds a pipeline writing into dir, or the configured downloads directory when dir is empty.
func (r *Runner) pipeline(ctx context.Context, dir string) (*tasks.PlaylistPipeline, error) {
	provider, err := r.catalog()
	if err != nil {
		return nil, err
	}
	locator, err := r.search(ctx)
	if err != nil {
		return nil, err
	}

	if dir == "" {
		if dir, err = r.config.DownloadsDir(); err != nil {
			return nil, err
		}
	}
	logPath := ""
	if name := r.config.Downloads.LogFile; name != "" {
		logPath = filepath.Join(dir, name)
	}

	extractor := r.extractor
	if extractor == nil {
		extractor = r.ytdlp()
	}
	tagger := r.tagger
	if tagger == nil {
		tagger = media.NewTagWriter(r.config.Downloads.CoverMaxSize)
	}
	covers := r.covers
	if covers == nil {
		covers = services.NewHTTPFetcher(r.httpClient)
	}

	return tasks.NewPlaylistPipeline(tasks.PipelineOpts{
		Provider:     provider,
		Locator:      locator,
		Downloader:   media.NewDownloader(extractor, shared.WithLogger(r.logger, "component", "downloader")),
		Tagger:       tagger,
		Covers:       covers,
		Ledger:       r.ledger,
		DownloadsDir: dir,
		LogPath:      logPath,
		Concurrency:  r.config.Downloads.Concurrency,
		Metrics:      r.metrics,
		Logger:       r.logger,
	})
}

func (r *Runner) ytdlp() *services.YtDlp {
	return services.NewYtDlp(r.config.Downloads.YtDlpPath, services.WithYtDlpLogger(shared.WithLogger(r.logger, "component", "yt-dlp")))
}

func backendName(s services.Searcher) string {
	if n, ok := s.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
