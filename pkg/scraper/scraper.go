package scraper

import (
	"context"
	"net/http"

	"ljdl/internal/downloader"
	"ljdl/pkg/auth"
	"ljdl/pkg/config"
	"ljdl/pkg/livejournal"
	"ljdl/pkg/logger"
	"ljdl/pkg/manifest"
	"ljdl/pkg/ratelimit"
	"ljdl/pkg/storage"
	"ljdl/pkg/ui"
	"ljdl/pkg/useragent"
)

// Scraper runs one download: classify, authenticate, build the job list, download
type Scraper struct {
	config     *config.Config
	httpClient *http.Client
	console    *ui.Console
	progress   *ui.Progress
	logger     logger.Logger
}

// Option configures a Scraper
type Option func(*Scraper)

// WithHTTPClient sets the client shared by every request of the run
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Scraper) {
		s.httpClient = hc
	}
}

// WithProgress overrides the progress bar chosen from the configuration
func WithProgress(p *ui.Progress) Option {
	return func(s *Scraper) {
		s.progress = p
	}
}

// New creates a Scraper. A nil console prints to the standard streams.
func New(cfg *config.Config, log logger.Logger, console *ui.Console, opts ...Option) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	if console == nil {
		console = ui.Stdio(cfg.Output.Quiet)
	}

	s := &Scraper{
		config:  cfg,
		console: console,
		logger:  log,
	}
	if cfg.Output.Progress && !cfg.Output.Quiet {
		s.progress = ui.NewProgress(console.Out(), true)
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: cfg.Download.RequestTimeout}
	}

	return s
}

// Run downloads the album or journal at rawURL into the configured directory
func (s *Scraper) Run(ctx context.Context, rawURL string) (*downloader.Summary, error) {
	cfg := s.config

	target, err := livejournal.ParseTarget(rawURL, cfg.Platform.Domain)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithFields(map[string]interface{}{
		"user": target.Username,
		"mode": target.Mode.String(),
	})
	if target.Single() {
		log.WithField("album_id", target.AlbumID.String()).Info("Downloading a single album")
	} else {
		log.Info("No album id in URL, downloading all albums")
		s.console.Info("No album specified, all albums of %s will be downloaded", target.Username)
	}

	sm, err := storage.NewManager(cfg.Output.Directory, cfg.Output.FolderPrefix)
	if err != nil {
		return nil, err
	}

	ua := useragent.Resolve(cfg.Platform.UserAgent)
	limiter := ratelimit.FromConfig(cfg.RateLimit)
	store := manifest.NewStore(sm.ManifestPath(target.Username), log)

	authenticator := auth.NewAuthenticator(s.httpClient, cfg.Platform.AuthURL, ua, log)
	client := livejournal.NewClient(cfg.Platform.APIURL, ua, cfg.Download.RequestTimeout, log,
		livejournal.WithHTTPClient(s.httpClient),
		livejournal.WithLimiter(limiter),
	)

	m, err := NewJobListBuilder(authenticator, client, store, s.console, log).Build(ctx, target)
	if err != nil {
		return nil, err
	}

	engine := downloader.NewEngine(cfg, sm, log,
		downloader.WithHTTPClient(s.httpClient),
		downloader.WithLimiter(limiter),
		downloader.WithProgress(s.progress),
		downloader.WithManifestStore(store),
		downloader.WithUserAgent(ua),
	)

	summary, err := engine.Run(ctx, m)
	if err != nil {
		return summary, err
	}

	s.console.Summary(summary.Images, summary.Albums, summary.Bytes, summary.Duration, sm.Root())
	return summary, nil
}
