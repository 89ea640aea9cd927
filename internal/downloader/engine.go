// Package downloader saves every image of a job manifest to disk with a
// bounded number of concurrent transfers.
package downloader

import (
	"context"
	stderrors "errors"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ljdl/pkg/config"
	"ljdl/pkg/errors"
	"ljdl/pkg/logger"
	"ljdl/pkg/manifest"
	"ljdl/pkg/ratelimit"
	"ljdl/pkg/storage"
	"ljdl/pkg/ui"
	"ljdl/pkg/useragent"
)

// Job is a single image transfer
type Job struct {
	AlbumID string
	URL     string
	Path    string
	Label   string
}

// Summary describes a finished run
type Summary struct {
	Albums   int
	Images   int
	Bytes    int64
	Failed   int
	Duration time.Duration
}

// Engine downloads the records of a manifest into album folders
type Engine struct {
	httpClient      *http.Client
	storage         *storage.Manager
	store           *manifest.Store
	limiter         ratelimit.Limiter
	progress        *ui.Progress
	userAgent       string
	concurrency     int
	continueOnError bool
	logger          logger.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithHTTPClient sets the client used for image requests
func WithHTTPClient(hc *http.Client) Option {
	return func(e *Engine) {
		e.httpClient = hc
	}
}

// WithLimiter paces image requests
func WithLimiter(l ratelimit.Limiter) Option {
	return func(e *Engine) {
		e.limiter = l
	}
}

// WithProgress reports finished jobs to p
func WithProgress(p *ui.Progress) Option {
	return func(e *Engine) {
		e.progress = p
	}
}

// WithManifestStore persists the manifest again once download paths are known
func WithManifestStore(s *manifest.Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithUserAgent sets the User-Agent header of image requests
func WithUserAgent(ua string) Option {
	return func(e *Engine) {
		e.userAgent = ua
	}
}

// NewEngine creates an engine writing through sm
func NewEngine(cfg *config.Config, sm *storage.Manager, log logger.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logger.GetLogger()
	}

	e := &Engine{
		httpClient:      &http.Client{Timeout: cfg.Download.RequestTimeout},
		storage:         sm,
		limiter:         ratelimit.FromConfig(cfg.RateLimit),
		userAgent:       useragent.Resolve(cfg.Platform.UserAgent),
		concurrency:     cfg.Download.ConcurrentDownloads,
		continueOnError: cfg.Download.ContinueOnError,
		logger:          log.WithField("component", "downloader"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.concurrency <= 0 {
		e.concurrency = config.DefaultConcurrentDownloads
	}

	return e
}

// Plan creates the album folders, records them in m and returns one job per record
func (e *Engine) Plan(m *manifest.Manifest) ([]Job, error) {
	var jobs []Job
	for _, album := range m.Albums {
		dir, err := e.storage.EnsureAlbumDir(m.Username, album.ID.String(), album.Name)
		if err != nil {
			return nil, err
		}
		album.DownloadPath = dir

		for _, r := range album.Records.Records() {
			jobs = append(jobs, Job{
				AlbumID: album.ID.String(),
				URL:     r.URL,
				Path:    filepath.Join(dir, r.Filename),
				Label:   r.Filename,
			})
		}
	}
	return jobs, nil
}

// Run downloads every record of m. By default the first failure cancels
// the remaining transfers and is returned. When continue-on-error is set
// all jobs run and the failures are returned joined together with the summary.
func (e *Engine) Run(ctx context.Context, m *manifest.Manifest) (*Summary, error) {
	start := time.Now()

	jobs, err := e.Plan(m)
	if err != nil {
		return nil, err
	}

	if e.store != nil {
		if err := e.store.Save(m); err != nil {
			return nil, err
		}
	}

	logger.LogPhase(e.logger, "downloader", "downloading", map[string]interface{}{
		"jobs":        len(jobs),
		"albums":      len(m.Albums),
		"concurrency": e.concurrency,
	})

	tracker := NewTracker(len(jobs), e.progress)
	e.progress.Start(len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	var (
		mu       sync.Mutex
		failures []error
	)

	for _, job := range jobs {
		if gctx.Err() != nil {
			break
		}

		job := job
		g.Go(func() error {
			size, err := e.download(gctx, job)
			logger.LogDownload(e.logger, job.AlbumID, job.Label, size, err)
			if err != nil {
				if !e.continueOnError {
					return err
				}
				tracker.Failed(job.Label)
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
				return nil
			}
			tracker.Done(job.Label, size)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.progress.Abort()
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		e.progress.Abort()
		return nil, err
	}

	completed, failed, bytes, _ := tracker.Snapshot()
	summary := &Summary{
		Albums:   len(m.Albums),
		Images:   completed,
		Bytes:    bytes,
		Failed:   failed,
		Duration: time.Since(start),
	}

	if len(failures) > 0 {
		e.progress.Abort()
		e.logger.WarnWithFields("Download finished with failures", map[string]interface{}{
			"failed":    failed,
			"completed": completed,
		})
		return summary, stderrors.Join(failures...)
	}

	e.progress.Finish()
	e.logger.InfoWithFields("Download finished", map[string]interface{}{
		"images":   summary.Images,
		"bytes":    summary.Bytes,
		"duration": summary.Duration,
	})

	return summary, nil
}

func (e *Engine) download(ctx context.Context, job Job) (int64, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.URL, nil)
	if err != nil {
		return 0, errors.Wrap(errors.ErrorTypeFetch, err, "invalid image URL %s", job.URL)
	}
	req.Header.Set("User-Agent", e.userAgent)

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, errors.Wrap(errors.ErrorTypeNetwork, err, "failed to fetch %s", job.URL)
	}
	defer resp.Body.Close()

	logger.LogRequest(e.logger, req.Method, job.URL, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, errors.Fetch(job.URL, resp.StatusCode)
	}

	return e.storage.Save(job.Path, resp.Body)
}
