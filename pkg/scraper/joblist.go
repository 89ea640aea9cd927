package scraper

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"ljdl/pkg/livejournal"
	"ljdl/pkg/logger"
	"ljdl/pkg/manifest"
	"ljdl/pkg/ui"
)

// JobListBuilder turns a target into a persisted manifest of every image to download
type JobListBuilder struct {
	auth    SessionProvider
	albums  AlbumSource
	store   *manifest.Store
	console *ui.Console
	logger  logger.Logger
}

// NewJobListBuilder creates a builder. store and console may be nil.
func NewJobListBuilder(auth SessionProvider, albums AlbumSource, store *manifest.Store, console *ui.Console, log logger.Logger) *JobListBuilder {
	if log == nil {
		log = logger.GetLogger()
	}
	return &JobListBuilder{
		auth:    auth,
		albums:  albums,
		store:   store,
		console: console,
		logger:  log.WithField("component", "joblist"),
	}
}

// Build authenticates, lists the albums of target, fetches the records of
// every album concurrently and persists the merged manifest. The first
// failing fetch aborts the build.
func (b *JobListBuilder) Build(ctx context.Context, target *livejournal.Target) (*manifest.Manifest, error) {
	fields := map[string]interface{}{"user": target.Username, "mode": target.Mode.String()}

	logger.LogPhase(b.logger, "joblist", "authenticating", fields)
	session, err := b.auth.Authenticate(ctx, target)
	if err != nil {
		return nil, err
	}

	logger.LogPhase(b.logger, "joblist", "listing_albums", fields)
	listed, err := b.albums.GetAlbums(ctx, session, target)
	if err != nil {
		return nil, err
	}
	albums := b.uniqueAlbums(listed)

	logger.LogPhase(b.logger, "joblist", "fetching_records", map[string]interface{}{
		"user":   target.Username,
		"albums": len(albums),
	})

	var (
		mu      sync.Mutex
		records = make(map[livejournal.ID][]livejournal.Record, len(albums))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, album := range albums {
		album := album
		g.Go(func() error {
			recs, err := b.albums.GetRecords(gctx, session, target, album)
			if err != nil {
				return err
			}
			mu.Lock()
			records[album.ID] = recs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.LogPhase(b.logger, "joblist", "merging", fields)
	m := manifest.New(target.Username, target.URL)
	for _, album := range albums {
		recs := records[album.ID]
		if len(recs) == 0 {
			b.logger.WarnWithFields("Skipping album without images", map[string]interface{}{
				"album_id": album.ID.String(),
				"name":     album.Name,
			})
			if b.console != nil {
				b.console.Warning("Album %q has no images, skipping", album.Name)
			}
			continue
		}
		if _, err := m.AddAlbum(album, recs); err != nil {
			return nil, err
		}
	}

	if b.store != nil {
		if err := b.store.Save(m); err != nil {
			return nil, err
		}
		logger.LogPhase(b.logger, "joblist", "persisted", map[string]interface{}{
			"path":   b.store.Path(),
			"albums": len(m.Albums),
			"images": m.TotalImages(),
		})
	}

	if b.console != nil {
		b.console.Totals(m.TotalImages(), len(m.Albums))
	}

	return m, nil
}

// uniqueAlbums drops repeated album ids so no two albums share a folder
func (b *JobListBuilder) uniqueAlbums(listed []livejournal.Album) []livejournal.Album {
	seen := make(map[livejournal.ID]bool, len(listed))
	albums := make([]livejournal.Album, 0, len(listed))
	for _, album := range listed {
		if seen[album.ID] {
			b.logger.WarnWithFields("Skipping repeated album", map[string]interface{}{
				"album_id": album.ID.String(),
				"name":     album.Name,
			})
			continue
		}
		seen[album.ID] = true
		albums = append(albums, album)
	}
	return albums
}
