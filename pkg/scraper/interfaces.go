package scraper

import (
	"context"

	"ljdl/pkg/livejournal"
)

// SessionProvider establishes the session used by every RPC call
type SessionProvider interface {
	Authenticate(ctx context.Context, target *livejournal.Target) (*livejournal.Session, error)
}

// AlbumSource lists albums and their records
type AlbumSource interface {
	GetAlbums(ctx context.Context, session *livejournal.Session, target *livejournal.Target) ([]livejournal.Album, error)
	GetRecords(ctx context.Context, session *livejournal.Session, target *livejournal.Target, album livejournal.Album) ([]livejournal.Record, error)
}
