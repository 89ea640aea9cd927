package scraper

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ljdl/pkg/errors"
	"ljdl/pkg/livejournal"
	"ljdl/pkg/logger"
	"ljdl/pkg/manifest"
)

type fakeSession struct {
	err error
}

func (f *fakeSession) Authenticate(ctx context.Context, target *livejournal.Target) (*livejournal.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &livejournal.Session{LUID: "l", LJUniq: "u", AuthToken: "t"}, nil
}

type fakeAlbums struct {
	albums  []livejournal.Album
	records map[livejournal.ID][]livejournal.Record
	fail    livejournal.ID
	calls   int32
}

func (f *fakeAlbums) GetAlbums(ctx context.Context, session *livejournal.Session, target *livejournal.Target) ([]livejournal.Album, error) {
	return f.albums, nil
}

func (f *fakeAlbums) GetRecords(ctx context.Context, session *livejournal.Session, target *livejournal.Target, album livejournal.Album) ([]livejournal.Record, error) {
	atomic.AddInt32(&f.calls, 1)
	if album.ID == f.fail {
		return nil, errors.API("can't find %q key", "records")
	}
	return f.records[album.ID], nil
}

func testTarget(t *testing.T) *livejournal.Target {
	t.Helper()
	target, err := livejournal.ParseTarget("https://alice.livejournal.com/", "")
	require.NoError(t, err)
	return target
}

func TestBuildMergesInAlbumOrder(t *testing.T) {
	source := &fakeAlbums{
		albums: []livejournal.Album{
			{ID: "3", Name: "Third", Count: 1},
			{ID: "1", Name: "First", Count: 2},
			{ID: "2", Name: "Nothing", Count: 0},
		},
		records: map[livejournal.ID][]livejournal.Record{
			"1": {{Filename: "0__a.jpg", URL: "https://pics/a.jpg"}, {Filename: "1__b.jpg", URL: "https://pics/b.jpg"}},
			"3": {{Filename: "0__c.png", URL: "https://pics/c.png"}},
		},
	}
	store := manifest.NewStore(filepath.Join(t.TempDir(), "lj_alice_job_list.json"), logger.NewNopLogger())
	log := logger.NewTestLogger()

	m, err := NewJobListBuilder(&fakeSession{}, source, store, nil, log).Build(context.Background(), testTarget(t))
	require.NoError(t, err)

	require.Len(t, m.Albums, 2)
	assert.Equal(t, livejournal.ID("3"), m.Albums[0].ID)
	assert.Equal(t, livejournal.ID("1"), m.Albums[1].ID)
	assert.Equal(t, 3, m.TotalImages())
	assert.Equal(t, int32(3), source.calls)
	assert.True(t, log.HasMessage("Skipping album without images"))

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "alice", saved.Username)
	assert.Equal(t, 3, saved.TotalImages())
}

func TestBuildSkipsRepeatedAlbumIDs(t *testing.T) {
	source := &fakeAlbums{
		albums: []livejournal.Album{
			{ID: "1", Name: "First", Count: 1},
			{ID: "1", Name: "First again", Count: 1},
			{ID: "2", Name: "Second", Count: 1},
		},
		records: map[livejournal.ID][]livejournal.Record{
			"1": {{Filename: "0__a.jpg", URL: "https://pics/a.jpg"}},
			"2": {{Filename: "0__b.jpg", URL: "https://pics/b.jpg"}},
		},
	}
	log := logger.NewTestLogger()

	m, err := NewJobListBuilder(&fakeSession{}, source, nil, nil, log).Build(context.Background(), testTarget(t))
	require.NoError(t, err)

	require.Len(t, m.Albums, 2)
	assert.Equal(t, "First", m.Albums[0].Name)
	assert.Equal(t, livejournal.ID("2"), m.Albums[1].ID)
	assert.Equal(t, int32(2), source.calls)
	assert.True(t, log.HasMessage("Skipping repeated album"))
}

func TestBuildAbortsOnRecordFailure(t *testing.T) {
	source := &fakeAlbums{
		albums: []livejournal.Album{{ID: "1", Count: 1}, {ID: "2", Count: 1}},
		fail:   "2",
	}
	store := manifest.NewStore(filepath.Join(t.TempDir(), "job.json"), logger.NewNopLogger())

	m, err := NewJobListBuilder(&fakeSession{}, source, store, nil, nil).Build(context.Background(), testTarget(t))
	require.Error(t, err)
	assert.Nil(t, m)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAPI))
	assert.False(t, store.Exists())
}

func TestBuildStopsWhenAuthenticationFails(t *testing.T) {
	source := &fakeAlbums{}

	_, err := NewJobListBuilder(&fakeSession{err: errors.Auth("can't find any auth_token")}, source, nil, nil, nil).
		Build(context.Background(), testTarget(t))
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuth))
	assert.Equal(t, int32(0), source.calls)
}
