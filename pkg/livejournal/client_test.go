package livejournal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ljdl/pkg/errors"
	"ljdl/pkg/logger"
)

// capturedCall records what the fake RPC endpoint received
type capturedCall struct {
	Header  http.Header
	Cookies map[string]string
	Batch   []map[string]interface{}
}

type fakeAPI struct {
	mu     sync.Mutex
	calls  []capturedCall
	status int
	reply  func(method string, params map[string]interface{}) string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var batch []map[string]interface{}
	_ = json.Unmarshal(body, &batch)

	cookies := make(map[string]string)
	for _, c := range r.Cookies() {
		cookies[c.Name] = c.Value
	}

	f.mu.Lock()
	f.calls = append(f.calls, capturedCall{Header: r.Header.Clone(), Cookies: cookies, Batch: batch})
	f.mu.Unlock()

	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}

	method, _ := batch[0]["method"].(string)
	params, _ := batch[0]["params"].(map[string]interface{})
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, f.reply(method, params))
}

func (f *fakeAPI) lastCall(t *testing.T) capturedCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

const albumsReply = `[{"jsonrpc":"2.0","id":1,"result":{"albums":[
	{"id":10,"name":"Summer Trip","count":2,"timecreate":1500000000,"cover":"x","privacy":0},
	{"id":11,"name":"Cats","count":1,"timecreate":1500000100}
]}}]`

func newTestClient(t *testing.T, api *fakeAPI) (*Client, *Target) {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	client := NewClient(server.URL+"/__api/", "test-agent/1.0", 5*time.Second, logger.NewTestLogger(),
		WithHTTPClient(server.Client()))

	target, err := ParseTarget("https://alice.livejournal.com", "")
	require.NoError(t, err)
	return client, target
}

func testSession() *Session {
	return &Session{LUID: "luid-value", LJUniq: "ljuniq-value", AuthToken: "tok123"}
}

func TestGetAlbums(t *testing.T) {
	api := &fakeAPI{reply: func(method string, params map[string]interface{}) string { return albumsReply }}
	client, target := newTestClient(t, api)

	albums, err := client.GetAlbums(context.Background(), testSession(), target)
	require.NoError(t, err)

	require.Len(t, albums, 2)
	assert.Equal(t, Album{ID: "10", Name: "Summer Trip", Count: 2, TimeCreate: "1500000000"}, albums[0])
	assert.Equal(t, ID("11"), albums[1].ID)

	call := api.lastCall(t)
	require.Len(t, call.Batch, 1)
	assert.Equal(t, "photo.get_albums", call.Batch[0]["method"])
	assert.Equal(t, "2.0", call.Batch[0]["jsonrpc"])
	assert.Equal(t, float64(1), call.Batch[0]["id"])
	assert.Equal(t, map[string]interface{}{"auth_token": "tok123", "user": "alice"}, call.Batch[0]["params"])

	assert.Equal(t, "luid-value", call.Cookies["luid"])
	assert.Equal(t, "ljuniq-value", call.Cookies["ljuniq"])
	assert.Equal(t, "https://alice.livejournal.com", call.Header.Get("Origin"))
	assert.Equal(t, "https://alice.livejournal.com/photo", call.Header.Get("Referer"))
	assert.Equal(t, APIAccept, call.Header.Get("Accept"))
	assert.Equal(t, "test-agent/1.0", call.Header.Get("User-Agent"))
}

func TestGetAlbumsSingleMode(t *testing.T) {
	api := &fakeAPI{reply: func(string, map[string]interface{}) string { return albumsReply }}
	client, _ := newTestClient(t, api)

	target, err := ParseTarget("https://alice.livejournal.com/photo/album/11", "")
	require.NoError(t, err)

	albums, err := client.GetAlbums(context.Background(), testSession(), target)
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, "Cats", albums[0].Name)

	missing, err := ParseTarget("https://alice.livejournal.com/photo/album/99", "")
	require.NoError(t, err)
	_, err = client.GetAlbums(context.Background(), testSession(), missing)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestGetAlbumsErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		reply   string
		errType errors.ErrorType
	}{
		{name: "missing albums key", reply: `[{"jsonrpc":"2.0","id":1,"result":{}}]`, errType: errors.ErrorTypeAPI},
		{name: "rpc error", reply: `[{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"bad token"}}]`, errType: errors.ErrorTypeAPI},
		{name: "not json", reply: `<html>oops</html>`, errType: errors.ErrorTypeAPI},
		{name: "server error", status: http.StatusBadGateway, errType: errors.ErrorTypeAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := tt.reply
			api := &fakeAPI{status: tt.status, reply: func(string, map[string]interface{}) string { return reply }}
			client, target := newTestClient(t, api)

			_, err := client.GetAlbums(context.Background(), testSession(), target)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.errType), "got %v", err)
		})
	}
}

func TestGetAlbumsAcceptsSingleEnvelope(t *testing.T) {
	api := &fakeAPI{reply: func(string, map[string]interface{}) string {
		return `{"jsonrpc":"2.0","id":1,"result":{"albums":[{"id":"7","name":"x","count":0}]}}`
	}}
	client, target := newTestClient(t, api)

	albums, err := client.GetAlbums(context.Background(), testSession(), target)
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, ID("7"), albums[0].ID)
}

func TestCallRequiresSession(t *testing.T) {
	api := &fakeAPI{reply: func(string, map[string]interface{}) string { return albumsReply }}
	client, target := newTestClient(t, api)

	_, err := client.GetAlbums(context.Background(), &Session{AuthToken: "only-token"}, target)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuth))
	assert.Empty(t, api.calls)
}

func TestGetRecords(t *testing.T) {
	api := &fakeAPI{reply: func(method string, params map[string]interface{}) string {
		return `[{"jsonrpc":"2.0","id":7,"result":{"records":[
			{"index":0,"name":"Beach Day.JPEG","url":"https://pics.example/a/1.jpg","extra":true},
			{"index":1,"name":"sunset","url":"https://pics.example/a/2.png"}
		]}}]`
	}}
	client, target := newTestClient(t, api)

	album := Album{ID: "10", Name: "Summer Trip", Count: 2}
	records, err := client.GetRecords(context.Background(), testSession(), target, album)
	require.NoError(t, err)

	assert.Equal(t, []Record{
		{Filename: "0__Beach_Day.jpg", URL: "https://pics.example/a/1.jpg"},
		{Filename: "1__sunset.png", URL: "https://pics.example/a/2.png"},
	}, records)

	call := api.lastCall(t)
	assert.Equal(t, "photo.get_records", call.Batch[0]["method"])
	assert.Equal(t, float64(7), call.Batch[0]["id"])
	assert.Equal(t, map[string]interface{}{
		"albumid":       float64(10),
		"user":          "alice",
		"offset":        float64(0),
		"limit":         float64(2),
		"sort":          "timecreate",
		"order":         "desc",
		"migrated_info": float64(1),
		"auth_token":    "tok123",
	}, call.Batch[0]["params"])
	assert.Equal(t, "https://alice.livejournal.com/photo/album/10", call.Header.Get("Referer"))
}

func TestGetRecordsMissingKey(t *testing.T) {
	api := &fakeAPI{reply: func(string, map[string]interface{}) string {
		return `[{"jsonrpc":"2.0","id":7,"result":{"total":0}}]`
	}}
	client, target := newTestClient(t, api)

	_, err := client.GetRecords(context.Background(), testSession(), target, Album{ID: "10", Count: 1})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAPI))
	assert.Contains(t, err.Error(), "records")
}

func TestIDJSON(t *testing.T) {
	var ids []ID
	require.NoError(t, json.Unmarshal([]byte(`[10, "11", "abc"]`), &ids))
	assert.Equal(t, []ID{"10", "11", "abc"}, ids)

	data, err := json.Marshal(ids)
	require.NoError(t, err)
	assert.JSONEq(t, `[10, 11, "abc"]`, string(data))
}
