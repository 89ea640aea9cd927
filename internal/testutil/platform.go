// Package testutil provides a fake blogging platform for package tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"ljdl/pkg/config"
)

// Default credentials handed out by the fake platform
const (
	DefaultLUID      = "luid-0123"
	DefaultLJUniq    = "ljuniq-4567"
	DefaultAuthToken = "sessionless:1700000000:/__api/::abcdef"
)

// MockImage is one image record served by the fake platform
type MockImage struct {
	Name string
	Ext  string
	Body []byte
}

// MockAlbum is one album served by the fake platform
type MockAlbum struct {
	ID     int
	Name   string
	Images []MockImage
}

// MockPlatform simulates the auth endpoint, journal pages, the JSON-RPC
// endpoint and the image CDN on one httptest server
type MockPlatform struct {
	server *httptest.Server

	mu          sync.RWMutex
	albums      []MockAlbum
	imageErrors map[string]int
	imageDelay  time.Duration
	pageStatus  int
	pageScript  string
	omitLJUniq  bool
	omitLUID    bool

	requestCount int32
	rpcCount     int32
	imageCount   int32
	inFlight     int32
	maxInFlight  int32
}

// NewMockPlatform starts a fake platform serving albums
func NewMockPlatform(albums ...MockAlbum) *MockPlatform {
	m := &MockPlatform{
		albums:      albums,
		imageErrors: make(map[string]int),
		pageScript:  fmt.Sprintf(`Site.page = {"journal":"alice","auth_token":%q,"remote":null};`, DefaultAuthToken),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/ljuniq", m.handleAuth)
	mux.HandleFunc("/__api/", m.handleRPC)
	mux.HandleFunc("/images/", m.handleImage)
	mux.HandleFunc("/", m.handlePage)

	m.server = httptest.NewServer(mux)
	return m
}

// Close shuts the server down
func (m *MockPlatform) Close() {
	m.server.Close()
}

// URL returns the base URL of the server
func (m *MockPlatform) URL() string {
	return m.server.URL
}

// AuthURL returns the session handshake endpoint
func (m *MockPlatform) AuthURL() string {
	return m.server.URL + "/auth/ljuniq"
}

// APIURL returns the JSON-RPC endpoint
func (m *MockPlatform) APIURL() string {
	return m.server.URL + "/__api/"
}

// ImageURL returns the URL of image i of album id
func (m *MockPlatform) ImageURL(albumID, i int, ext string) string {
	return fmt.Sprintf("%s/images/%d/%d%s", m.server.URL, albumID, i, ext)
}

// Client returns an HTTP client that sends every host to the fake platform
func (m *MockPlatform) Client() *http.Client {
	target, _ := url.Parse(m.server.URL)
	return &http.Client{
		Transport: &RoutingTransport{Target: target, Base: http.DefaultTransport},
		Timeout:   10 * time.Second,
	}
}

// Config returns a configuration pointing at the fake platform
func (m *MockPlatform) Config(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Platform.AuthURL = m.AuthURL()
	cfg.Platform.APIURL = m.APIURL()
	cfg.Platform.UserAgent = "ljdl-test/1.0"
	cfg.Output.Directory = dir
	cfg.Output.Progress = false
	cfg.Output.Quiet = true
	cfg.Download.RequestTimeout = 10 * time.Second
	return cfg
}

// FailImage makes image i of album albumID answer with status
func (m *MockPlatform) FailImage(albumID, i int, ext string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imageErrors[fmt.Sprintf("/images/%d/%d%s", albumID, i, ext)] = status
}

// SetImageDelay slows every image response down
func (m *MockPlatform) SetImageDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imageDelay = d
}

// SetPageStatus makes journal pages answer with status
func (m *MockPlatform) SetPageStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageStatus = status
}

// SetPageScript replaces the inline script embedded in journal pages
func (m *MockPlatform) SetPageScript(script string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageScript = script
}

// OmitLJUniq makes the auth endpoint leave out the ljuniq value
func (m *MockPlatform) OmitLJUniq() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.omitLJUniq = true
}

// OmitLUID makes the auth endpoint leave out the luid cookie
func (m *MockPlatform) OmitLUID() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.omitLUID = true
}

// RequestCount returns the total number of requests served
func (m *MockPlatform) RequestCount() int {
	return int(atomic.LoadInt32(&m.requestCount))
}

// RPCCount returns the number of RPC calls served
func (m *MockPlatform) RPCCount() int {
	return int(atomic.LoadInt32(&m.rpcCount))
}

// ImageCount returns the number of image requests served
func (m *MockPlatform) ImageCount() int {
	return int(atomic.LoadInt32(&m.imageCount))
}

// MaxInFlight returns the highest number of concurrent image requests seen
func (m *MockPlatform) MaxInFlight() int {
	return int(atomic.LoadInt32(&m.maxInFlight))
}

func (m *MockPlatform) handleAuth(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)

	m.mu.RLock()
	omit, omitLUID := m.omitLJUniq, m.omitLUID
	m.mu.RUnlock()

	if !omitLUID {
		http.SetCookie(w, &http.Cookie{Name: "luid", Value: DefaultLUID, Path: "/"})
	}
	w.Header().Set("Content-Type", "application/json")

	body := map[string]string{"status": "ok"}
	if !omit {
		body["ljuniq"] = DefaultLJUniq
	}
	_ = json.NewEncoder(w).Encode(body)
}

func (m *MockPlatform) handlePage(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)

	m.mu.RLock()
	status, script := m.pageStatus, m.pageScript
	m.mu.RUnlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}

	if !hasCookie(r, "luid", DefaultLUID) || !hasCookie(r, "ljuniq", DefaultLJUniq) {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html><head>
<title>alice - Photos</title>
<script src="/static/app.js?auth_token=decoy"></script>
<script>var Site = window.Site || {};</script>
<script>
%s
</script>
</head><body><div id="photo">Photo albums</div></body></html>`, script)
}

type rpcCall struct {
	ID     int                    `json:"id"`
	Method string                 `json:"method"`
	Params map[string]interface{} `json:"params"`
}

func (m *MockPlatform) handleRPC(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	atomic.AddInt32(&m.rpcCount, 1)

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var batch []rpcCall
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil || len(batch) == 0 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	replies := make([]map[string]interface{}, 0, len(batch))
	for _, call := range batch {
		reply := map[string]interface{}{"jsonrpc": "2.0", "id": call.ID}
		if token, _ := call.Params["auth_token"].(string); token != DefaultAuthToken || !hasCookie(r, "luid", DefaultLUID) {
			reply["error"] = map[string]interface{}{"code": -32001, "message": "invalid auth token"}
		} else {
			switch call.Method {
			case "photo.get_albums":
				reply["result"] = map[string]interface{}{"albums": m.albumList()}
			case "photo.get_records":
				id, _ := call.Params["albumid"].(float64)
				reply["result"] = map[string]interface{}{"records": m.recordList(int(id))}
			default:
				reply["error"] = map[string]interface{}{"code": -32601, "message": "method not found"}
			}
		}
		replies = append(replies, reply)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(replies)
}

func (m *MockPlatform) albumList() []map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]map[string]interface{}, 0, len(m.albums))
	for _, a := range m.albums {
		list = append(list, map[string]interface{}{
			"id":         a.ID,
			"name":       a.Name,
			"count":      len(a.Images),
			"timecreate": 1500000000 + a.ID,
			"privacy":    0,
			"cover_url":  m.server.URL + "/covers/" + fmt.Sprint(a.ID),
		})
	}
	return list
}

func (m *MockPlatform) recordList(albumID int) []map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := []map[string]interface{}{}
	for _, a := range m.albums {
		if a.ID != albumID {
			continue
		}
		for i, img := range a.Images {
			records = append(records, map[string]interface{}{
				"index": i,
				"name":  img.Name,
				"url":   m.ImageURL(a.ID, i, img.Ext),
			})
		}
	}
	return records
}

func (m *MockPlatform) imageBody(path string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.albums {
		for i, img := range a.Images {
			if path == fmt.Sprintf("/images/%d/%d%s", a.ID, i, img.Ext) {
				if img.Body != nil {
					return img.Body, true
				}
				return []byte(fmt.Sprintf("image %d/%d", a.ID, i)), true
			}
		}
	}
	return nil, false
}

func (m *MockPlatform) handleImage(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	atomic.AddInt32(&m.imageCount, 1)

	current := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		max := atomic.LoadInt32(&m.maxInFlight)
		if current <= max || atomic.CompareAndSwapInt32(&m.maxInFlight, max, current) {
			break
		}
	}

	m.mu.RLock()
	delay := m.imageDelay
	status := m.imageErrors[r.URL.Path]
	m.mu.RUnlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if status != 0 {
		w.WriteHeader(status)
		return
	}

	body, ok := m.imageBody(r.URL.Path)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/"+strings.TrimPrefix(pathExt(r.URL.Path), "."))
	_, _ = w.Write(body)
}

func pathExt(p string) string {
	if i := strings.LastIndexByte(p, '.'); i >= 0 {
		return p[i:]
	}
	return ""
}

func hasCookie(r *http.Request, name, value string) bool {
	c, err := r.Cookie(name)
	return err == nil && c.Value == value
}

// RoutingTransport rewrites every request to the Target host
type RoutingTransport struct {
	Target *url.URL
	Base   http.RoundTripper
}

func (t *RoutingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.URL.Scheme = t.Target.Scheme
	clone.URL.Host = t.Target.Host
	clone.Host = t.Target.Host
	if req.Body != nil {
		clone.Body = req.Body
	}
	return t.Base.RoundTrip(clone)
}
