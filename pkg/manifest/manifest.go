package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"ljdl/pkg/livejournal"
)

// Manifest is the job list of one run: every album to download with its records
type Manifest struct {
	Username  string    `json:"username"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	Albums    []*Album  `json:"albums"`
}

// Album is an album summary with its ordered records and, once the
// download starts, the folder it is saved to
type Album struct {
	ID           livejournal.ID `json:"id"`
	Name         string         `json:"name"`
	Count        int            `json:"count"`
	TimeCreate   json.Number    `json:"timecreate,omitempty"`
	Records      RecordSet      `json:"records"`
	DownloadPath string         `json:"download_path,omitempty"`
}

// New creates an empty manifest for username
func New(username, source string) *Manifest {
	return &Manifest{
		Username:  username,
		Source:    source,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Albums:    []*Album{},
	}
}

// AddAlbum appends album with its records. Records whose filename is
// already present are rejected.
func (m *Manifest) AddAlbum(summary livejournal.Album, records []livejournal.Record) (*Album, error) {
	album := &Album{
		ID:         summary.ID,
		Name:       summary.Name,
		Count:      summary.Count,
		TimeCreate: summary.TimeCreate,
	}
	for _, r := range records {
		if !album.Records.Add(r.Filename, r.URL) {
			return nil, fmt.Errorf("album %s: duplicate filename %q", summary.ID, r.Filename)
		}
	}
	m.Albums = append(m.Albums, album)
	return album, nil
}

// TotalImages returns the number of records across all albums
func (m *Manifest) TotalImages() int {
	total := 0
	for _, a := range m.Albums {
		total += a.Records.Len()
	}
	return total
}

// RecordSet maps filenames to URLs and keeps insertion order, which is
// also the order used in its JSON object form
type RecordSet struct {
	order []string
	urls  map[string]string
}

// Add inserts filename unless it is already present
func (s *RecordSet) Add(filename, url string) bool {
	if s.urls == nil {
		s.urls = make(map[string]string)
	}
	if _, exists := s.urls[filename]; exists {
		return false
	}
	s.order = append(s.order, filename)
	s.urls[filename] = url
	return true
}

// Len returns the number of records
func (s *RecordSet) Len() int {
	return len(s.order)
}

// URL returns the source URL of filename
func (s *RecordSet) URL(filename string) (string, bool) {
	url, ok := s.urls[filename]
	return url, ok
}

// Records returns the records in insertion order
func (s *RecordSet) Records() []livejournal.Record {
	records := make([]livejournal.Record, 0, len(s.order))
	for _, name := range s.order {
		records = append(records, livejournal.Record{Filename: name, URL: s.urls[name]})
	}
	return records
}

func (s RecordSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeString(&buf, s.urls[name]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *RecordSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("records: expected object, got %v", tok)
	}

	*s = RecordSet{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var url string
		if err := dec.Decode(&url); err != nil {
			return fmt.Errorf("records: value of %q: %w", key, err)
		}
		if !s.Add(key, url) {
			return fmt.Errorf("records: duplicate filename %q", key)
		}
	}

	_, err = dec.Token()
	return err
}

// writeString encodes s as a JSON string without HTML escaping
func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode appends a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}
