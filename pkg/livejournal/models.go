package livejournal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// ID is an album identifier. The API sends numbers; strings are tolerated.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("album id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes numeric ids as numbers so they round-trip unchanged
func (id ID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseUint(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ID) String() string {
	return string(id)
}

// Album is an album summary stripped to the fields the downloader needs
type Album struct {
	ID         ID          `json:"id"`
	Name       string      `json:"name"`
	Count      int         `json:"count"`
	TimeCreate json.Number `json:"timecreate,omitempty"`
}

// RawRecord is an image record as returned by photo.get_records
type RawRecord struct {
	Index *int   `json:"index,omitempty"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}

// Record is a normalized image record ready for download
type Record struct {
	Filename string
	URL      string
}

// Session is the anonymous web session every RPC call needs
type Session struct {
	LUID      string
	LJUniq    string
	AuthToken string
}

// Valid reports whether the session carries both cookies and a token
func (s *Session) Valid() bool {
	return s != nil && s.LUID != "" && s.LJUniq != "" && s.AuthToken != ""
}

// Cookies returns the session cookies to attach to platform requests
func (s *Session) Cookies() []*http.Cookie {
	return []*http.Cookie{
		{Name: "luid", Value: s.LUID},
		{Name: "ljuniq", Value: s.LJUniq},
	}
}
