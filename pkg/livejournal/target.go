package livejournal

import (
	"net/url"
	"regexp"
	"strings"

	"ljdl/pkg/errors"
)

// Mode tells whether a run targets one album or all of a user's albums
type Mode int

const (
	ModeAll Mode = iota
	ModeSingle
)

func (m Mode) String() string {
	if m == ModeSingle {
		return "single"
	}
	return "all"
}

// Target is the classified download target. It is immutable once parsed.
type Target struct {
	URL      string
	Scheme   string
	Host     string
	Username string
	AlbumID  ID
	Mode     Mode
}

var (
	albumPathPattern = regexp.MustCompile(`/photo/album/(\d+)/?$`)
	userLabelPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)
)

// ParseTarget validates raw as a journal or album URL under domain.
// An empty domain means DefaultDomain.
func ParseTarget(raw, domain string) (*Target, error) {
	if domain == "" {
		domain = DefaultDomain
	}
	domain = strings.ToLower(domain)

	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeInvalidURL, err, "cannot parse %q", raw)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.InvalidURL("%q is not an absolute URL", raw)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, errors.InvalidURL("unsupported scheme %q", u.Scheme)
	}

	if u.Port() != "" {
		return nil, errors.InvalidURL("unexpected port in %q", raw)
	}
	host := strings.ToLower(u.Hostname())
	suffix := "." + domain
	if !strings.HasSuffix(host, suffix) {
		return nil, errors.InvalidURL("host %q is not a %s journal", host, domain)
	}

	username := strings.TrimSuffix(host, suffix)
	if !userLabelPattern.MatchString(username) {
		return nil, errors.InvalidURL("host %q is not a %s journal", host, domain)
	}
	if username == "www" {
		return nil, errors.InvalidURL("%q is the platform site, not a user journal", host)
	}

	t := &Target{
		URL:      raw,
		Scheme:   scheme,
		Host:     host,
		Username: username,
		Mode:     ModeAll,
	}
	if m := albumPathPattern.FindStringSubmatch(u.Path); m != nil {
		t.Mode = ModeSingle
		t.AlbumID = ID(strings.TrimLeft(m[1], "0"))
		if t.AlbumID == "" {
			t.AlbumID = "0"
		}
	}

	return t, nil
}

// Origin returns scheme://host of the journal
func (t *Target) Origin() string {
	return t.Scheme + "://" + t.Host
}

// Single reports whether only one album is requested
func (t *Target) Single() bool {
	return t.Mode == ModeSingle
}
