package livejournal

import (
	"net/url"
	"path"
	"strconv"
	"strings"
	"unicode"
)

// IndexSeparator joins a record index and its name
const IndexSeparator = "__"

var knownExtensions = []string{".jpg", ".jpeg", ".gif", ".png"}

// NormalizeName canonicalizes a record name against its source URL:
// an all-uppercase extension is lowercased, a name without a known image
// extension gets the URL's extension appended, .jpeg becomes .jpg, and
// spaces and path separators become underscores. It is idempotent.
func NormalizeName(name, rawURL string) string {
	if ext := extension(name); ext != "" && isUpper(ext) {
		name = strings.TrimSuffix(name, ext) + strings.ToLower(ext)
	}

	if ext := urlExtension(rawURL); !hasKnownExtension(name) && !strings.HasSuffix(name, ext) {
		name += ext
	}

	if strings.HasSuffix(name, ".jpeg") {
		name = strings.TrimSuffix(name, ".jpeg") + ".jpg"
	}

	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\':
			return '_'
		}
		return r
	}, name)
}

// FormatFilename prefixes a normalized name with its index
func FormatFilename(index int, name string) string {
	return strconv.Itoa(index) + IndexSeparator + name
}

// StripIndex removes the index prefix added by FormatFilename
func StripIndex(filename string) string {
	if _, name, ok := strings.Cut(filename, IndexSeparator); ok {
		return name
	}
	return filename
}

// NormalizeRecords turns raw records into uniquely named records. Each
// name is prefixed with the record's own index; when indexes are missing
// or produce duplicate names, positional indexes are used for the whole
// album instead.
func NormalizeRecords(raw []RawRecord) []Record {
	names := make([]string, len(raw))
	for i, r := range raw {
		names[i] = NormalizeName(r.Name, r.URL)
	}

	build := func(useOwnIndex bool) ([]Record, bool) {
		records := make([]Record, len(raw))
		seen := make(map[string]struct{}, len(raw))
		for i, r := range raw {
			index := i
			if useOwnIndex {
				if r.Index == nil {
					return nil, false
				}
				index = *r.Index
			}
			filename := FormatFilename(index, names[i])
			if _, dup := seen[filename]; dup {
				return nil, false
			}
			seen[filename] = struct{}{}
			records[i] = Record{Filename: filename, URL: r.URL}
		}
		return records, true
	}

	if records, ok := build(true); ok {
		return records
	}
	records, _ := build(false)
	return records
}

func hasKnownExtension(name string) bool {
	for _, ext := range knownExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// extension returns the final dot suffix of name, ignoring a leading dot
func extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return name[i:]
}

// urlExtension returns the lowercased extension of the URL path
func urlExtension(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	return strings.ToLower(extension(path.Base(p)))
}

func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}
