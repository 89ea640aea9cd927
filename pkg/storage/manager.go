package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ljdl/pkg/errors"
)

// Manager owns the destination directory and every write into it
type Manager struct {
	root   string
	prefix string

	mu      sync.Mutex
	files   int
	written int64
}

// NewManager validates root as the destination directory, creating it if
// needed. An empty root means the current working directory.
func NewManager(root, prefix string) (*Manager, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Filesystem(err, "cannot determine current directory")
		}
		root = wd
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Filesystem(err, "invalid destination %q", root)
	}

	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, errors.Filesystem(err, "destination %s cannot be created", abs)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.Filesystem(err, "destination %s is not accessible", abs)
	}
	if !info.IsDir() {
		return nil, errors.Filesystem(nil, "destination %s is not a folder", abs)
	}

	if err := checkWritable(abs); err != nil {
		return nil, errors.Filesystem(err, "destination %s is not writable", abs)
	}

	return &Manager{root: abs, prefix: prefix}, nil
}

// checkWritable creates and removes a probe file in dir
func checkWritable(dir string) error {
	probe, err := os.CreateTemp(dir, ".ljdl-probe-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}

// Root returns the absolute destination directory
func (m *Manager) Root() string {
	return m.root
}

// AlbumDirName returns <prefix>_<username>_<id>__<name> with spaces and path separators replaced
func (m *Manager) AlbumDirName(username, albumID, albumName string) string {
	return fmt.Sprintf("%s_%s_%s__%s", m.prefix, username, albumID, SanitizeName(albumName))
}

// EnsureAlbumDir creates the album directory if missing and returns its path
func (m *Manager) EnsureAlbumDir(username, albumID, albumName string) (string, error) {
	dir := filepath.Join(m.root, m.AlbumDirName(username, albumID, albumName))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Filesystem(err, "cannot create album folder %s", dir)
	}
	return dir, nil
}

// ManifestPath returns where the job list of username is persisted
func (m *Manager) ManifestPath(username string) string {
	return filepath.Join(m.root, fmt.Sprintf("%s_%s_job_list.json", m.prefix, username))
}

// Save streams r into path atomically and returns the number of bytes written
func (m *Manager) Save(path string, r io.Reader) (int64, error) {
	n, err := writeAtomic(path, r)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	m.files++
	m.written += n
	m.mu.Unlock()

	return n, nil
}

// Stats returns how many files and bytes were saved so far
func (m *Manager) Stats() (int, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.files, m.written
}

// WriteFileAtomic writes data to path through a temporary file and rename
func WriteFileAtomic(path string, data []byte) error {
	_, err := writeAtomic(path, bytes.NewReader(data))
	return err
}

func writeAtomic(path string, r io.Reader) (int64, error) {
	dir := filepath.Dir(path)
	out, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, errors.Filesystem(err, "failed to create temporary file in %s", dir)
	}
	tempFile := out.Name()

	src := &sourceReader{r: r}
	n, err := io.Copy(out, src)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		if src.err != nil {
			return 0, errors.Wrap(errors.ErrorTypeNetwork, err, "failed to read data for %s", filepath.Base(path))
		}
		return 0, errors.Filesystem(err, "failed to write %s", filepath.Base(path))
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return 0, errors.Filesystem(closeErr, "failed to close %s", tempFile)
	}

	if err := os.Chmod(tempFile, 0644); err != nil {
		os.Remove(tempFile)
		return 0, errors.Filesystem(err, "failed to set permissions on %s", tempFile)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return 0, errors.Filesystem(err, "failed to move %s into place", filepath.Base(path))
	}

	return n, nil
}

// sourceReader remembers read failures so they are not blamed on the disk
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		s.err = err
	}
	return n, err
}

// SanitizeName replaces spaces and path separators with underscores
func SanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\':
			return '_'
		}
		return r
	}, name)
}
