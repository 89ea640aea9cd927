package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"ljdl/pkg/logger"
	"ljdl/pkg/storage"
)

// Store persists a manifest at a fixed path
type Store struct {
	path   string
	logger logger.Logger
}

// NewStore creates a store writing to path
func NewStore(path string, log logger.Logger) *Store {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Store{path: path, logger: log}
}

// Path returns the manifest file location
func (s *Store) Path() string {
	return s.path
}

// Save writes m as indented UTF-8 JSON, replacing any previous file atomically
func (s *Store) Save(m *Manifest) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := storage.WriteFileAtomic(s.path, buf.Bytes()); err != nil {
		return err
	}

	s.logger.DebugWithFields("Manifest saved", map[string]interface{}{
		"username": m.Username,
		"albums":   len(m.Albums),
		"images":   m.TotalImages(),
		"path":     s.path,
	})
	return nil
}

// Load reads the manifest back from disk
func (s *Store) Load() (*Manifest, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &m, nil
}

// Exists checks if a manifest file exists
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}
