package jobregistry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Store persists the full job map as one JSON document, rewritten wholesale
// on every mutation.
//
// Writes go through a temp file and rename so a crash mid-write leaves the
// previous document intact. A corrupt or unreadable file degrades to an
// empty store; job history is valuable but never worth refusing to start
// over.
//
// Concurrent writers from multiple processes sharing one store file are an
// unsupported configuration: the whole-document rewrite is atomic within a
// process, not across them.
type Store struct {
	path   string
	logger *zap.Logger
}

// NewStore creates a store backed by the given file path. An empty path
// disables persistence; Load returns empty and Save is a no-op.
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load reads the persisted job map. Missing or corrupt files degrade to an
// empty map, never an error.
func (s *Store) Load() map[string]*JobRecord {
	jobs := make(map[string]*JobRecord)
	if s.path == "" {
		return jobs
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read job store, starting empty",
				zap.String("path", s.path),
				zap.Error(err))
		}
		return jobs
	}
	if err := json.Unmarshal(data, &jobs); err != nil {
		s.logger.Warn("job store is corrupt, starting empty",
			zap.String("path", s.path),
			zap.Error(err))
		return make(map[string]*JobRecord)
	}
	return jobs
}

// Save rewrites the full document atomically.
func (s *Store) Save(jobs map[string]*JobRecord) error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create job store dir: %w", err)
	}
	b, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal job store: %w", err)
	}
	b = append(b, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename store file: %w", err)
	}
	return nil
}
