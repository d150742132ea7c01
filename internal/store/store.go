// internal/store/store.go
package store

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/everion-labs/insight-pipeline/internal/insight"
)

const fileMode = 0o644

// Store persists insights as one flat JSON array per source, indented
// and human-readable. Writes are best-effort read-modify-write cycles
// with no cross-process locking: concurrent writers to the same file
// can lose updates at file-write granularity, an accepted limitation
// of the deployment model.
type Store struct {
	path   string
	logger *zap.Logger
}

// New creates a store over the JSON file at path.
func New(path string, logger *zap.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger.Named("store").With(zap.String("file", path)),
	}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Ensure creates the backing file with an empty array when it is
// missing, and resets it when its contents are not a JSON array.
func (s *Store) Ensure() error {
	raw, err := os.ReadFile(s.path)
	if err == nil {
		var items []*insight.Insight
		if json.Unmarshal(raw, &items) == nil {
			return nil
		}
		s.logger.Warn("Insight file malformed, resetting to empty array")
	} else if !os.IsNotExist(err) {
		s.logger.Warn("Insight file unreadable, resetting to empty array", zap.Error(err))
	}
	return s.write(nil)
}

// LoadAll returns the file's records in stored order. A missing,
// unreadable, or malformed file yields an empty sequence, never an
// error: malformed persisted state self-heals on the next write.
func (s *Store) LoadAll() []*insight.Insight {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to read insight file", zap.Error(err))
		}
		return nil
	}

	var items []*insight.Insight
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.Warn("Insight file contains invalid JSON, treating as empty", zap.Error(err))
		return nil
	}
	return items
}

// Append inserts the insight at the head of the array, newest first.
// A record whose natural key already exists is skipped silently; the
// write itself is the only failure that surfaces.
func (s *Store) Append(in *insight.Insight) error {
	items := s.LoadAll()

	key := in.NaturalKey()
	for _, existing := range items {
		if existing.NaturalKey() == key {
			s.logger.Debug("Duplicate insight skipped", zap.String("key", key))
			return nil
		}
	}

	items = append([]*insight.Insight{in}, items...)
	if err := s.write(items); err != nil {
		return err
	}

	s.logger.Info("Insight saved",
		zap.String("key", key),
		zap.Int("total", len(items)))
	return nil
}

// DeleteByKey removes every record matching key by contract identifier
// or message id and reports how many were removed.
func (s *Store) DeleteByKey(key string) (int, error) {
	items := s.LoadAll()

	kept := items[:0]
	for _, in := range items {
		if !in.MatchesKey(key) {
			kept = append(kept, in)
		}
	}

	removed := len(items) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	if err := s.write(kept); err != nil {
		return 0, err
	}

	s.logger.Info("Insights deleted",
		zap.String("key", key),
		zap.Int("removed", removed))
	return removed, nil
}

func (s *Store) write(items []*insight.Insight) error {
	if items == nil {
		items = []*insight.Insight{}
	}
	data, err := json.MarshalIndent(items, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal insights: %w", err)
	}
	if err := os.WriteFile(s.path, data, fileMode); err != nil {
		return fmt.Errorf("write insight file: %w", err)
	}
	return nil
}
