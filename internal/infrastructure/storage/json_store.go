package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"FeedConsolidator/internal/domain"
	"FeedConsolidator/internal/ports"
)

const (
	trackingFile  = "tracking.json"
	articlesFile  = "articles.json"
	publishedFile = "published.json"
	settingsFile  = "settings.json"
)

// JSONStore persists all run state as indented JSON files under a data
// directory. The files double as the external interface of the review UI, so
// their shapes are part of the contract. Each file is read once at the start
// of an operation and rewritten once at the end.
type JSONStore struct {
	dataDir string
}

var (
	_ ports.TrackingStore = (*JSONStore)(nil)
	_ ports.ReviewStore   = (*JSONStore)(nil)
)

// NewJSONStore roots the store at dataDir. The directory is created lazily on
// first write.
func NewJSONStore(dataDir string) *JSONStore {
	return &JSONStore{dataDir: dataDir}
}

// LoadTracking reads the delivery record; a missing file yields an empty one.
func (s *JSONStore) LoadTracking(_ context.Context) (domain.Tracking, error) {
	var tracking domain.Tracking
	if err := s.read(trackingFile, &tracking); err != nil {
		return domain.Tracking{}, err
	}
	return tracking, nil
}

// SaveTracking rewrites the delivery record, trimming the id list to its cap.
func (s *JSONStore) SaveTracking(_ context.Context, tracking domain.Tracking) error {
	tracking.Trim()
	return s.write(trackingFile, tracking)
}

// Close is a no-op for the file-backed store.
func (s *JSONStore) Close() error { return nil }

// LoadArticles reads the curated-mode article snapshot.
func (s *JSONStore) LoadArticles(_ context.Context) (domain.ArticleSet, error) {
	var set domain.ArticleSet
	if err := s.read(articlesFile, &set); err != nil {
		return domain.ArticleSet{}, err
	}
	return set, nil
}

// SaveArticles rewrites the curated-mode article snapshot.
func (s *JSONStore) SaveArticles(_ context.Context, set domain.ArticleSet) error {
	return s.write(articlesFile, set)
}

// LoadPublished reads the curated delivery record.
func (s *JSONStore) LoadPublished(_ context.Context) (domain.Published, error) {
	var published domain.Published
	if err := s.read(publishedFile, &published); err != nil {
		return domain.Published{}, err
	}
	return published, nil
}

// SavePublished rewrites the curated delivery record.
func (s *JSONStore) SavePublished(_ context.Context, published domain.Published) error {
	return s.write(publishedFile, published)
}

// LoadReviewSettings reads the review-surface settings.
func (s *JSONStore) LoadReviewSettings(_ context.Context) (domain.ReviewSettings, error) {
	var settings domain.ReviewSettings
	if err := s.read(settingsFile, &settings); err != nil {
		return domain.ReviewSettings{}, err
	}
	return settings, nil
}

// SaveReviewSettings rewrites the review-surface settings.
func (s *JSONStore) SaveReviewSettings(_ context.Context, settings domain.ReviewSettings) error {
	return s.write(settingsFile, settings)
}

func (s *JSONStore) read(name string, v any) error {
	path := filepath.Join(s.dataDir, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &domain.StateError{Path: path, Err: err}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &domain.StateError{Path: path, Err: fmt.Errorf("parse json: %w", err)}
	}
	return nil
}

func (s *JSONStore) write(name string, v any) error {
	path := filepath.Join(s.dataDir, name)
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return &domain.StateError{Path: path, Err: err}
	}

	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &domain.StateError{Path: path, Err: err}
	}

	// Write through a temp file so a crash mid-write cannot leave a truncated
	// state file behind.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(raw, '\n'), 0o644); err != nil {
		return &domain.StateError{Path: path, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &domain.StateError{Path: path, Err: err}
	}
	return nil
}
