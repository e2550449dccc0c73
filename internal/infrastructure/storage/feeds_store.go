package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"FeedConsolidator/internal/domain"
)

const (
	defaultMinRelevanceScore = 0.5
	defaultMaxPostsPerRun    = 10
	defaultHoursLookback     = 24
)

// LoadRegistry reads and validates the feed registry file. A malformed or
// missing registry is a configuration error: without it there is nothing to
// run against.
func LoadRegistry(path string) (domain.Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Registry{}, &domain.ConfigError{Path: path, Err: err}
	}

	var registry domain.Registry
	if err := json.Unmarshal(raw, &registry); err != nil {
		return domain.Registry{}, &domain.ConfigError{Path: path, Err: fmt.Errorf("parse json: %w", err)}
	}

	if err := ValidateRegistry(registry); err != nil {
		return domain.Registry{}, &domain.ConfigError{Path: path, Err: err}
	}

	applySettingsDefaults(&registry.Settings)
	return registry, nil
}

// SaveRegistry validates and rewrites the feed registry file.
func SaveRegistry(path string, registry domain.Registry) error {
	if err := ValidateRegistry(registry); err != nil {
		return &domain.ConfigError{Path: path, Err: err}
	}

	raw, err := json.MarshalIndent(registry, "", "  ")
	if err != nil {
		return &domain.StateError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return &domain.StateError{Path: path, Err: err}
	}
	return nil
}

// ValidateRegistry enforces the registry shape: every feed needs an id, a
// name, and a url.
func ValidateRegistry(registry domain.Registry) error {
	if registry.Feeds == nil {
		return fmt.Errorf("missing feeds array")
	}

	seen := make(map[string]struct{}, len(registry.Feeds))
	for i, feed := range registry.Feeds {
		if feed.ID == "" {
			return fmt.Errorf("feed %d: missing required field: id", i)
		}
		if feed.Name == "" {
			return fmt.Errorf("feed %d: missing required field: name", i)
		}
		if feed.URL == "" {
			return fmt.Errorf("feed %d: missing required field: url", i)
		}
		if _, dup := seen[feed.ID]; dup {
			return fmt.Errorf("feed %d: duplicate id %s", i, feed.ID)
		}
		seen[feed.ID] = struct{}{}
	}
	return nil
}

func applySettingsDefaults(settings *domain.PipelineSettings) {
	if settings.MinRelevanceScore <= 0 {
		settings.MinRelevanceScore = defaultMinRelevanceScore
	}
	if settings.MaxPostsPerRun <= 0 {
		settings.MaxPostsPerRun = defaultMaxPostsPerRun
	}
	if settings.HoursLookback <= 0 {
		settings.HoursLookback = defaultHoursLookback
	}
}
