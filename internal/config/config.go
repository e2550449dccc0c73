package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"FeedConsolidator/internal/domain"
)

const (
	configPathEnv   = "FEED_CONSOLIDATOR_CONFIG"
	slackTokenEnv   = "SLACK_BOT_TOKEN"
	slackChannelEnv = "SLACK_CHANNEL_ID"
	slackUserEnv    = "SLACK_USER_ID"
	dataDirEnv      = "FEED_CONSOLIDATOR_DATA_DIR"
	feedsPathEnv    = "FEED_CONSOLIDATOR_FEEDS"
)

// Config holds runtime settings shared across commands. Domain data (the feed
// registry and the data/ state files) lives in JSON files addressed by the
// Storage section, not here.
type Config struct {
	Slack   SlackConfig   `yaml:"slack"`
	Storage StorageConfig `yaml:"storage"`
	HTTP    HTTPConfig    `yaml:"http"`
	Logging LoggingConfig `yaml:"logging"`
}

// SlackConfig wires the chat-platform credentials and endpoint.
type SlackConfig struct {
	APIBaseURL string `yaml:"apiBaseUrl"`
	BotToken   string `yaml:"botToken"`
	ChannelID  string `yaml:"channelId"`
	UserID     string `yaml:"userId"`
}

// StorageConfig selects the tracking backend and locates the state files.
type StorageConfig struct {
	Backend      string `yaml:"backend"`
	DataDir      string `yaml:"dataDir"`
	FeedsPath    string `yaml:"feedsPath"`
	SQLitePath   string `yaml:"sqlitePath"`
	WorkflowPath string `yaml:"workflowPath"`
}

// HTTPConfig tunes outbound requests.
type HTTPConfig struct {
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	UserAgent      string `yaml:"userAgent"`
}

// Timeout resolves the configured timeout with a sane floor.
func (h HTTPConfig) Timeout() time.Duration {
	if h.TimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides. A missing file falls back to defaults; a malformed one is a
// configuration error and aborts the run.
func Load() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, &domain.ConfigError{Path: path, Err: err}
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, &domain.ConfigError{Path: path, Err: fmt.Errorf("parse yaml: %w", err)}
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(slackTokenEnv); v != "" {
		c.Slack.BotToken = v
	}
	if v := os.Getenv(slackChannelEnv); v != "" {
		c.Slack.ChannelID = v
	}
	if v := os.Getenv(slackUserEnv); v != "" {
		c.Slack.UserID = v
	}
	if v := os.Getenv(dataDirEnv); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv(feedsPathEnv); v != "" {
		c.Storage.FeedsPath = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Slack.APIBaseURL != "" {
		base.Slack.APIBaseURL = override.Slack.APIBaseURL
	}
	if override.Slack.BotToken != "" {
		base.Slack.BotToken = override.Slack.BotToken
	}
	if override.Slack.ChannelID != "" {
		base.Slack.ChannelID = override.Slack.ChannelID
	}
	if override.Slack.UserID != "" {
		base.Slack.UserID = override.Slack.UserID
	}

	if override.Storage.Backend != "" {
		base.Storage.Backend = override.Storage.Backend
	}
	if override.Storage.DataDir != "" {
		base.Storage.DataDir = override.Storage.DataDir
	}
	if override.Storage.FeedsPath != "" {
		base.Storage.FeedsPath = override.Storage.FeedsPath
	}
	if override.Storage.SQLitePath != "" {
		base.Storage.SQLitePath = override.Storage.SQLitePath
	}
	if override.Storage.WorkflowPath != "" {
		base.Storage.WorkflowPath = override.Storage.WorkflowPath
	}

	if override.HTTP.TimeoutSeconds > 0 {
		base.HTTP.TimeoutSeconds = override.HTTP.TimeoutSeconds
	}
	if override.HTTP.UserAgent != "" {
		base.HTTP.UserAgent = override.HTTP.UserAgent
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Slack: SlackConfig{
			APIBaseURL: "https://slack.com/api",
		},
		Storage: StorageConfig{
			Backend:      "json",
			DataDir:      "data",
			FeedsPath:    "feeds.json",
			SQLitePath:   "data/tracking.db",
			WorkflowPath: ".github/workflows/send-reminder.yml",
		},
		HTTP: HTTPConfig{
			TimeoutSeconds: 20,
			UserAgent:      "FeedConsolidator/1.0",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
