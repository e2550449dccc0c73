// Package cli contains the feedconsolidator command tree.
package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"FeedConsolidator/internal/app"
	"FeedConsolidator/internal/config"
	"FeedConsolidator/internal/domain"
	"FeedConsolidator/internal/logging"
)

var (
	logger      *slog.Logger
	application *app.Application
)

var rootCmd = &cobra.Command{
	Use:   "feedconsolidator",
	Short: "RSS-to-Slack content consolidator",
	Long: `feedconsolidator polls RSS/Atom feeds, scores items against per-feed
keyword lists, deduplicates against previously posted items, and forwards
qualifying items to Slack.

Each command is a single batch execution intended to be triggered by an
external scheduler:

  feedconsolidator run                   # auto-publish pipeline
  feedconsolidator fetch                 # collect articles for review
  feedconsolidator publish '<ids-json>'  # publish the selected articles
  feedconsolidator remind                # remind the reviewer
  feedconsolidator feeds update '<json>' # rewrite the feed registry
  feedconsolidator settings update '<json>'`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
		application = app.New(cfg, logger)
		return nil
	},
}

// Execute runs the command tree. Per-feed and per-item failures are handled
// at their boundaries and never reach this point; an error here is fatal
// (configuration, state I/O, or a failed curated delivery) and exits nonzero.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && logger != nil {
		var configErr *domain.ConfigError
		var stateErr *domain.StateError
		switch {
		case errors.As(err, &configErr):
			logger.Error("configuration error", "error", err)
		case errors.As(err, &stateErr):
			logger.Error("state error", "error", err)
		default:
			logger.Error("command failed", "error", err)
		}
	}
	return err
}
