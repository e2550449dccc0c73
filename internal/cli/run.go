package cli

import (
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, filter, and auto-publish new feed items",
	Long: `Polls every enabled feed, scores new items against the feed's keywords,
drops duplicates and out-of-window items, posts the top candidates to the
configured Slack channel, and rewrites the tracking state.

Individual feed or delivery failures are logged and skipped; the run only
fails on configuration or state errors.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return application.RunAuto(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
