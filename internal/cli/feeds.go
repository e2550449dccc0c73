package cli

import (
	"github.com/spf13/cobra"
)

var feedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "Manage the feed registry",
}

var feedsUpdateCmd = &cobra.Command{
	Use:   "update <feeds-json>",
	Short: "Validate and rewrite the feed registry",
	Long: `Replaces feeds.json with the given document after validating it: every
feed entry needs an id, a name, and a url.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return application.UpdateFeeds(cmd.Context(), args[0])
	},
}

func init() {
	feedsCmd.AddCommand(feedsUpdateCmd)
	rootCmd.AddCommand(feedsCmd)
}
