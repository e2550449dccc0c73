package cli

import (
	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish <article-ids-json>",
	Short: "Publish the selected articles as one digest",
	Long: `Takes a JSON array of article ids (as shown on the review page), formats
them into a single templated digest message, posts it to the news channel,
and records the ids as published.

Example:
  feedconsolidator publish '["b3a1…","9f2c…"]'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return application.PublishSelected(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)
}
