package cli

import (
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Collect the last week of articles for review",
	Long: `Fetches every enabled feed and writes the last seven days of articles to
the shared snapshot the review page reads. Articles already in the snapshot
keep their ids.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return application.FetchArticles(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
