package cli

import (
	"github.com/spf13/cobra"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "DM the reviewer about unpublished articles",
	Long: `Counts unpublished articles from the last 24 hours and sends the
configured reviewer a direct message with a link to the review page.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return application.SendReminder(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(remindCmd)
}
