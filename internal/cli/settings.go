package cli

import (
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage the review settings",
}

var settingsUpdateCmd = &cobra.Command{
	Use:   "update <settings-json>",
	Short: "Validate and rewrite the review settings",
	Long: `Replaces data/settings.json with the given document after validating it.
When the reminder time or timezone changed, the scheduler workflow's cron
line is rewritten to match.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return application.UpdateSettings(cmd.Context(), args[0])
	},
}

func init() {
	settingsCmd.AddCommand(settingsUpdateCmd)
	rootCmd.AddCommand(settingsCmd)
}
