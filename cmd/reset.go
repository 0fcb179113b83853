package cmd

import (
	"github.com/spf13/cobra"

	"github.com/resetctl/resetctl/internal/message"
)

var fullReset bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the telemetry identifiers only",
	Long:  `It rewrites the telemetry identifiers of every configured product, keeping a timestamped backup of each state file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		proceed, err := confirm("Close the applications before resetting. Continue?")
		if err != nil {
			return err
		}
		if !proceed {
			message.Info("Nothing changed")
			return nil
		}
		return runSteps(cmd.Context(), "Resetting identifiers", toolkit.ResetSteps(fullReset))
	},
}

func init() {
	resetCmd.Flags().BoolVar(&fullReset, "full", true, "also reset the sqm id")
	rootCmd.AddCommand(resetCmd)
}
