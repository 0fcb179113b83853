package cmd

import (
	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove temporary files",
	Long:  `It removes the contents of the temporary directory. Files in use are reported and left in place.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSteps(cmd.Context(), "Cleaning temporary files", toolkit.CleanSteps())
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
