package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/resetctl/resetctl/internal/message"
)

var silentMode bool
var verboseMode bool
var noEmoji bool
var noColor bool
var nonInteractive bool
var configPath string

var rootCmd = &cobra.Command{
	Use:   "resetctl",
	Short: "Reset the telemetry identity of Cursor and reinstall it",
	Long: `It closes the application, resets the telemetry identifiers in its state files,
uninstalls it, removes temporary files, installs the latest release and resets
the identifiers once more after a first launch.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		message.SetSilentMode(silentMode)
		message.SetVerboseMode(verboseMode)
		message.SetEmojiMode(!noEmoji)
		message.SetColorMode(!noColor)

		if err := loadToolkit(cmd.Flags().Changed("config")); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		proceed, err := confirm("The application will be closed, uninstalled and reinstalled. Continue?")
		if err != nil {
			return err
		}
		if !proceed {
			message.Info("Nothing changed")
			return nil
		}
		return runSteps(cmd.Context(), "Resetting and reinstalling", toolkit.Steps())
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		message.Error("failed to execute command: %v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&silentMode, "silent", false, "silent mode (hides everything except prompt/failure messages)")
	rootCmd.PersistentFlags().BoolVar(&verboseMode, "verbose", false, "verbose output (show everything, overrides silent mode)")
	rootCmd.PersistentFlags().BoolVar(&noEmoji, "no-emoji", false, "disable emojis")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colors and emojis")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "never prompt, skip steps that need an operator")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is $HOME/.resetctl.yaml)")
}
