package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/gnzdotmx/smartscenecutter/internal/utils"
	"github.com/spf13/cobra"
)

var (
	// verbosityLevel is the command-line flag for setting the log level
	verbosityLevel string
	// configPath points at an optional YAML config file
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "smartscenecutter",
	Short: "Cut video clips described in plain language",
	Long: `SmartSceneCutter turns a plain-language request such as
"cut 2:00-4:30 and any fight scenes" into validated clip ranges,
then exports them with ffmpeg or writes equivalent shell scripts.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Set the global log level based on the flag
		logLevel := utils.LogLevelFromString(verbosityLevel)
		utils.SetLogLevel(logLevel)
	},
}

// Execute runs the root command. An interrupt cancels the running job after
// its current ffmpeg invocation.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Initialize global flags
	rootCmd.PersistentFlags().StringVarP(&verbosityLevel, "log-level", "l", "normal",
		"Set the logging verbosity level: quiet, normal, verbose, debug")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to a YAML config file (default ./smartscenecutter.yaml if present)")
}
