package cmd

import (
	"fmt"

	"github.com/gnzdotmx/smartscenecutter/internal/utils"
	"github.com/gnzdotmx/smartscenecutter/internal/validator"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate environment setup",
	Long:  `Check if all required external tools and configurations are properly set up.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		utils.LogInfo("Validating environment...")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		utils.LogSuccess("Configuration: OK (provider %s, model %s)", cfg.Provider, cfg.Model)

		// Validate external tools (ffmpeg, ffprobe)
		if err := validator.ValidateExternalTools(validator.RequiredTools(cfg.FFmpegPath)); err != nil {
			return fmt.Errorf("external tools validation failed: %w", err)
		}
		utils.LogSuccess("External tools: OK")

		if err := validator.ValidateCredentials(cfg); err != nil {
			return fmt.Errorf("credential validation failed: %w", err)
		}
		utils.LogSuccess("Credentials: OK")

		utils.LogSuccess("Environment validation completed successfully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
