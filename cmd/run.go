package cmd

import (
	"fmt"

	"github.com/gnzdotmx/smartscenecutter/internal/utils"
	"github.com/gnzdotmx/smartscenecutter/internal/validator"
	"github.com/gnzdotmx/smartscenecutter/pkg/workflow"

	"github.com/spf13/cobra"
)

var (
	workflowFilePath string
	retryFlag        bool
	outputFolderPath string
	outputOverride   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a batch job file",
	Long:  `Resolve and export every job of a batch file defined in YAML.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		wf, err := workflow.LoadFromFile(workflowFilePath)
		if err != nil {
			return fmt.Errorf("failed to load workflow: %w", err)
		}
		if outputOverride != "" {
			wf.Output = outputOverride
		}

		needsTools, needsCredentials := false, false
		for _, j := range wf.Jobs {
			// script-only jobs still probe the video unless its duration is known
			needsTools = needsTools || !j.ScriptOnly || (j.Clips == "" && j.Duration == 0)
			needsCredentials = needsCredentials || j.Prompt != ""
		}
		if needsTools {
			if err := validator.ValidateExternalTools(validator.RequiredTools(cfg.FFmpegPath)); err != nil {
				return fmt.Errorf("dependency validation failed: %w", err)
			}
		}
		if needsCredentials {
			if err := validator.ValidateCredentials(cfg); err != nil {
				return err
			}
		}

		env := newJobEnvironment(cfg)
		if retryFlag {
			if outputFolderPath == "" {
				return fmt.Errorf("output folder path is required when using retry flag")
			}
			if _, err := wf.ExecuteRetry(cmd.Context(), env, outputFolderPath); err != nil {
				return fmt.Errorf("workflow retry execution failed: %w", err)
			}
		} else {
			state, err := wf.Execute(cmd.Context(), env)
			if err != nil {
				if state != nil {
					utils.LogInfo("Retry with: --retry --output-folder %s", state.Dir)
				}
				return fmt.Errorf("workflow execution failed: %w", err)
			}
		}

		utils.LogInfo("Workflow completed successfully")
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&workflowFilePath, "workflow", "w", "", "Path to workflow YAML file (required)")
	runCmd.Flags().BoolVarP(&retryFlag, "retry", "r", false, "Retry the unfinished jobs of a failed run")
	runCmd.Flags().StringVarP(&outputFolderPath, "output-folder", "f", "", "Run folder of the failed run (required with --retry)")
	runCmd.Flags().StringVarP(&outputOverride, "output", "o", "", "Output root (overrides the one in the workflow file)")
	_ = runCmd.MarkFlagRequired("workflow")
	rootCmd.AddCommand(runCmd)
}
