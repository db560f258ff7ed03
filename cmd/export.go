package cmd

import (
	"fmt"

	"github.com/gnzdotmx/smartscenecutter/internal/config"
	"github.com/gnzdotmx/smartscenecutter/internal/utils"
	"github.com/gnzdotmx/smartscenecutter/internal/validator"
	"github.com/gnzdotmx/smartscenecutter/pkg/workflow"

	"github.com/spf13/cobra"
)

var (
	exportInput      string
	exportClips      string
	exportPrompt     string
	exportMode       string
	exportOutput     string
	exportScriptOnly bool
	exportDialects   []string
	exportDuration   float64
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Cut the selected clips out of a video",
	Long: `Export clips from a clip file (--clips) or resolve them from a prompt
(-p) first. Clips are written as separate files or merged into one, or
only turned into ffmpeg scripts with --script-only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if exportOutput == "" {
			exportOutput = cfg.OutputDir
		}

		in, err := config.NewInputConfig(exportInput, exportClips, exportOutput, exportScriptOnly)
		if err != nil {
			return err
		}

		job := workflow.Job{
			Input:      in.VideoPath,
			Prompt:     exportPrompt,
			Clips:      in.ClipsPath,
			Duration:   exportDuration,
			Mode:       exportMode,
			Scripts:    exportDialects,
			ScriptOnly: in.ScriptOnly,
		}
		if err := job.Validate(); err != nil {
			return &utils.ValidationError{Field: "job", Message: err.Error(), Err: err}
		}

		if !job.ScriptOnly {
			if err := validator.ValidateExternalTools(validator.RequiredTools(cfg.FFmpegPath)); err != nil {
				return fmt.Errorf("dependency validation failed: %w", err)
			}
		}
		if job.Prompt != "" {
			if err := validator.ValidateCredentials(cfg); err != nil {
				return err
			}
		}

		env := newJobEnvironment(cfg)
		res, err := env.RunJob(cmd.Context(), job, in.OutputPath)
		if err != nil {
			return fmt.Errorf("export of %s failed: %w", in.VideoFileName, err)
		}

		if job.Prompt != "" {
			printClipTable(cmd.OutOrStdout(), res.Set)
		}
		utils.LogVerbose("Clip file: %s", res.ClipFile)
		for _, p := range res.Scripts {
			utils.LogSuccess("Script: %s", p)
		}
		for _, p := range res.Outputs {
			utils.LogSuccess("Output: %s", p)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportInput, "input", "i", "", "Input video file (required)")
	exportCmd.Flags().StringVar(&exportClips, "clips", "", "Clip file written by the resolve command")
	exportCmd.Flags().StringVarP(&exportPrompt, "prompt", "p", "", "Resolve clips from this prompt instead of a clip file")
	exportCmd.Flags().StringVarP(&exportMode, "mode", "m", "merged", "Export mode: merged or separate")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output directory (default from config)")
	exportCmd.Flags().BoolVar(&exportScriptOnly, "script-only", false, "Only write ffmpeg scripts, do not run ffmpeg")
	exportCmd.Flags().StringSliceVar(&exportDialects, "dialect", nil, "Script dialects to write: posix, batch or all")
	exportCmd.Flags().Float64Var(&exportDuration, "duration", 0, "Video duration in seconds (skips probing)")
	exportCmd.MarkFlagsMutuallyExclusive("clips", "prompt")
	_ = exportCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(exportCmd)
}
