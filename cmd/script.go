package cmd

import (
	"github.com/gnzdotmx/smartscenecutter/internal/clips"
	"github.com/gnzdotmx/smartscenecutter/internal/export"
	"github.com/gnzdotmx/smartscenecutter/internal/utils"

	"github.com/spf13/cobra"
)

var (
	scriptClips    string
	scriptSource   string
	scriptMode     string
	scriptDialects []string
	scriptOutput   string
)

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Write ffmpeg scripts for a clip file",
	Long: `Render the export of a clip file as a POSIX shell script and a Windows
batch file. Neither ffmpeg nor the video is needed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, set, err := clips.Load(scriptClips)
		if err != nil {
			return err
		}
		source := scriptSource
		if source == "" {
			source = f.SourceVideo
		}

		mode, err := export.ParseMode(scriptMode)
		if err != nil {
			return &utils.ValidationError{Field: "mode", Message: err.Error()}
		}
		dialects, err := parseDialects(scriptDialects)
		if err != nil {
			return &utils.ValidationError{Field: "dialect", Message: err.Error()}
		}

		plan, err := export.BuildPlan(set, source, mode)
		if err != nil {
			return err
		}
		if err := utils.ValidateOutputPath(scriptOutput); err != nil {
			return err
		}

		paths, err := export.WriteScripts(plan, scriptOutput, dialects...)
		if err != nil {
			return err
		}
		for _, p := range paths {
			utils.LogSuccess("Script: %s", p)
		}
		return nil
	},
}

func init() {
	scriptCmd.Flags().StringVar(&scriptClips, "clips", "", "Clip file written by the resolve command (required)")
	scriptCmd.Flags().StringVar(&scriptSource, "source", "", "Source video name used in the scripts (default from the clip file)")
	scriptCmd.Flags().StringVarP(&scriptMode, "mode", "m", "merged", "Export mode: merged or separate")
	scriptCmd.Flags().StringSliceVar(&scriptDialects, "dialect", []string{"all"}, "Script dialects to write: posix, batch or all")
	scriptCmd.Flags().StringVarP(&scriptOutput, "output", "o", ".", "Directory for the scripts")
	_ = scriptCmd.MarkFlagRequired("clips")
	rootCmd.AddCommand(scriptCmd)
}
