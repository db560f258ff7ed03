package cmd

import (
	"fmt"
	"strings"

	"github.com/gnzdotmx/smartscenecutter/internal/clips"
	"github.com/gnzdotmx/smartscenecutter/internal/utils"
	"github.com/gnzdotmx/smartscenecutter/internal/validator"
	"github.com/gnzdotmx/smartscenecutter/pkg/workflow"

	"github.com/spf13/cobra"
)

var (
	resolveInput      string
	resolvePrompt     string
	resolvePromptFile string
	resolveDuration   float64
	resolveOutput     string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Turn a plain-language request into clip ranges",
	Long: `Ask the configured text-generation service which parts of the video the
request describes, validate the answer and print the resulting clips.
Use -o to save them as a clip file for the export and script commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := validator.ValidateCredentials(cfg); err != nil {
			return err
		}

		prompt, err := readPrompt(resolvePrompt, resolvePromptFile)
		if err != nil {
			return err
		}
		if resolveDuration <= 0 {
			if err := utils.ValidateVideoFile(resolveInput); err != nil {
				return err
			}
		}

		env := newJobEnvironment(cfg)
		utils.LogInfo("Resolving clips for %s", resolveInput)
		set, err := env.ResolveClips(cmd.Context(), workflow.Job{
			Input:    resolveInput,
			Prompt:   prompt,
			Duration: resolveDuration,
		})
		if err != nil {
			return fmt.Errorf("failed to resolve clips: %w", err)
		}

		printClipTable(cmd.OutOrStdout(), set)

		if resolveOutput != "" {
			if err := clips.Save(resolveOutput, clips.NewFile(resolveInput, prompt, set)); err != nil {
				return err
			}
			utils.LogSuccess("Clip file saved to %s", resolveOutput)
		}
		return nil
	},
}

// readPrompt returns the inline prompt or the contents of promptFile
func readPrompt(prompt, promptFile string) (string, error) {
	if prompt != "" && promptFile != "" {
		return "", &utils.ValidationError{Field: "prompt", Message: "use either --prompt or --prompt-file, not both"}
	}
	if promptFile != "" {
		content, err := utils.ReadTextFile(promptFile)
		if err != nil {
			return "", err
		}
		prompt = content
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", &utils.ValidationError{Field: "prompt", Message: "a prompt is required"}
	}
	return prompt, nil
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveInput, "input", "i", "", "Input video file (required)")
	resolveCmd.Flags().StringVarP(&resolvePrompt, "prompt", "p", "", "What to cut, in plain language")
	resolveCmd.Flags().StringVar(&resolvePromptFile, "prompt-file", "", "Read the prompt from a text file")
	resolveCmd.Flags().Float64Var(&resolveDuration, "duration", 0, "Video duration in seconds (skips probing)")
	resolveCmd.Flags().StringVarP(&resolveOutput, "output", "o", "", "Save the clips to this YAML file")
	_ = resolveCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(resolveCmd)
}
