package validator

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/gnzdotmx/smartscenecutter/internal/config"
	"github.com/gnzdotmx/smartscenecutter/internal/utils"
)

// execCommand allows us to mock exec.Command in tests
var execCommand = exec.Command

// ExternalTool represents an external command-line tool requirement
type ExternalTool struct {
	Name        string
	VersionArgs []string
	Validate    func(output string) bool
}

// RequiredTools returns the tools an export needs; ffmpegPath may point at a
// non-default ffmpeg binary.
func RequiredTools(ffmpegPath string) []ExternalTool {
	if ffmpegPath == "" {
		ffmpegPath = config.DefaultFFmpegPath
	}
	return []ExternalTool{
		{
			Name:        ffmpegPath,
			VersionArgs: []string{"-version"},
			Validate: func(output string) bool {
				return strings.Contains(output, "ffmpeg version")
			},
		},
		{
			Name:        "ffprobe",
			VersionArgs: []string{"-version"},
			Validate: func(output string) bool {
				return strings.Contains(output, "ffprobe version")
			},
		},
	}
}

// ValidateExternalTools checks that every tool is installed and answers its version query
func ValidateExternalTools(tools []ExternalTool) error {
	for _, tool := range tools {
		path, err := utils.ExecLookPath(tool.Name)
		if err != nil {
			return fmt.Errorf("tool %s not found in PATH: %w", tool.Name, err)
		}

		output, err := execCommand(path, tool.VersionArgs...).Output()
		if err != nil {
			return fmt.Errorf("failed to run %s: %w", tool.Name, err)
		}

		if !tool.Validate(string(output)) {
			return fmt.Errorf("invalid version of %s detected", tool.Name)
		}

		utils.LogVerbose("✓ %s found at %s", tool.Name, path)
	}
	return nil
}

// ValidateCredentials checks that the configured provider can authenticate
func ValidateCredentials(cfg config.Config) error {
	if cfg.HasCredential() {
		// Don't print the actual value for security
		if env := cfg.CredentialEnv(); env != "" {
			utils.LogVerbose("✓ %s is set", env)
		} else {
			utils.LogVerbose("✓ vertex project %s (application default credentials)", cfg.Vertex.Project)
		}
		return nil
	}
	if env := cfg.CredentialEnv(); env != "" {
		if env == config.EnvGeminiAPIKey {
			return fmt.Errorf("environment variable %s (or %s) not set", env, config.EnvLegacyAPIKey)
		}
		return fmt.Errorf("environment variable %s not set", env)
	}
	return fmt.Errorf("vertex project not set: use vertex.project in the config file or %s", config.EnvGoogleProject)
}
