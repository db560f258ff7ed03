package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gnzdotmx/smartscenecutter/internal/utils"
)

// InputConfig holds the files a command works on
type InputConfig struct {
	VideoPath  string
	ClipsPath  string
	OutputPath string
	// ScriptOnly skips reading the video; only its name is used
	ScriptOnly bool

	VideoFileName string
}

// NewInputConfig validates the given paths and prepares the output directory
func NewInputConfig(videoPath, clipsPath, outputPath string, scriptOnly bool) (*InputConfig, error) {
	c := &InputConfig{
		VideoPath:  videoPath,
		ClipsPath:  clipsPath,
		OutputPath: outputPath,
		ScriptOnly: scriptOnly,
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *InputConfig) validate() error {
	if c.VideoPath == "" {
		return &utils.ValidationError{Field: "input", Message: "video path is required"}
	}
	c.VideoFileName = filepath.Base(c.VideoPath)

	if !c.ScriptOnly {
		if err := utils.ValidateVideoFile(c.VideoPath); err != nil {
			return err
		}
	}

	if c.ClipsPath != "" {
		info, err := os.Stat(c.ClipsPath)
		if err != nil {
			return &utils.ValidationError{Field: "clips", Message: "clip file does not exist", Err: err}
		}
		if info.IsDir() {
			return &utils.ValidationError{Field: "clips", Message: fmt.Sprintf("clip file is a directory: %s", c.ClipsPath)}
		}
	}

	if c.OutputPath != "" {
		info, err := os.Stat(c.OutputPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("failed to access output path: %w", err)
			}
			if err := os.MkdirAll(c.OutputPath, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		} else if !info.IsDir() {
			return &utils.ValidationError{Field: "output", Message: fmt.Sprintf("output must be a directory, not a file: %s", c.OutputPath)}
		}
	}
	return nil
}
