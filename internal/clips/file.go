package clips

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File is the on-disk form of a resolved clip set
type File struct {
	SourceVideo string  `yaml:"sourceVideo"`
	Duration    float64 `yaml:"duration"`
	Prompt      string  `yaml:"prompt,omitempty"`
	Clips       []Clip  `yaml:"clips"`
}

// NewFile captures a set for the named source video
func NewFile(sourceVideo, prompt string, set Set) File {
	return File{
		SourceVideo: filepath.Base(sourceVideo),
		Duration:    set.Duration(),
		Prompt:      prompt,
		Clips:       set.Clips(),
	}
}

// Set re-validates the stored clips against the stored duration
func (f File) Set() (Set, error) {
	return NewSet(f.Clips, f.Duration)
}

// Save writes f as YAML
func Save(path string, f File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to generate YAML: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write clip file: %w", err)
	}
	return nil
}

// Load reads a clip file and validates it
func Load(path string) (File, Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, Set{}, fmt.Errorf("failed to read clip file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, Set{}, fmt.Errorf("failed to parse clip file YAML: %w", err)
	}

	set, err := f.Set()
	if err != nil {
		return File{}, Set{}, fmt.Errorf("invalid clip file %s: %w", path, err)
	}
	return f, set, nil
}
