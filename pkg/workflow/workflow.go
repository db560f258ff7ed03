// Package workflow runs batch job files: several videos, each resolved from a
// prompt or loaded from a clip file, then exported or turned into scripts.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gnzdotmx/smartscenecutter/internal/export"
	"github.com/gnzdotmx/smartscenecutter/internal/utils"

	"gopkg.in/yaml.v3"
)

// TimestampFormat names run directories: <name>-YYYYMMDD-HHMMSS
const TimestampFormat = "20060102-150405"

// Job is one video to cut
type Job struct {
	Name     string  `yaml:"name,omitempty"`
	Input    string  `yaml:"input"`
	Prompt   string  `yaml:"prompt,omitempty"`
	Clips    string  `yaml:"clips,omitempty"`
	Duration float64 `yaml:"duration,omitempty"`
	Mode     string  `yaml:"mode,omitempty"`
	// Scripts lists dialects to emit: posix, batch or all
	Scripts    []string `yaml:"scripts,omitempty"`
	ScriptOnly bool     `yaml:"scriptOnly,omitempty"`
}

// Label returns the job's display name
func (j Job) Label(index int) string {
	if j.Name != "" {
		return j.Name
	}
	return fmt.Sprintf("job %d (%s)", index+1, filepath.Base(j.Input))
}

// ExportMode returns the parsed mode, merged when unset
func (j Job) ExportMode() (export.Mode, error) {
	if j.Mode == "" {
		return export.Merged, nil
	}
	return export.ParseMode(j.Mode)
}

// Dialects returns the script dialects to write
func (j Job) Dialects() ([]export.Dialect, error) {
	if len(j.Scripts) == 0 {
		if j.ScriptOnly {
			return export.Dialects, nil
		}
		return nil, nil
	}
	var out []export.Dialect
	seen := map[string]bool{}
	for _, s := range j.Scripts {
		ds, err := export.ParseDialect(s)
		if err != nil {
			return nil, err
		}
		for _, d := range ds {
			if !seen[d.Name] {
				seen[d.Name] = true
				out = append(out, d)
			}
		}
	}
	return out, nil
}

// Validate checks a single job
func (j Job) Validate() error {
	if strings.TrimSpace(j.Input) == "" {
		return errors.New("input is required")
	}
	hasPrompt := strings.TrimSpace(j.Prompt) != ""
	if hasPrompt == (j.Clips != "") {
		return errors.New("exactly one of prompt or clips is required")
	}
	if j.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %v", j.Duration)
	}
	if _, err := j.ExportMode(); err != nil {
		return err
	}
	if _, err := j.Dialects(); err != nil {
		return err
	}
	return nil
}

// Workflow is a batch job file
type Workflow struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Output      string `yaml:"output"`
	Jobs        []Job  `yaml:"jobs"`
}

// LoadFromFile loads a workflow definition from a YAML file
func LoadFromFile(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}

	var wf Workflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("failed to parse workflow YAML: %w", err)
	}

	// relative inputs are relative to the workflow file
	base := filepath.Dir(path)
	for i := range wf.Jobs {
		wf.Jobs[i].Input = resolvePath(base, wf.Jobs[i].Input)
		wf.Jobs[i].Clips = resolvePath(base, wf.Jobs[i].Clips)
	}

	if err := wf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workflow configuration: %w", err)
	}
	return &wf, nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Validate checks the workflow structure
func (w *Workflow) Validate() error {
	if w.Name == "" {
		return errors.New("workflow name is required")
	}
	if w.Output == "" {
		return errors.New("output path is required")
	}
	if len(w.Jobs) == 0 {
		return errors.New("at least one job is required")
	}
	for i, j := range w.Jobs {
		if err := j.Validate(); err != nil {
			return fmt.Errorf("job %d: %w", i+1, err)
		}
	}
	return nil
}

// RunDir returns the output directory for a run started at t
func (w *Workflow) RunDir(t time.Time) string {
	runName := fmt.Sprintf("%s-%s", strings.ReplaceAll(w.Name, " ", "_"), t.Format(TimestampFormat))
	return filepath.Join(w.Output, runName)
}

// JobDir returns the directory of job index inside runDir
func JobDir(runDir string, index int) string {
	return filepath.Join(runDir, fmt.Sprintf("job-%d", index+1))
}

// Execute runs every job in order into a new run directory. The first
// failing job stops the run.
func (w *Workflow) Execute(ctx context.Context, env *Environment) (*RunState, error) {
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("workflow validation failed: %w", err)
	}

	start := time.Now()
	runDir := w.RunDir(start)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	utils.LogInfo("Starting workflow: %s", w.Name)
	utils.LogDebug("Results will be stored in: %s", runDir)

	state := NewRunState(w, runDir, start)
	return state, w.run(ctx, env, state, func(JobState) bool { return true })
}

// ExecuteRetry re-runs the jobs of a previous run that did not complete,
// writing into the same run directory.
func (w *Workflow) ExecuteRetry(ctx context.Context, env *Environment, runDir string) (*RunState, error) {
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("workflow validation failed: %w", err)
	}
	state, err := LoadState(runDir)
	if err != nil {
		return nil, err
	}
	if state.Name != w.Name || len(state.Jobs) != len(w.Jobs) {
		return nil, fmt.Errorf("run %s does not belong to workflow %q", runDir, w.Name)
	}
	utils.LogInfo("Retrying workflow %s in %s", w.Name, runDir)
	return state, w.run(ctx, env, state, func(js JobState) bool { return js.Status != StatusCompleted })
}

func (w *Workflow) run(ctx context.Context, env *Environment, state *RunState, shouldRun func(JobState) bool) error {
	state.Status = StatusRunning
	for i, job := range w.Jobs {
		if !shouldRun(state.Jobs[i]) {
			utils.LogVerbose("Skipping completed %s", job.Label(i))
			continue
		}

		label := job.Label(i)
		utils.LogInfo("Executing %s", label)
		res, err := env.RunJob(ctx, job, JobDir(state.Dir, i))
		if err != nil {
			state.fail(i, err)
			if saveErr := SaveState(state); saveErr != nil {
				utils.LogWarning("Failed to save run state: %v", saveErr)
			}
			utils.LogError("Failed to execute %s: %v", label, err)
			return fmt.Errorf("failed to execute %s: %w", label, err)
		}
		state.complete(i, res)
		if err := SaveState(state); err != nil {
			utils.LogWarning("Failed to save run state: %v", err)
		}
		utils.LogSuccess("Completed %s", label)
	}

	state.Status = StatusCompleted
	state.EndTime = time.Now()
	if err := SaveState(state); err != nil {
		return err
	}
	utils.LogSuccess("Workflow completed: %s", w.Name)
	utils.LogDebug("Results stored in: %s", state.Dir)
	return nil
}
