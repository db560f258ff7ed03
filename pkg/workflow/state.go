package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// StateFile is written into every run directory
const StateFile = "run-state.yaml"

// Status of a run or a job
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// JobState records what one job produced
type JobState struct {
	Input   string   `yaml:"input"`
	Status  Status   `yaml:"status"`
	Clips   int      `yaml:"clips,omitempty"`
	Outputs []string `yaml:"outputs,omitempty"`
	Scripts []string `yaml:"scripts,omitempty"`
	Error   string   `yaml:"error,omitempty"`
}

// RunState is the progress of one workflow run
type RunState struct {
	Name      string     `yaml:"name"`
	Dir       string     `yaml:"-"`
	Status    Status     `yaml:"status"`
	StartTime time.Time  `yaml:"startTime"`
	EndTime   time.Time  `yaml:"endTime,omitempty"`
	Jobs      []JobState `yaml:"jobs"`
}

// NewRunState creates a pending state for every job of w
func NewRunState(w *Workflow, dir string, start time.Time) *RunState {
	st := &RunState{Name: w.Name, Dir: dir, Status: StatusPending, StartTime: start}
	for _, j := range w.Jobs {
		st.Jobs = append(st.Jobs, JobState{Input: j.Input, Status: StatusPending})
	}
	return st
}

func (s *RunState) fail(i int, err error) {
	s.Status = StatusFailed
	s.EndTime = time.Now()
	s.Jobs[i].Status = StatusFailed
	s.Jobs[i].Error = err.Error()
}

func (s *RunState) complete(i int, res *JobResult) {
	js := &s.Jobs[i]
	js.Status = StatusCompleted
	js.Error = ""
	js.Clips = res.Clips
	js.Outputs = res.Outputs
	js.Scripts = res.Scripts
}

// SaveState writes s into its run directory
func SaveState(s *RunState) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal run state: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir, StateFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write run state: %w", err)
	}
	return nil
}

// LoadState reads the state of the run in dir
func LoadState(dir string) (*RunState, error) {
	data, err := os.ReadFile(filepath.Join(dir, StateFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read run state: %w", err)
	}
	var s RunState
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse run state: %w", err)
	}
	s.Dir = dir
	return &s, nil
}
