package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/gnzdotmx/smartscenecutter/internal/export"
	"github.com/gnzdotmx/smartscenecutter/internal/utils"
	"github.com/google/uuid"
)

var (
	// ErrExportFailed wraps the media tool's error for an aborted job
	ErrExportFailed = errors.New("export failed")
	// ErrJobInFlight rejects a job while another one is running
	ErrJobInFlight = errors.New("an export job is already running")
	// ErrJobCancelled is returned when a job stops at a cancellation request
	ErrJobCancelled = errors.New("export job cancelled")
)

// InputPrefix is prepended to the source name inside the engine
const InputPrefix = "input_"

// Options describes one run
type Options struct {
	SourcePath string
	OutputDir  string
	// OnProgress receives the running invocation's progress as 0-100
	OnProgress func(percent int)
}

// OutputFile is one exported result
type OutputFile struct {
	Name string
	Path string
	Size int64
}

// Result is what a successful job produced
type Result struct {
	JobID   string
	Outputs []OutputFile
}

// Runner executes plans one at a time
type Runner struct {
	newEngine Factory

	mu        sync.Mutex
	running   bool
	cancelled atomic.Bool
}

// NewRunner creates a Runner building a fresh engine for each job
func NewRunner(factory Factory) *Runner {
	return &Runner{newEngine: factory}
}

// Busy reports whether a job is running
func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Cancel asks the running job to stop after its current invocation.
// It reports whether a job was running.
func (r *Runner) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		r.cancelled.Store(true)
	}
	return r.running
}

func (r *Runner) acquire() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrJobInFlight
	}
	r.running = true
	r.cancelled.Store(false)
	return nil
}

func (r *Runner) release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
}

// job holds the state of one run
type job struct {
	id       string
	eng      Engine
	plan     export.Plan
	opts     Options
	input    string
	scratch  []string
	exported []string
	outputs  []OutputFile
}

// Run executes plan step by step. Any failed invocation aborts the job and
// removes everything it produced. Cancellation via ctx or Cancel lets the
// running invocation finish and skips the invocations after it; cleanup
// steps are never skipped.
func (r *Runner) Run(ctx context.Context, plan export.Plan, opts Options) (*Result, error) {
	if err := r.acquire(); err != nil {
		return nil, err
	}
	defer r.release()

	if opts.SourcePath == "" {
		return nil, fmt.Errorf("%w: source path is required", ErrExportFailed)
	}
	if len(plan.Steps) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, export.ErrEmptyClipSet)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}

	j := &job{
		id:    uuid.NewString(),
		plan:  plan,
		opts:  opts,
		input: InputPrefix + plan.Source,
	}

	eng, err := r.newEngine(j.id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	j.eng = eng
	defer func() {
		if err := eng.Close(); err != nil {
			utils.LogWarning("Failed to release engine files for job %s: %v", j.id, err)
		}
	}()

	utils.LogVerbose("Starting export job %s (%s, %d steps)", j.id, plan.Mode, len(plan.Steps))

	if err := eng.Mount(j.input, opts.SourcePath); err != nil {
		return nil, fmt.Errorf("%w: failed to load source video: %v", ErrExportFailed, err)
	}

	for i, step := range plan.Steps {
		// cleanup steps always run so a finished output is kept
		if _, cleanup := step.(export.Delete); !cleanup && (ctx.Err() != nil || r.cancelled.Load()) {
			j.abort()
			return nil, fmt.Errorf("%w before step %d of %d", ErrJobCancelled, i+1, len(plan.Steps))
		}
		if err := j.run(ctx, step); err != nil {
			j.abort()
			return nil, err
		}
	}

	j.report(1)
	utils.LogVerbose("Export job %s finished", j.id)
	return &Result{JobID: j.id, Outputs: j.outputs}, nil
}

func (j *job) run(ctx context.Context, step export.Step) error {
	switch st := step.(type) {
	case export.Cut:
		if st.Input == j.plan.Source {
			st.Input = j.input
		}
		return j.exec(ctx, st.Invocation())
	case export.Concat:
		return j.exec(ctx, st.Invocation())
	case export.WriteManifest:
		if err := j.eng.WriteFile(st.Name, []byte(st.Content())); err != nil {
			return fmt.Errorf("%w: failed to write %s: %v", ErrExportFailed, st.Name, err)
		}
		j.scratch = append(j.scratch, st.Name)
	case export.Delete:
		if err := j.eng.Remove(st.Name); err != nil {
			utils.LogWarning("Failed to delete %s: %v", st.Name, err)
		}
		j.forget(st.Name)
	default:
		return fmt.Errorf("%w: unsupported step %T", ErrExportFailed, step)
	}
	return nil
}

func (j *job) exec(ctx context.Context, inv export.Invocation) error {
	j.report(0)
	// a started invocation always runs to completion
	err := j.eng.Exec(context.WithoutCancel(ctx), inv, j.report)
	j.scratch = append(j.scratch, inv.Output)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	j.report(1)

	if slices.Contains(j.plan.Outputs, inv.Output) {
		dst := filepath.Join(j.opts.OutputDir, inv.Output)
		size, err := j.eng.Export(inv.Output, dst)
		if err != nil {
			return fmt.Errorf("%w: failed to save %s: %v", ErrExportFailed, inv.Output, err)
		}
		j.exported = append(j.exported, dst)
		j.outputs = append(j.outputs, OutputFile{Name: inv.Output, Path: dst, Size: size})
		utils.LogVerbose("Saved %s (%d bytes)", dst, size)
	}
	return nil
}

func (j *job) forget(name string) {
	j.scratch = slices.DeleteFunc(j.scratch, func(s string) bool { return s == name })
}

// abort removes every file the job produced, best effort
func (j *job) abort() {
	for _, name := range j.scratch {
		if err := j.eng.Remove(name); err != nil {
			utils.LogDebug("Cleanup of %s failed: %v", name, err)
		}
	}
	for _, p := range j.exported {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			utils.LogDebug("Cleanup of %s failed: %v", p, err)
		}
	}
	j.scratch, j.exported, j.outputs = nil, nil, nil
}

func (j *job) report(fraction float64) {
	if j.opts.OnProgress == nil {
		return
	}
	j.opts.OnProgress(Percent(fraction))
}

// Percent converts a progress fraction to a clamped, rounded percentage
func Percent(fraction float64) int {
	if math.IsNaN(fraction) {
		return 0
	}
	return int(math.Max(0, math.Min(100, math.Round(fraction*100))))
}
