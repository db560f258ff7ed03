package workflow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gnzdotmx/smartscenecutter/internal/clips"
	"github.com/gnzdotmx/smartscenecutter/internal/engine"
	"github.com/gnzdotmx/smartscenecutter/internal/export"
	"github.com/gnzdotmx/smartscenecutter/internal/session"
	"github.com/gnzdotmx/smartscenecutter/internal/utils"
)

// ClipFileName is the resolved clip set saved next to every job's outputs
const ClipFileName = "clips.yaml"

// Environment supplies the services a job needs
type Environment struct {
	// NewResolver is called once, on the first job that needs a prompt resolved
	NewResolver func(ctx context.Context) (session.Resolver, error)
	// Probe returns a video's duration in seconds
	Probe  func(path string) (float64, error)
	Runner *engine.Runner
	Policy session.FailurePolicy
	// OnProgress receives the running invocation's percentage
	OnProgress func(label string, percent int)

	resolver session.Resolver
}

// JobResult is what RunJob produced
type JobResult struct {
	Set      clips.Set
	Clips    int
	ClipFile string
	Outputs  []string
	Scripts  []string
	JobID    string
}

func (e *Environment) getResolver(ctx context.Context) (session.Resolver, error) {
	if e.resolver != nil {
		return e.resolver, nil
	}
	if e.NewResolver == nil {
		return nil, errors.New("no prompt resolver configured")
	}
	r, err := e.NewResolver(ctx)
	if err != nil {
		return nil, err
	}
	e.resolver = r
	return r, nil
}

func (e *Environment) duration(job Job) (float64, error) {
	if job.Duration > 0 {
		return job.Duration, nil
	}
	if job.ScriptOnly && job.Clips != "" {
		f, _, err := clips.Load(job.Clips)
		if err != nil {
			return 0, err
		}
		return f.Duration, nil
	}
	if e.Probe == nil {
		return 0, errors.New("video duration unknown and no probe configured")
	}
	return e.Probe(job.Input)
}

// ResolveClips returns the validated clip set of job, asking the resolver or
// reading the job's clip file.
func (e *Environment) ResolveClips(ctx context.Context, job Job) (clips.Set, error) {
	duration, err := e.duration(job)
	if err != nil {
		return clips.Set{}, fmt.Errorf("failed to read video duration: %w", err)
	}

	sess := session.New(e.Policy)
	if err := sess.LoadVideo(job.Input, duration); err != nil {
		return clips.Set{}, err
	}

	if job.Clips != "" {
		_, set, err := clips.Load(job.Clips)
		if err != nil {
			return clips.Set{}, err
		}
		if err := sess.SetClips(set); err != nil {
			return clips.Set{}, err
		}
		return sess.Clips(), nil
	}

	r, err := e.getResolver(ctx)
	if err != nil {
		return clips.Set{}, err
	}
	return sess.Submit(ctx, r, job.Prompt)
}

// RunJob resolves job, saves its clip file and exports it into dir
func (e *Environment) RunJob(ctx context.Context, job Job, dir string) (*JobResult, error) {
	mode, err := job.ExportMode()
	if err != nil {
		return nil, err
	}
	dialects, err := job.Dialects()
	if err != nil {
		return nil, err
	}

	set, err := e.ResolveClips(ctx, job)
	if err != nil {
		return nil, err
	}
	utils.LogInfo("%d clip(s) selected from %s", set.Len(), filepath.Base(job.Input))

	res := &JobResult{Set: set, Clips: set.Len(), ClipFile: filepath.Join(dir, ClipFileName)}
	if err := clips.Save(res.ClipFile, clips.NewFile(job.Input, job.Prompt, set)); err != nil {
		return nil, err
	}

	plan, err := export.BuildPlan(set, job.Input, mode)
	if err != nil {
		return nil, err
	}

	if len(dialects) > 0 {
		paths, err := export.WriteScripts(plan, dir, dialects...)
		if err != nil {
			return nil, err
		}
		res.Scripts = paths
	}
	if job.ScriptOnly {
		return res, nil
	}

	if e.Runner == nil {
		return nil, errors.New("no export runner configured")
	}
	label := filepath.Base(job.Input)
	result, err := e.Runner.Run(ctx, plan, engine.Options{
		SourcePath: job.Input,
		OutputDir:  dir,
		OnProgress: func(p int) {
			if e.OnProgress != nil {
				e.OnProgress(label, p)
			}
		},
	})
	if err != nil {
		return nil, err
	}
	res.JobID = result.JobID
	for _, o := range result.Outputs {
		res.Outputs = append(res.Outputs, o.Path)
	}
	return res, nil
}
