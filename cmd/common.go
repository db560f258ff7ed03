package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gnzdotmx/smartscenecutter/internal/clips"
	"github.com/gnzdotmx/smartscenecutter/internal/config"
	"github.com/gnzdotmx/smartscenecutter/internal/engine"
	"github.com/gnzdotmx/smartscenecutter/internal/export"
	"github.com/gnzdotmx/smartscenecutter/internal/probe"
	"github.com/gnzdotmx/smartscenecutter/internal/resolver"
	"github.com/gnzdotmx/smartscenecutter/internal/services/llm"
	"github.com/gnzdotmx/smartscenecutter/internal/session"
	"github.com/gnzdotmx/smartscenecutter/internal/timecode"
	"github.com/gnzdotmx/smartscenecutter/internal/utils"
	"github.com/gnzdotmx/smartscenecutter/pkg/workflow"
)

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	utils.LogDebug("Provider: %s, model: %s", cfg.Provider, cfg.Model)
	return cfg, nil
}

// newJobEnvironment allows us to stub the services in tests
var newJobEnvironment = newEnvironment

// newEnvironment wires the configured services for job execution. The text
// generation client is only built when a prompt has to be resolved.
func newEnvironment(cfg config.Config) *workflow.Environment {
	return &workflow.Environment{
		NewResolver: func(ctx context.Context) (session.Resolver, error) {
			gen, err := llm.New(ctx, cfg.LLMSettings())
			if err != nil {
				return nil, err
			}
			return resolver.New(gen, cfg.ResolverOptions()), nil
		},
		Probe:      probe.Duration,
		Runner:     engine.NewRunner(engine.NewFFmpegFactory(cfg.WorkDir, cfg.FFmpegPath)),
		Policy:     cfg.FailurePolicy(),
		OnProgress: utils.LogProgress,
	}
}

// parseDialects flattens repeated --dialect values
func parseDialects(names []string) ([]export.Dialect, error) {
	job := workflow.Job{Scripts: names}
	return job.Dialects()
}

func printClipTable(w io.Writer, set clips.Set) {
	if set.IsEmpty() {
		fmt.Fprintln(w, "No clips matched the request.")
		return
	}
	fmt.Fprintf(w, "%-4s %-21s %-9s %-12s %s\n", "#", "RANGE", "LENGTH", "TYPE", "DESCRIPTION")
	for i, c := range set.Clips() {
		length := "?"
		if secs, err := timecode.Span(c.StartTime, c.EndTime); err == nil {
			length = timecode.FromSeconds(float64(secs))
		}
		fmt.Fprintf(w, "%-4d %-21s %-9s %-12s %s\n", i+1, c.StartTime+" - "+c.EndTime, length, c.Origin, c.Description)
	}

	counts := set.CountByOrigin()
	parts := make([]string, 0, len(clips.Origins))
	for _, o := range clips.Origins {
		parts = append(parts, fmt.Sprintf("%d %s", counts[o], o))
	}
	fmt.Fprintf(w, "%d clip(s), %s total (%s)\n", set.Len(), timecode.FromSeconds(float64(set.TotalSeconds())), strings.Join(parts, ", "))
}
