// Package resolver turns a free-text editing request into a validated clip set
// by asking a text-generation service for structured output.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gnzdotmx/smartscenecutter/internal/clips"
	"github.com/gnzdotmx/smartscenecutter/internal/services/llm"
	"github.com/gnzdotmx/smartscenecutter/internal/timecode"
	"github.com/gnzdotmx/smartscenecutter/internal/utils"
)

var (
	// ErrConfiguration is returned when the service has no usable credential
	ErrConfiguration = llm.ErrConfiguration
	// ErrResolutionFailed wraps transport and service failures
	ErrResolutionFailed = errors.New("prompt resolution failed")
	// ErrInvalidResponseShape means the answer is not a valid clip list
	ErrInvalidResponseShape = errors.New("invalid response shape")
	// ErrInvalidPrompt is a caller error; nothing is sent to the service
	ErrInvalidPrompt = errors.New("invalid prompt")
)

// DefaultModel is used when Options.Model is empty
const DefaultModel = "gemini-2.5-flash"

// Options tunes the generation request
type Options struct {
	Model            string
	Temperature      float64
	RequestTimeoutMS int
}

// Resolver resolves prompts against one Generator
type Resolver struct {
	gen  llm.Generator
	opts Options
}

// New creates a Resolver
func New(gen llm.Generator, opts Options) *Resolver {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	return &Resolver{gen: gen, opts: opts}
}

// Resolve asks the service for clips matching prompt and validates every one
// against the video duration. Either all clips are returned or none.
func (r *Resolver) Resolve(ctx context.Context, prompt string, durationSeconds float64) (clips.Set, error) {
	if strings.TrimSpace(prompt) == "" {
		return clips.Set{}, fmt.Errorf("%w: prompt is empty", ErrInvalidPrompt)
	}
	if !(durationSeconds > 0) {
		return clips.Set{}, fmt.Errorf("%w: video duration must be positive, got %v", ErrInvalidPrompt, durationSeconds)
	}
	if r.gen == nil {
		return clips.Set{}, fmt.Errorf("%w: no text-generation service", ErrConfiguration)
	}

	formatted := timecode.FromSeconds(durationSeconds)
	utils.LogVerbose("Resolving prompt against a %s video with %s", formatted, r.opts.Model)

	raw, err := r.gen.Generate(ctx, llm.Request{
		Model:             r.opts.Model,
		SystemInstruction: SystemInstruction(formatted),
		UserContent:       prompt,
		Schema:            ResponseSchema(),
		Temperature:       r.opts.Temperature,
		TimeoutMS:         r.opts.RequestTimeoutMS,
	})
	if err != nil {
		if errors.Is(err, llm.ErrConfiguration) {
			return clips.Set{}, err
		}
		return clips.Set{}, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}
	utils.LogDebug("Raw response: %s", raw)

	candidates, err := DecodeClips(raw)
	if err != nil {
		return clips.Set{}, err
	}

	set, err := clips.NewSet(candidates, durationSeconds)
	if err != nil {
		return clips.Set{}, fmt.Errorf("%w: %v", ErrInvalidResponseShape, err)
	}
	return set, nil
}

type rawClip struct {
	StartTime   *string `json:"startTime"`
	EndTime     *string `json:"endTime"`
	Type        *string `json:"type"`
	Description *string `json:"description"`
}

// DecodeClips parses a service answer into clips without checking time
// invariants. Unknown fields, missing fields and trailing data are rejected.
func DecodeClips(raw string) ([]clips.Clip, error) {
	text := stripFence(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidResponseShape)
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()

	var items []rawClip
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: expected a JSON array of clips: %v", ErrInvalidResponseShape, err)
	}
	if items == nil {
		return nil, fmt.Errorf("%w: expected a JSON array of clips, got null", ErrInvalidResponseShape)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after the clip array", ErrInvalidResponseShape)
	}

	out := make([]clips.Clip, 0, len(items))
	for i, it := range items {
		missing := missingFields(it)
		if len(missing) > 0 {
			return nil, fmt.Errorf("%w: clip %d: missing %s", ErrInvalidResponseShape, i+1, strings.Join(missing, ", "))
		}
		out = append(out, clips.Clip{
			StartTime:   strings.TrimSpace(*it.StartTime),
			EndTime:     strings.TrimSpace(*it.EndTime),
			Origin:      clips.Origin(*it.Type),
			Description: *it.Description,
		})
	}
	return out, nil
}

func missingFields(c rawClip) []string {
	var missing []string
	if c.StartTime == nil {
		missing = append(missing, "startTime")
	}
	if c.EndTime == nil {
		missing = append(missing, "endTime")
	}
	if c.Type == nil {
		missing = append(missing, "type")
	}
	if c.Description == nil {
		missing = append(missing, "description")
	}
	return missing
}

// stripFence removes a surrounding ```json fence if the service added one
func stripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
