// Package clips holds the validated, ordered clip collection shared by
// prompt resolution and export.
package clips

import (
	"errors"
	"fmt"
	"math"

	"github.com/gnzdotmx/smartscenecutter/internal/timecode"
)

// Origin tags where a clip range came from
type Origin string

const (
	// Manual clips come from explicit time ranges in the prompt
	Manual Origin = "Manual"
	// AIDetected clips come from descriptive scene requests
	AIDetected Origin = "AI-detected"
)

// Origins lists the accepted tags in display order
var Origins = []Origin{Manual, AIDetected}

// ParseOrigin accepts exactly one of the literal tag strings
func ParseOrigin(s string) (Origin, error) {
	for _, o := range Origins {
		if string(o) == s {
			return o, nil
		}
	}
	return "", fmt.Errorf("unknown clip type %q (expected %q or %q)", s, Manual, AIDetected)
}

// Valid reports whether o is one of the known tags
func (o Origin) Valid() bool {
	_, err := ParseOrigin(string(o))
	return err == nil
}

// Clip is a single requested output range
type Clip struct {
	StartTime   string `json:"startTime" yaml:"startTime"`
	EndTime     string `json:"endTime" yaml:"endTime"`
	Origin      Origin `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
}

// Bounds returns the start and end of the clip in whole seconds
func (c Clip) Bounds() (start, end int, err error) {
	start, err = timecode.ToSeconds(c.StartTime)
	if err != nil {
		return 0, 0, err
	}
	end, err = timecode.ToSeconds(c.EndTime)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// InvalidClipError describes the first invariant a clip breaks.
// Index is zero-based, or -1 when the clip was validated on its own.
type InvalidClipError struct {
	Index   int
	Field   string
	Message string
	Err     error
}

func (e *InvalidClipError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Field, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Err)
	}
	if e.Index >= 0 {
		return fmt.Sprintf("clip %d: %s", e.Index+1, msg)
	}
	return msg
}

func (e *InvalidClipError) Unwrap() error {
	return e.Err
}

// Validate checks c against a video of the given duration in seconds
func Validate(c Clip, duration float64) error {
	return validateAt(-1, c, duration)
}

func validateAt(index int, c Clip, duration float64) error {
	start, err := timecode.ToSeconds(c.StartTime)
	if err != nil {
		return &InvalidClipError{Index: index, Field: "startTime", Message: "not a HH:MM:SS timestamp", Err: err}
	}

	end, err := timecode.ToSeconds(c.EndTime)
	if err != nil {
		return &InvalidClipError{Index: index, Field: "endTime", Message: "not a HH:MM:SS timestamp", Err: err}
	}

	if end <= start {
		return &InvalidClipError{
			Index:   index,
			Field:   "endTime",
			Message: fmt.Sprintf("end time (%s) must be after start time (%s)", c.EndTime, c.StartTime),
		}
	}

	if float64(end) > duration {
		return &InvalidClipError{
			Index:   index,
			Field:   "endTime",
			Message: fmt.Sprintf("end time (%s) exceeds video duration (%s)", c.EndTime, timecode.FromSeconds(duration)),
		}
	}

	if !c.Origin.Valid() {
		return &InvalidClipError{
			Index:   index,
			Field:   "type",
			Message: fmt.Sprintf("unknown clip type %q", c.Origin),
		}
	}

	return nil
}

// Set is an ordered, validated, read-only clip collection.
// Order is resolution order and is never changed.
type Set struct {
	clips    []Clip
	duration float64
}

// ErrInvalidDuration is returned when a set is built for a non-positive duration
var ErrInvalidDuration = errors.New("video duration must be positive")

// NewSet validates every clip against duration. It fails on the first
// violation and returns no partial set.
func NewSet(clips []Clip, duration float64) (Set, error) {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return Set{}, fmt.Errorf("%w: %v", ErrInvalidDuration, duration)
	}

	for i, c := range clips {
		if err := validateAt(i, c, duration); err != nil {
			return Set{}, err
		}
	}

	owned := make([]Clip, len(clips))
	copy(owned, clips)
	return Set{clips: owned, duration: duration}, nil
}

// Len returns the number of clips
func (s Set) Len() int { return len(s.clips) }

// IsEmpty reports whether the set has no clips
func (s Set) IsEmpty() bool { return len(s.clips) == 0 }

// Duration returns the video duration the set was validated against
func (s Set) Duration() float64 { return s.duration }

// At returns the clip at zero-based index i
func (s Set) At(i int) Clip { return s.clips[i] }

// Clips returns a copy of the clips in order
func (s Set) Clips() []Clip {
	out := make([]Clip, len(s.clips))
	copy(out, s.clips)
	return out
}

// Without returns a new set with the clip at index i removed
func (s Set) Without(i int) (Set, error) {
	if i < 0 || i >= len(s.clips) {
		return Set{}, fmt.Errorf("clip index %d out of range [0,%d)", i, len(s.clips))
	}
	out := make([]Clip, 0, len(s.clips)-1)
	out = append(out, s.clips[:i]...)
	out = append(out, s.clips[i+1:]...)
	return Set{clips: out, duration: s.duration}, nil
}

// TotalSeconds sums the length of every clip
func (s Set) TotalSeconds() int {
	total := 0
	for _, c := range s.clips {
		// every clip was validated on construction
		start, end, _ := c.Bounds()
		total += end - start
	}
	return total
}

// CountByOrigin returns how many clips carry each tag
func (s Set) CountByOrigin() map[Origin]int {
	counts := make(map[Origin]int, len(Origins))
	for _, c := range s.clips {
		counts[c.Origin]++
	}
	return counts
}
