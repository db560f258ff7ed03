// Package session keeps the state of one editing session: the loaded video,
// the current clip set and whether a resolution is running.
package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/gnzdotmx/smartscenecutter/internal/clips"
)

var (
	// ErrNoVideo is returned when an action needs a loaded video
	ErrNoVideo = errors.New("no video loaded")
	// ErrResolving rejects a prompt while another one is being resolved
	ErrResolving = errors.New("a prompt is already being resolved")
	// ErrVideoChanged means the video was replaced while a prompt was resolving
	ErrVideoChanged = errors.New("video changed during resolution")
)

// Resolver turns a prompt into a clip set for a video of the given length
type Resolver interface {
	Resolve(ctx context.Context, prompt string, durationSeconds float64) (clips.Set, error)
}

// FailurePolicy decides what happens to the current set when resolution fails
type FailurePolicy int

const (
	// KeepOnFailure leaves the previous set in place
	KeepOnFailure FailurePolicy = iota
	// ClearOnFailure empties the set
	ClearOnFailure
)

// Video is the loaded source
type Video struct {
	Path     string
	Duration float64
}

// Name returns the base file name of the video
func (v Video) Name() string {
	return filepath.Base(v.Path)
}

// Session is safe for concurrent use
type Session struct {
	policy FailurePolicy

	mu         sync.Mutex
	video      *Video
	clips      clips.Set
	resolving  bool
	generation int
}

// New creates an empty session
func New(policy FailurePolicy) *Session {
	return &Session{policy: policy}
}

// LoadVideo replaces the source video and clears the clip set
func (s *Session) LoadVideo(path string, duration float64) error {
	if path == "" {
		return errors.New("video path is required")
	}
	if !(duration > 0) {
		return fmt.Errorf("video duration must be positive, got %v", duration)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.video = &Video{Path: path, Duration: duration}
	s.clips = clips.Set{}
	s.generation++
	return nil
}

// Video returns the loaded video
func (s *Session) Video() (Video, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.video == nil {
		return Video{}, false
	}
	return *s.video, true
}

// Clips returns the current clip set
func (s *Session) Clips() clips.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clips
}

// Resolving reports whether a prompt is being resolved
func (s *Session) Resolving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolving
}

// Submit resolves prompt against the loaded video and replaces the clip set
// wholesale on success.
func (s *Session) Submit(ctx context.Context, r Resolver, prompt string) (clips.Set, error) {
	s.mu.Lock()
	if s.video == nil {
		s.mu.Unlock()
		return clips.Set{}, ErrNoVideo
	}
	if s.resolving {
		s.mu.Unlock()
		return clips.Set{}, ErrResolving
	}
	s.resolving = true
	gen := s.generation
	duration := s.video.Duration
	s.mu.Unlock()

	set, err := r.Resolve(ctx, prompt, duration)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolving = false
	if gen != s.generation {
		return clips.Set{}, ErrVideoChanged
	}
	if err != nil {
		if s.policy == ClearOnFailure {
			s.clips = clips.Set{}
		}
		return clips.Set{}, err
	}
	s.clips = set
	return set, nil
}

// SetClips installs a set built elsewhere, e.g. loaded from a clip file,
// after checking it against the loaded video.
func (s *Session) SetClips(set clips.Set) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.video == nil {
		return ErrNoVideo
	}
	checked, err := clips.NewSet(set.Clips(), s.video.Duration)
	if err != nil {
		return fmt.Errorf("clips do not fit %s: %w", s.video.Name(), err)
	}
	s.clips = checked
	return nil
}

// RemoveClip drops the clip at zero-based index i
func (s *Session) RemoveClip(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.clips.Without(i)
	if err != nil {
		return err
	}
	s.clips = next
	return nil
}
