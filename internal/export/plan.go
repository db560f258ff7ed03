// Package export derives the ordered ffmpeg invocations for a clip set and
// renders them either for direct execution or as shell scripts.
package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gnzdotmx/smartscenecutter/internal/clips"
	"github.com/gnzdotmx/smartscenecutter/internal/timecode"
)

// ManifestName is the concat list written in merged mode
const ManifestName = "filelist.txt"

const defaultExt = ".mp4"

// ErrEmptyClipSet is returned when there is nothing to export
var ErrEmptyClipSet = errors.New("clip set is empty")

// StepKind identifies a plan step
type StepKind int

const (
	KindCut StepKind = iota
	KindWriteManifest
	KindConcat
	KindDelete
)

func (k StepKind) String() string {
	switch k {
	case KindCut:
		return "cut"
	case KindWriteManifest:
		return "manifest"
	case KindConcat:
		return "concat"
	case KindDelete:
		return "delete"
	}
	return fmt.Sprintf("StepKind(%d)", int(k))
}

// Step is one action of a plan
type Step interface {
	Kind() StepKind
}

// Invocation is one run of the media tool
type Invocation struct {
	Args   []string
	Output string
	// Seconds is the expected media length of Output, used for progress
	Seconds int
}

// Cut stream-copies [Start, End] of Input into Output
type Cut struct {
	Input   string
	Start   string
	End     string
	Output  string
	Seconds int
}

func (Cut) Kind() StepKind { return KindCut }

// Args returns the tool arguments for the cut
func (c Cut) Args() []string {
	return []string{"-i", c.Input, "-ss", c.Start, "-to", c.End, "-c", "copy", c.Output}
}

// Invocation returns the cut as a tool invocation
func (c Cut) Invocation() Invocation {
	return Invocation{Args: c.Args(), Output: c.Output, Seconds: c.Seconds}
}

// WriteManifest creates the concat list naming Entries in order
type WriteManifest struct {
	Name    string
	Entries []string
}

func (WriteManifest) Kind() StepKind { return KindWriteManifest }

// Lines returns one `file '<name>'` line per entry
func (w WriteManifest) Lines() []string {
	lines := make([]string, len(w.Entries))
	for i, e := range w.Entries {
		lines[i] = ManifestLine(e)
	}
	return lines
}

// Content returns the manifest file body
func (w WriteManifest) Content() string {
	return strings.Join(w.Lines(), "\n") + "\n"
}

// ManifestLine quotes one entry the way the concat demuxer expects
func ManifestLine(name string) string {
	return fmt.Sprintf("file '%s'", strings.ReplaceAll(name, "'", `'\''`))
}

// Concat joins the files listed in Manifest into Output
type Concat struct {
	Manifest string
	Output   string
	Seconds  int
}

func (Concat) Kind() StepKind { return KindConcat }

// Args returns the tool arguments for the concatenation
func (c Concat) Args() []string {
	return []string{"-f", "concat", "-safe", "0", "-i", c.Manifest, "-c", "copy", c.Output}
}

// Invocation returns the concatenation as a tool invocation
func (c Concat) Invocation() Invocation {
	return Invocation{Args: c.Args(), Output: c.Output, Seconds: c.Seconds}
}

// Delete removes an intermediate file; failure is not fatal
type Delete struct {
	Name string
}

func (Delete) Kind() StepKind { return KindDelete }

// Plan is the full ordered step list for one export
type Plan struct {
	Source  string
	Mode    Mode
	Steps   []Step
	Outputs []string
}

// CutCommand builds the shared cut primitive for one clip
func CutCommand(source string, c clips.Clip, output string) Cut {
	seconds, _ := timecode.Span(c.StartTime, c.EndTime)
	return Cut{
		Input:   source,
		Start:   c.StartTime,
		End:     c.EndTime,
		Output:  output,
		Seconds: seconds,
	}
}

// SeparateName is the output name of clip i (1-based) in separate mode
func SeparateName(i int, source string) string {
	return fmt.Sprintf("clip_%d_%s", i, withExt(source))
}

// withExt gives an extensionless name the default container so ffmpeg
// can pick a muxer for it
func withExt(name string) string {
	if filepath.Ext(name) == "" {
		return name + defaultExt
	}
	return name
}

// TempName is the intermediate name of clip i (1-based) in merged mode
func TempName(i int, source string) string {
	ext := filepath.Ext(source)
	if ext == "" {
		ext = defaultExt
	}
	return fmt.Sprintf("temp_%d%s", i, ext)
}

// MergedName is the output name in merged mode
func MergedName(source string) string {
	return "merged_" + withExt(source)
}

// BuildPlan derives the export steps for set. Only the base name of
// sourceFile is used.
func BuildPlan(set clips.Set, sourceFile string, mode Mode) (Plan, error) {
	source := filepath.Base(strings.TrimSpace(sourceFile))
	if sourceFile == "" || source == "." || source == string(filepath.Separator) {
		return Plan{}, errors.New("source file name is required")
	}
	if set.IsEmpty() {
		return Plan{}, ErrEmptyClipSet
	}

	plan := Plan{Source: source, Mode: mode}
	switch mode {
	case Separate:
		for i, c := range set.Clips() {
			out := SeparateName(i+1, source)
			plan.Steps = append(plan.Steps, CutCommand(source, c, out))
			plan.Outputs = append(plan.Outputs, out)
		}
	case Merged:
		temps := make([]string, 0, set.Len())
		for i, c := range set.Clips() {
			tmp := TempName(i+1, source)
			temps = append(temps, tmp)
			plan.Steps = append(plan.Steps, CutCommand(source, c, tmp))
		}
		out := MergedName(source)
		plan.Steps = append(plan.Steps,
			WriteManifest{Name: ManifestName, Entries: temps},
			Concat{Manifest: ManifestName, Output: out, Seconds: set.TotalSeconds()},
		)
		for _, tmp := range temps {
			plan.Steps = append(plan.Steps, Delete{Name: tmp})
		}
		plan.Steps = append(plan.Steps, Delete{Name: ManifestName})
		plan.Outputs = []string{out}
	default:
		return Plan{}, fmt.Errorf("unknown export mode %q", mode)
	}
	return plan, nil
}

// Invocations returns the tool runs of the plan in order
func (p Plan) Invocations() []Invocation {
	var out []Invocation
	for _, s := range p.Steps {
		switch st := s.(type) {
		case Cut:
			out = append(out, st.Invocation())
		case Concat:
			out = append(out, st.Invocation())
		}
	}
	return out
}

// Temporaries lists every intermediate file the plan creates
func (p Plan) Temporaries() []string {
	var out []string
	for _, s := range p.Steps {
		if d, ok := s.(Delete); ok {
			out = append(out, d.Name)
		}
	}
	return out
}
