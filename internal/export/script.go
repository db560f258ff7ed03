package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gnzdotmx/smartscenecutter/internal/utils"
)

// Tool is the media tool invoked by generated scripts
const Tool = "ffmpeg"

// ScriptName is the file name a script uses for a generated file. Scripts
// quote it like the source name.
func ScriptName(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

// RenderScript spells plan in dialect d. Every step becomes exactly one
// line, except the manifest which uses the dialect's own idiom.
func RenderScript(plan Plan, d Dialect) string {
	var lines []string
	lines = append(lines, d.Header...)
	lines = append(lines,
		fmt.Sprintf("%s Generated by smartscenecutter", d.Comment),
		fmt.Sprintf("%s Source: %s | mode: %s | invocations: %d", d.Comment, plan.Source, plan.Mode, len(plan.Invocations())),
	)

	for _, step := range plan.Steps {
		switch st := step.(type) {
		case Cut:
			lines = append(lines, toolLine(d, []string{
				"-i", d.Quote(st.Input),
				"-ss", st.Start,
				"-to", st.End,
				"-c", "copy",
				d.Quote(ScriptName(st.Output)),
			}))
		case WriteManifest:
			entries := make([]string, len(st.Entries))
			for i, e := range st.Entries {
				entries[i] = ManifestLine(ScriptName(e))
			}
			lines = append(lines, d.Manifest(d.Quote(ScriptName(st.Name)), entries)...)
		case Concat:
			lines = append(lines, toolLine(d, []string{
				"-f", "concat",
				"-safe", "0",
				"-i", d.Quote(ScriptName(st.Manifest)),
				"-c", "copy",
				d.Quote(ScriptName(st.Output)),
			}))
		case Delete:
			lines = append(lines, d.Delete+" "+d.Quote(ScriptName(st.Name)))
		}
	}

	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(d.Escape(l))
		sb.WriteString(d.LineEnd)
	}
	return sb.String()
}

func toolLine(d Dialect, args []string) string {
	return Tool + " " + strings.Join(args, " ") + d.ToolSuffix
}

// WriteScripts renders plan in each dialect into dir and returns the paths written
func WriteScripts(plan Plan, dir string, dialects ...Dialect) ([]string, error) {
	if len(dialects) == 0 {
		dialects = Dialects
	}
	paths := make([]string, 0, len(dialects))
	for _, d := range dialects {
		path := filepath.Join(dir, d.FileName)
		if err := utils.WriteTextFile(path, RenderScript(plan, d), d.Perm); err != nil {
			return paths, fmt.Errorf("failed to write %s script: %w", d.Name, err)
		}
		utils.LogVerbose("Wrote %s", path)
		paths = append(paths, path)
	}
	return paths, nil
}
