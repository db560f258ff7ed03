package engine

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gnzdotmx/smartscenecutter/internal/clips"
	"github.com/gnzdotmx/smartscenecutter/internal/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var originalExecCommand = execCommand

// failOn makes the helper process fail when the output name contains it
var failOn string

func setupTest(t *testing.T) {
	t.Helper()
	failOn = ""
	execCommand = fakeExecCommand
	t.Cleanup(func() {
		execCommand = originalExecCommand
	})
}

func fakeExecCommand(ctx context.Context, command string, args ...string) *exec.Cmd {
	cs := []string{"-test.run=TestHelperProcess", "--", command}
	cs = append(cs, args...)
	cmd := exec.CommandContext(ctx, os.Args[0], cs...)
	cmd.Env = []string{"GO_WANT_HELPER_PROCESS=1", "HELPER_FAIL_ON=" + failOn}
	return cmd
}

func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

// TestHelperProcess is not a real test, it's used to mock exec.Command.
// It behaves like a tiny ffmpeg: cuts append the range to the input text
// and concat joins the files named in the manifest.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	args = args[2:]
	output := args[len(args)-1]

	if fail := os.Getenv("HELPER_FAIL_ON"); fail != "" && strings.Contains(output, fail) {
		fmt.Fprintf(os.Stderr, "%s: Invalid data found when processing input\n", output)
		os.Exit(1)
	}

	input := argAfter(args, "-i")
	data, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: No such file or directory\n", input)
		os.Exit(1)
	}

	var content strings.Builder
	if argAfter(args, "-f") == "concat" {
		scanner := bufio.NewScanner(strings.NewReader(string(data)))
		for scanner.Scan() {
			name := strings.TrimSuffix(strings.TrimPrefix(scanner.Text(), "file '"), "'")
			part, err := os.ReadFile(name)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: No such file or directory\n", name)
				os.Exit(1)
			}
			content.Write(part)
		}
	} else {
		fmt.Fprintf(&content, "%s[%s-%s]\n", strings.TrimSpace(string(data)), argAfter(args, "-ss"), argAfter(args, "-to"))
	}

	if err := os.WriteFile(output, []byte(content.String()), 0644); err != nil {
		os.Exit(1)
	}
	fmt.Println("frame=10")
	fmt.Println("out_time_us=5000000")
	fmt.Println("progress=continue")
	fmt.Println("progress=end")
	os.Exit(0)
}

type fixture struct {
	workDir   string
	outputDir string
	source    string
	set       clips.Set
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	source := filepath.Join(root, "movie.mp4")
	require.NoError(t, os.WriteFile(source, []byte("SRC"), 0644))

	set, err := clips.NewSet([]clips.Clip{
		{StartTime: "00:00:10", EndTime: "00:01:00", Origin: clips.Manual},
		{StartTime: "00:05:00", EndTime: "00:05:30", Origin: clips.AIDetected},
	}, 600)
	require.NoError(t, err)

	return fixture{
		workDir:   filepath.Join(root, "work"),
		outputDir: filepath.Join(root, "out"),
		source:    source,
		set:       set,
	}
}

func (f fixture) scratchDirs(t *testing.T) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(f.workDir, ScratchPrefix+"*"))
	require.NoError(t, err)
	return matches
}

func TestRunner_Merged(t *testing.T) {
	setupTest(t)
	f := newFixture(t)

	plan, err := export.BuildPlan(f.set, f.source, export.Merged)
	require.NoError(t, err)

	var progress []int
	runner := NewRunner(NewFFmpegFactory(f.workDir, "ffmpeg"))
	res, err := runner.Run(context.Background(), plan, Options{
		SourcePath: f.source,
		OutputDir:  f.outputDir,
		OnProgress: func(p int) { progress = append(progress, p) },
	})
	require.NoError(t, err)
	require.Len(t, res.Outputs, 1)
	assert.NotEmpty(t, res.JobID)
	assert.Equal(t, "merged_movie.mp4", res.Outputs[0].Name)

	data, err := os.ReadFile(filepath.Join(f.outputDir, "merged_movie.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "SRC[00:00:10-00:01:00]\nSRC[00:05:00-00:05:30]\n", string(data))
	assert.Equal(t, int64(len(data)), res.Outputs[0].Size)

	assert.Empty(t, f.scratchDirs(t), "scratch directory is removed")
	assert.False(t, runner.Busy())

	require.NotEmpty(t, progress)
	assert.Equal(t, 100, progress[len(progress)-1])
	for _, p := range progress {
		assert.GreaterOrEqual(t, p, 0)
		assert.LessOrEqual(t, p, 100)
	}
	// 5s of a 50s cut
	assert.Contains(t, progress, 10)
}

func TestRunner_Separate(t *testing.T) {
	setupTest(t)
	f := newFixture(t)

	plan, err := export.BuildPlan(f.set, f.source, export.Separate)
	require.NoError(t, err)

	res, err := NewRunner(NewFFmpegFactory(f.workDir, "")).Run(context.Background(), plan, Options{
		SourcePath: f.source,
		OutputDir:  f.outputDir,
	})
	require.NoError(t, err)
	require.Len(t, res.Outputs, 2)

	for i, want := range []string{"SRC[00:00:10-00:01:00]\n", "SRC[00:05:00-00:05:30]\n"} {
		data, err := os.ReadFile(res.Outputs[i].Path)
		require.NoError(t, err)
		assert.Equal(t, want, string(data))
	}
}

func TestRunner_FailureAbortsAndCleansUp(t *testing.T) {
	tests := []struct {
		name   string
		mode   export.Mode
		failOn string
	}{
		{name: "second cut in merged mode", mode: export.Merged, failOn: "temp_2"},
		{name: "concat in merged mode", mode: export.Merged, failOn: "merged_"},
		{name: "second clip in separate mode", mode: export.Separate, failOn: "clip_2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTest(t)
			failOn = tt.failOn
			f := newFixture(t)

			plan, err := export.BuildPlan(f.set, f.source, tt.mode)
			require.NoError(t, err)

			res, err := NewRunner(NewFFmpegFactory(f.workDir, "ffmpeg")).Run(context.Background(), plan, Options{
				SourcePath: f.source,
				OutputDir:  f.outputDir,
			})
			require.ErrorIs(t, err, ErrExportFailed)
			assert.Contains(t, err.Error(), "Invalid data found when processing input")
			assert.Nil(t, res)

			entries, _ := os.ReadDir(f.outputDir)
			assert.Empty(t, entries, "partial outputs are removed")
			assert.Empty(t, f.scratchDirs(t))
		})
	}
}

func TestFFmpegEngine_MissingInput(t *testing.T) {
	setupTest(t)
	eng, err := NewFFmpegEngine(t.TempDir(), "ffmpeg", "job")
	require.NoError(t, err)
	defer func() { _ = eng.Close() }()

	cut := export.Cut{Input: "input_missing.mp4", Start: "00:00:00", End: "00:00:01", Output: "out.mp4", Seconds: 1}
	err = eng.Exec(context.Background(), cut.Invocation(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input_missing.mp4: No such file or directory")
}

func TestFFmpegEngine_RejectsPathNames(t *testing.T) {
	eng, err := NewFFmpegEngine(t.TempDir(), "ffmpeg", "job")
	require.NoError(t, err)
	defer func() { _ = eng.Close() }()

	assert.Error(t, eng.WriteFile("../escape.txt", []byte("x")))
	assert.Error(t, eng.Remove(""))
	assert.NoError(t, eng.Remove("never-created.mp4"))
}

func TestReadProgress(t *testing.T) {
	stream := "frame=1\nout_time_ms=15000000\nout_time_us=30000000\nout_time_us=N/A\nprogress=continue\nprogress=end\n"
	var got []float64
	readProgress(strings.NewReader(stream), 60, func(f float64) { got = append(got, f) })
	assert.Equal(t, []float64{0.25, 0.5, 1}, got)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, Percent(-0.3))
	assert.Equal(t, 50, Percent(0.504))
	assert.Equal(t, 51, Percent(0.506))
	assert.Equal(t, 100, Percent(1.7))
}
