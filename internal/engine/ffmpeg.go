package engine

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gnzdotmx/smartscenecutter/internal/export"
	"github.com/gnzdotmx/smartscenecutter/internal/utils"
)

// ScratchPrefix starts the name of every job scratch directory
const ScratchPrefix = "scenecutter-"

// execCommand allows us to mock exec.CommandContext in tests
var execCommand = exec.CommandContext

// baseArgs precede every invocation's own arguments
var baseArgs = []string{"-hide_banner", "-nostdin", "-y", "-loglevel", "error", "-progress", "pipe:1"}

// FFmpegEngine runs ffmpeg inside a scratch directory
type FFmpegEngine struct {
	binary string
	dir    string
}

// NewFFmpegEngine creates the scratch directory for jobID under workDir
func NewFFmpegEngine(workDir, binary, jobID string) (*FFmpegEngine, error) {
	if workDir == "" {
		workDir = os.TempDir()
	}
	if binary == "" {
		binary = export.Tool
	}
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	dir := filepath.Join(workDir, ScratchPrefix+jobID)
	if err := os.Mkdir(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	utils.LogDebug("Scratch directory: %s", dir)
	return &FFmpegEngine{binary: binary, dir: dir}, nil
}

// NewFFmpegFactory returns a Factory creating FFmpegEngines under workDir
func NewFFmpegFactory(workDir, binary string) Factory {
	return func(jobID string) (Engine, error) {
		return NewFFmpegEngine(workDir, binary, jobID)
	}
}

// Dir returns the scratch directory
func (e *FFmpegEngine) Dir() string {
	return e.dir
}

func (e *FFmpegEngine) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid engine file name %q", name)
	}
	return filepath.Join(e.dir, name), nil
}

// Mount links path into the scratch directory, copying when links are unavailable
func (e *FFmpegEngine) Mount(name, path string) error {
	dst, err := e.path(name)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if err := os.Symlink(abs, dst); err == nil {
		return nil
	}
	utils.LogDebug("Symlink unavailable, copying %s", path)
	return utils.CopyFile(abs, dst)
}

// WriteFile creates name in the scratch directory
func (e *FFmpegEngine) WriteFile(name string, data []byte) error {
	dst, err := e.path(name)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

// Exec runs ffmpeg with inv.Args and reports progress parsed from -progress output
func (e *FFmpegEngine) Exec(ctx context.Context, inv export.Invocation, progress func(float64)) error {
	args := append(append([]string{}, baseArgs...), inv.Args...)
	cmd := execCommand(ctx, e.binary, args...)
	cmd.Dir = e.dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open ffmpeg output: %w", err)
	}

	utils.LogVerbose("Running %s %s", e.binary, strings.Join(inv.Args, " "))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	readProgress(stdout, inv.Seconds, progress)

	if err := cmd.Wait(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w", msg, err)
		}
		return err
	}
	return nil
}

// readProgress consumes ffmpeg's key=value progress stream
func readProgress(r io.Reader, seconds int, progress func(float64)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if progress == nil {
			continue
		}
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "out_time_us", "out_time_ms":
			// both keys carry microseconds
			us, err := strconv.ParseInt(value, 10, 64)
			if err != nil || seconds <= 0 {
				continue
			}
			progress(float64(us) / 1e6 / float64(seconds))
		case "progress":
			if value == "end" {
				progress(1)
			}
		}
	}
	// drain so the process never blocks on a full pipe
	_, _ = io.Copy(io.Discard, r)
}

// Export moves name out of the scratch directory to dst
func (e *FFmpegEngine) Export(name, dst string) (int64, error) {
	src, err := e.path(name)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := utils.MoveFile(src, dst); err != nil {
		return 0, err
	}
	info, err := os.Stat(dst)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Remove deletes name from the scratch directory
func (e *FFmpegEngine) Remove(name string) error {
	p, err := e.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Close removes the scratch directory
func (e *FFmpegEngine) Close() error {
	return os.RemoveAll(e.dir)
}
