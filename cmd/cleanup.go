package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gnzdotmx/smartscenecutter/internal/engine"
	"github.com/gnzdotmx/smartscenecutter/pkg/workflow"

	"github.com/spf13/cobra"
)

// scratch dirs younger than this may belong to a running export
const minScratchAge = time.Hour

var (
	outputDir      string
	workDir        string
	keepLatest     int
	olderThanHours int
	cleanupDryRun  bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove leftover scratch directories and old runs",
	Long: `Remove scenecutter-* scratch directories left behind by interrupted
exports and, with --dir, old batch run folders based on age or count.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if workDir == "" {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			workDir = cfg.WorkDir
		}
		if workDir == "" {
			workDir = os.TempDir()
		}

		now := time.Now()
		scratchAge := minScratchAge
		if olderThanHours > 0 {
			scratchAge = time.Duration(olderThanHours) * time.Hour
		}
		toDelete, err := staleScratchDirs(workDir, now.Add(-scratchAge))
		if err != nil {
			return err
		}

		if outputDir != "" {
			if _, err := os.Stat(outputDir); os.IsNotExist(err) {
				return fmt.Errorf("output directory %s does not exist", outputDir)
			}
			entries, err := os.ReadDir(outputDir)
			if err != nil {
				return fmt.Errorf("failed to read output directory: %w", err)
			}
			var runDirs []string
			for _, entry := range entries {
				if entry.IsDir() {
					runDirs = append(runDirs, entry.Name())
				}
			}
			var cutoff time.Time
			if olderThanHours > 0 {
				cutoff = now.Add(-time.Duration(olderThanHours) * time.Hour)
			}
			for _, name := range selectRunDirs(runDirs, keepLatest, cutoff) {
				toDelete = append(toDelete, filepath.Join(outputDir, name))
			}
		}

		if len(toDelete) == 0 {
			fmt.Println("No directories to delete.")
			return nil
		}

		fmt.Printf("Found %d directories to delete:\n", len(toDelete))
		for _, dir := range toDelete {
			fmt.Printf("- %s\n", dir)
		}

		if cleanupDryRun {
			fmt.Println("Dry run - no directories were deleted.")
			return nil
		}

		for _, dir := range toDelete {
			fmt.Printf("Deleting %s...\n", dir)
			if err := os.RemoveAll(dir); err != nil {
				fmt.Printf("Error deleting %s: %v\n", dir, err)
			}
		}

		fmt.Println("Cleanup completed.")
		return nil
	},
}

// staleScratchDirs lists engine scratch directories in dir last modified before cutoff
func staleScratchDirs(dir string, cutoff time.Time) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read work directory: %w", err)
	}
	var stale []string
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), engine.ScratchPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			stale = append(stale, filepath.Join(dir, entry.Name()))
		}
	}
	return stale, nil
}

// runTime parses the <name>-YYYYMMDD-HHMMSS suffix of a run directory
func runTime(name string) (time.Time, bool) {
	if len(name) < len(workflow.TimestampFormat)+2 {
		return time.Time{}, false
	}
	suffix := name[len(name)-len(workflow.TimestampFormat):]
	if name[len(name)-len(workflow.TimestampFormat)-1] != '-' {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(workflow.TimestampFormat, suffix, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// selectRunDirs picks the run directories to delete: all but the keep newest
// ones, plus every run started before cutoff. Names without a run timestamp
// are never selected.
func selectRunDirs(names []string, keep int, cutoff time.Time) []string {
	type run struct {
		name string
		at   time.Time
	}
	var runs []run
	for _, n := range names {
		if t, ok := runTime(n); ok {
			runs = append(runs, run{n, t})
		}
	}
	// oldest first
	sort.Slice(runs, func(i, j int) bool { return runs[i].at.Before(runs[j].at) })

	var out []string
	for i, r := range runs {
		tooMany := keep > 0 && i < len(runs)-keep
		tooOld := !cutoff.IsZero() && r.at.Before(cutoff)
		if tooMany || tooOld {
			out = append(out, r.name)
		}
	}
	return out
}

func init() {
	cleanupCmd.Flags().StringVarP(&outputDir, "dir", "d", "", "Output directory whose run folders should be pruned")
	cleanupCmd.Flags().StringVar(&workDir, "work-dir", "", "Directory holding export scratch folders (default from config, else the system temp dir)")
	cleanupCmd.Flags().IntVarP(&keepLatest, "keep-latest", "k", 0, "Keep this many latest run folders")
	cleanupCmd.Flags().IntVarP(&olderThanHours, "older-than", "o", 0, "Delete folders older than this many hours")
	cleanupCmd.Flags().BoolVarP(&cleanupDryRun, "dry-run", "n", false, "Show what would be deleted without actually deleting")
	rootCmd.AddCommand(cleanupCmd)
}
