// Package engine executes export plans with a local ffmpeg process working
// in a private scratch directory.
package engine

import (
	"context"

	"github.com/gnzdotmx/smartscenecutter/internal/export"
)

// Engine is a media tool with its own file namespace
type Engine interface {
	// Mount makes the file at path available under name
	Mount(name, path string) error
	// WriteFile creates name with data
	WriteFile(name string, data []byte) error
	// Exec runs one invocation; progress receives fractions in [0,1]
	Exec(ctx context.Context, inv export.Invocation, progress func(float64)) error
	// Export hands name out to dst and returns its size
	Export(name, dst string) (int64, error)
	// Remove deletes name
	Remove(name string) error
	// Close releases every file the engine still holds
	Close() error
}

// Factory creates a fresh engine for one job
type Factory func(jobID string) (Engine, error)
