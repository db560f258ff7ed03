package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// LogLevel represents the level of logging verbosity
type LogLevel int

const (
	// LevelQuiet suppresses all output except errors
	LevelQuiet LogLevel = iota
	// LevelNormal shows standard progress
	LevelNormal
	// LevelVerbose shows every generated invocation
	LevelVerbose
	// LevelDebug shows all debugging information, including raw service responses
	LevelDebug
)

var (
	// CurrentLogLevel is the global log level setting
	CurrentLogLevel LogLevel = LevelNormal

	// Stdout and Stderr are where log lines go; tests swap them for buffers
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// SetLogLevel sets the global logging level
func SetLogLevel(level LogLevel) {
	CurrentLogLevel = level
}

// LogLevelFromString converts a string level name to LogLevel
func LogLevelFromString(level string) LogLevel {
	switch strings.ToLower(level) {
	case "quiet", "q":
		return LevelQuiet
	case "normal", "n":
		return LevelNormal
	case "verbose", "v":
		return LevelVerbose
	case "debug", "d":
		return LevelDebug
	default:
		return LevelNormal
	}
}

func (l LogLevel) String() string {
	switch l {
	case LevelQuiet:
		return "quiet"
	case LevelVerbose:
		return "verbose"
	case LevelDebug:
		return "debug"
	default:
		return "normal"
	}
}

// LogError logs an error message (always shown)
func LogError(format string, args ...interface{}) {
	fmt.Fprintf(Stderr, "%s\n", Error(fmt.Sprintf(format, args...)))
}

// LogInfo logs an informational message at Normal+ level
func LogInfo(format string, args ...interface{}) {
	if CurrentLogLevel >= LevelNormal {
		fmt.Fprintf(Stdout, "%s\n", Info(fmt.Sprintf(format, args...)))
	}
}

// LogSuccess logs a success message at Normal+ level
func LogSuccess(format string, args ...interface{}) {
	if CurrentLogLevel >= LevelNormal {
		fmt.Fprintf(Stdout, "%s\n", Success(fmt.Sprintf(format, args...)))
	}
}

// LogVerbose logs a message at Verbose+ level
func LogVerbose(format string, args ...interface{}) {
	if CurrentLogLevel >= LevelVerbose {
		fmt.Fprintf(Stdout, "\t%s\n", Info(fmt.Sprintf(format, args...)))
	}
}

// LogDebug logs a debug message at Debug level
func LogDebug(format string, args ...interface{}) {
	if CurrentLogLevel >= LevelDebug {
		fmt.Fprintf(Stdout, "\t%s\n", Debug(fmt.Sprintf(format, args...)))
	}
}

// LogWarning logs a warning message at Normal+ level
func LogWarning(format string, args ...interface{}) {
	if CurrentLogLevel >= LevelNormal {
		fmt.Fprintf(Stdout, "%s\n", Warning(fmt.Sprintf(format, args...)))
	}
}

// LogProgress rewrites the current terminal line with a percentage bar.
// A final newline is printed once the bar reaches 100.
func LogProgress(label string, percent int) {
	if CurrentLogLevel < LevelNormal {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent / 5
	bar := strings.Repeat("#", filled) + strings.Repeat(".", 20-filled)
	fmt.Fprintf(Stdout, "\r%s [%s] %3d%%", Highlight(label), bar, percent)
	if percent == 100 {
		fmt.Fprintln(Stdout)
	}
}
