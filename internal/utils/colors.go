package utils

import "os"

// Terminal color codes using ANSI escape sequences
const (
	ResetColor   = "\033[0m"
	RedColor     = "\033[31m" // errors
	GreenColor   = "\033[32m" // success
	YellowColor  = "\033[33m" // warnings
	BlueColor    = "\033[34m" // info
	MagentaColor = "\033[35m" // progress labels
	CyanColor    = "\033[36m" // debug
)

// ColorsEnabled is false when NO_COLOR is set (https://no-color.org)
var ColorsEnabled = os.Getenv("NO_COLOR") == ""

// ColoredText wraps text with color codes and reset at the end
func ColoredText(text string, color string) string {
	if !ColorsEnabled {
		return text
	}
	return color + text + ResetColor
}

// Info returns blue-colored text
func Info(text string) string {
	return ColoredText(text, BlueColor)
}

// Success returns green-colored text
func Success(text string) string {
	return ColoredText(text, GreenColor)
}

// Warning returns yellow-colored text
func Warning(text string) string {
	return ColoredText(text, YellowColor)
}

// Error returns red-colored text
func Error(text string) string {
	return ColoredText(text, RedColor)
}

// Highlight returns magenta-colored text
func Highlight(text string) string {
	return ColoredText(text, MagentaColor)
}

// Debug returns cyan-colored text
func Debug(text string) string {
	return ColoredText(text, CyanColor)
}
