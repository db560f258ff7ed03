package export

import (
	"fmt"
	"strings"
)

// Mode selects how clips are written out
type Mode string

const (
	// Separate writes one file per clip
	Separate Mode = "separate"
	// Merged concatenates all clips into one file
	Merged Mode = "merged"
)

// ParseMode accepts "separate" or "merged", case-insensitively
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Separate:
		return Separate, nil
	case Merged:
		return Merged, nil
	}
	return "", fmt.Errorf("unknown export mode %q (expected %q or %q)", s, Separate, Merged)
}

func (m Mode) String() string {
	return string(m)
}
