// Package timecode converts between second counts and HH:MM:SS timestamps.
//
// Hours are not bounded at 23: a ninety-hour recording is "90:00:00".
package timecode

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// ErrMalformedTimestamp is returned when text is not H+:MM:SS
var ErrMalformedTimestamp = errors.New("malformed timestamp")

var timestampPattern = regexp.MustCompile(`^(\d+):([0-5]\d):([0-5]\d)$`)

// FromSeconds formats a second count as HH:MM:SS, truncating every field.
// Negative and NaN input is treated as zero.
func FromSeconds(total float64) string {
	if math.IsNaN(total) || total < 0 {
		total = 0
	}
	if math.IsInf(total, 1) || total > math.MaxInt64/2 {
		total = math.MaxInt64 / 2
	}

	whole := int64(math.Floor(total))
	hours := whole / 3600
	minutes := (whole % 3600) / 60
	seconds := whole % 60

	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// ToSeconds parses HH:MM:SS (hours of any digit length) into seconds
func ToSeconds(s string) (int, error) {
	m := timestampPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q (expected HH:MM:SS)", ErrMalformedTimestamp, s)
	}

	hours, err := strconv.Atoi(m[1])
	if err != nil || hours > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %q (hours out of range)", ErrMalformedTimestamp, s)
	}
	// the pattern guarantees two digits each
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])

	return hours*3600 + minutes*60 + seconds, nil
}

// Span returns end-start in seconds. It does not check ordering.
func Span(start, end string) (int, error) {
	s, err := ToSeconds(start)
	if err != nil {
		return 0, err
	}
	e, err := ToSeconds(end)
	if err != nil {
		return 0, err
	}
	return e - s, nil
}
