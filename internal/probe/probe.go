// Package probe reads media metadata with ffprobe.
package probe

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ErrNoDuration is returned when the container reports no usable length
var ErrNoDuration = errors.New("no duration found in video")

// probeFunc allows us to mock ffprobe in tests
var probeFunc = func(path string) (string, error) {
	return ffmpeg.Probe(path)
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Duration  string `json:"duration"`
	} `json:"streams"`
}

// Duration returns the length of the video at path in seconds. The
// container duration is preferred, then the first video stream's.
func Duration(path string) (float64, error) {
	raw, err := probeFunc(path)
	if err != nil {
		return 0, fmt.Errorf("error probing video: %w", err)
	}

	var out probeOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if d, ok := parseDuration(out.Format.Duration); ok {
		return d, nil
	}
	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}
		if d, ok := parseDuration(s.Duration); ok {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrNoDuration, path)
}

func parseDuration(s string) (float64, bool) {
	d, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !(d > 0) {
		return 0, false
	}
	return d, true
}
