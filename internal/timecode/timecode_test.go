package timecode

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSeconds(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{name: "zero", seconds: 0, want: "00:00:00"},
		{name: "one hour one minute one second", seconds: 3661, want: "01:01:01"},
		{name: "hour rollover beyond 24", seconds: 90061, want: "25:01:01"},
		{name: "fraction truncated", seconds: 59.999, want: "00:00:59"},
		{name: "minute boundary", seconds: 60, want: "00:01:00"},
		{name: "three digit hours", seconds: 360000, want: "100:00:00"},
		{name: "negative clamps to zero", seconds: -5, want: "00:00:00"},
		{name: "NaN clamps to zero", seconds: math.NaN(), want: "00:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromSeconds(tt.seconds))
		})
	}
}

func TestToSeconds(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "canonical", input: "00:05:30", want: 330},
		{name: "single digit hours", input: "1:10:05", want: 4205},
		{name: "long hours", input: "123:00:01", want: 442801},
		{name: "max fields", input: "23:59:59", want: 86399},
		{name: "minutes out of range", input: "00:60:00", wantErr: true},
		{name: "seconds out of range", input: "00:00:60", wantErr: true},
		{name: "shorthand mm:ss", input: "2:30", wantErr: true},
		{name: "single digit minutes", input: "00:1:00", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "negative", input: "-1:00:00", wantErr: true},
		{name: "fractional seconds", input: "00:00:01.5", wantErr: true},
		{name: "surrounding space", input: " 00:00:01", wantErr: true},
		{name: "non numeric", input: "ab:cd:ef", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToSeconds(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedTimestamp)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for n := 0; n < 200000; n += 37 {
		got, err := ToSeconds(FromSeconds(float64(n)))
		require.NoError(t, err)
		require.Equal(t, n, got, "round trip of %d", n)
	}

	for _, n := range []int{0, 59, 60, 3599, 3600, 86399, 86400, 90061, 10_000_000} {
		got, err := ToSeconds(FromSeconds(float64(n)))
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
}

func TestSpan(t *testing.T) {
	span, err := Span("00:05:00", "00:05:30")
	require.NoError(t, err)
	assert.Equal(t, 30, span)

	span, err = Span("00:05:00", "00:04:00")
	require.NoError(t, err)
	assert.Equal(t, -60, span)

	_, err = Span("5:00", "00:04:00")
	assert.ErrorIs(t, err, ErrMalformedTimestamp)
}
