package probe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration(t *testing.T) {
	original := probeFunc
	t.Cleanup(func() { probeFunc = original })

	tests := []struct {
		name    string
		output  string
		err     error
		want    float64
		wantErr error
	}{
		{
			name:   "format duration",
			output: `{"format":{"duration":"600.040000"},"streams":[{"codec_type":"video","duration":"599.9"}]}`,
			want:   600.04,
		},
		{
			name:   "falls back to video stream",
			output: `{"format":{},"streams":[{"codec_type":"audio","duration":"12.0"},{"codec_type":"video","duration":"11.5"}]}`,
			want:   11.5,
		},
		{
			name:    "no duration",
			output:  `{"format":{"duration":"N/A"},"streams":[]}`,
			wantErr: ErrNoDuration,
		},
		{
			name: "probe failure",
			err:  errors.New("exit status 1"),
		},
		{
			name:   "garbage",
			output: "not json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probeFunc = func(string) (string, error) { return tt.output, tt.err }

			got, err := Duration("movie.mp4")
			if tt.want == 0 {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
