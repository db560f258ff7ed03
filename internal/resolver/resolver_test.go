package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gnzdotmx/smartscenecutter/internal/clips"
	"github.com/gnzdotmx/smartscenecutter/internal/services/llm"
	"github.com/gnzdotmx/smartscenecutter/internal/services/llm/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const validResponse = `[
  {"startTime": "00:02:00", "endTime": "00:04:30", "type": "Manual", "description": "2:00-4:30"},
  {"startTime": "00:07:10", "endTime": "00:07:40", "type": "AI-detected", "description": "fight scene"}
]`

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		prompt    string
		duration  float64
		setupMock func(*mocks.MockGenerator)
		wantErr   error
		wantClips int
	}{
		{
			name:     "valid response",
			prompt:   "Cut 2:00-4:30 and any fight scenes",
			duration: 600,
			setupMock: func(m *mocks.MockGenerator) {
				m.EXPECT().Generate(mock.Anything, mock.MatchedBy(func(r llm.Request) bool {
					return r.Model == "gemini-2.5-flash" &&
						r.UserContent == "Cut 2:00-4:30 and any fight scenes" &&
						strings.Contains(r.SystemInstruction, "00:10:00") &&
						r.Schema != nil && r.Schema.Type == "array"
				})).Return(validResponse, nil)
			},
			wantClips: 2,
		},
		{
			name:     "fenced response",
			prompt:   "Cut 2:00-4:30",
			duration: 600,
			setupMock: func(m *mocks.MockGenerator) {
				m.EXPECT().Generate(mock.Anything, mock.Anything).Return("```json\n"+validResponse+"\n```", nil)
			},
			wantClips: 2,
		},
		{
			name:     "empty array is a valid empty set",
			prompt:   "nothing",
			duration: 600,
			setupMock: func(m *mocks.MockGenerator) {
				m.EXPECT().Generate(mock.Anything, mock.Anything).Return("[]", nil)
			},
		},
		{
			name:      "empty prompt",
			prompt:    "   ",
			duration:  600,
			setupMock: func(m *mocks.MockGenerator) {},
			wantErr:   ErrInvalidPrompt,
		},
		{
			name:      "zero duration",
			prompt:    "cut",
			duration:  0,
			setupMock: func(m *mocks.MockGenerator) {},
			wantErr:   ErrInvalidPrompt,
		},
		{
			name:     "missing credential",
			prompt:   "cut",
			duration: 600,
			setupMock: func(m *mocks.MockGenerator) {
				m.EXPECT().Generate(mock.Anything, mock.Anything).
					Return("", fmt.Errorf("%w: API key not valid", llm.ErrConfiguration))
			},
			wantErr: ErrConfiguration,
		},
		{
			name:     "transport failure",
			prompt:   "cut",
			duration: 600,
			setupMock: func(m *mocks.MockGenerator) {
				m.EXPECT().Generate(mock.Anything, mock.Anything).Return("", errors.New("connection reset"))
			},
			wantErr: ErrResolutionFailed,
		},
		{
			name:     "end before start",
			prompt:   "cut 5:00-4:00",
			duration: 600,
			setupMock: func(m *mocks.MockGenerator) {
				m.EXPECT().Generate(mock.Anything, mock.Anything).
					Return(`[{"startTime":"00:05:00","endTime":"00:04:00","type":"Manual","description":"5:00-4:00"}]`, nil)
			},
			wantErr: ErrInvalidResponseShape,
		},
		{
			name:     "end past duration",
			prompt:   "cut the ending",
			duration: 600,
			setupMock: func(m *mocks.MockGenerator) {
				m.EXPECT().Generate(mock.Anything, mock.Anything).
					Return(`[{"startTime":"00:09:00","endTime":"00:11:00","type":"AI-detected","description":"ending"}]`, nil)
			},
			wantErr: ErrInvalidResponseShape,
		},
		{
			name:     "shorthand timestamp",
			prompt:   "cut 2:30",
			duration: 600,
			setupMock: func(m *mocks.MockGenerator) {
				m.EXPECT().Generate(mock.Anything, mock.Anything).
					Return(`[{"startTime":"2:30","endTime":"00:03:00","type":"Manual","description":"x"}]`, nil)
			},
			wantErr: ErrInvalidResponseShape,
		},
		{
			name:     "not json",
			prompt:   "cut",
			duration: 600,
			setupMock: func(m *mocks.MockGenerator) {
				m.EXPECT().Generate(mock.Anything, mock.Anything).Return("Sure! Here are your clips.", nil)
			},
			wantErr: ErrInvalidResponseShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := mocks.NewMockGenerator(t)
			tt.setupMock(gen)

			set, err := New(gen, Options{}).Resolve(context.Background(), tt.prompt, tt.duration)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, set.IsEmpty())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantClips, set.Len())
		})
	}
}

func TestResolve_OnlyOneInvalidClipRejectsAll(t *testing.T) {
	gen := mocks.NewMockGenerator(t)
	gen.EXPECT().Generate(mock.Anything, mock.Anything).Return(`[
		{"startTime":"00:00:10","endTime":"00:00:20","type":"Manual","description":"ok"},
		{"startTime":"00:00:30","endTime":"00:00:20","type":"Manual","description":"bad"}
	]`, nil)

	set, err := New(gen, Options{}).Resolve(context.Background(), "two clips", 60)
	require.ErrorIs(t, err, ErrInvalidResponseShape)
	assert.Contains(t, err.Error(), "clip 2")
	assert.Equal(t, 0, set.Len())
}

func TestResolve_PreservesOrderAndTags(t *testing.T) {
	gen := mocks.NewMockGenerator(t)
	gen.EXPECT().Generate(mock.Anything, mock.Anything).Return(validResponse, nil)

	set, err := New(gen, Options{Model: "custom", Temperature: 0.3}).Resolve(context.Background(), "p", 600)
	require.NoError(t, err)
	assert.Equal(t, []clips.Clip{
		{StartTime: "00:02:00", EndTime: "00:04:30", Origin: clips.Manual, Description: "2:00-4:30"},
		{StartTime: "00:07:10", EndTime: "00:07:40", Origin: clips.AIDetected, Description: "fight scene"},
	}, set.Clips())
}

func TestResolve_PassesOptions(t *testing.T) {
	gen := mocks.NewMockGenerator(t)
	gen.EXPECT().Generate(mock.Anything, mock.Anything).
		Run(func(ctx context.Context, r llm.Request) {
			assert.Equal(t, "gpt-4o", r.Model)
			assert.Equal(t, 0.3, r.Temperature)
			assert.Equal(t, 1500, r.TimeoutMS)
		}).
		Return("[]", nil)

	_, err := New(gen, Options{Model: "gpt-4o", Temperature: 0.3, RequestTimeoutMS: 1500}).
		Resolve(context.Background(), "p", 10)
	require.NoError(t, err)
}

func TestDecodeClips(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "array", raw: validResponse, want: 2},
		{name: "whitespace around values", raw: `[{"startTime":" 00:00:01 ","endTime":"00:00:02","type":"Manual","description":""}]`, want: 1},
		{name: "object root", raw: `{"clips":[]}`, wantErr: true},
		{name: "null", raw: `null`, wantErr: true},
		{name: "missing description", raw: `[{"startTime":"00:00:01","endTime":"00:00:02","type":"Manual"}]`, wantErr: true},
		{name: "extra field", raw: `[{"startTime":"00:00:01","endTime":"00:00:02","type":"Manual","description":"","score":1}]`, wantErr: true},
		{name: "wrong field type", raw: `[{"startTime":1,"endTime":"00:00:02","type":"Manual","description":""}]`, wantErr: true},
		{name: "trailing data", raw: `[] []`, wantErr: true},
		{name: "empty", raw: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeClips(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidResponseShape)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestSystemInstruction(t *testing.T) {
	text := SystemInstruction("01:01:01")
	assert.Contains(t, text, "The video is 01:01:01 long.")
	assert.Contains(t, text, "must not be later than 01:01:01")
	assert.Contains(t, text, "'Manual'")
	assert.Contains(t, text, "'AI-detected'")
	assert.Contains(t, text, "'2:30' is written '00:02:30'")
}

func TestResponseSchema(t *testing.T) {
	s := ResponseSchema()
	require.Equal(t, "array", s.Type)
	require.NotNil(t, s.Items)
	assert.ElementsMatch(t, []string{"startTime", "endTime", "type", "description"}, s.Items.Required)
	assert.Equal(t, []string{"Manual", "AI-detected"}, s.Items.Properties["type"].Enum)
}
