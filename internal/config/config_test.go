package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gnzdotmx/smartscenecutter/internal/services/llm"
	"github.com/gnzdotmx/smartscenecutter/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withEnv(t *testing.T, env map[string]string) {
	t.Helper()
	original := lookupEnv
	lookupEnv = func(key string) string { return env[key] }
	t.Cleanup(func() { lookupEnv = original })
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		wantErr bool
		check   func(t *testing.T, c Config)
	}{
		{
			name: "defaults",
			env:  map[string]string{"GEMINI_API_KEY": "g"},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, llm.ProviderGemini, c.Provider)
				assert.Equal(t, "gemini-2.5-flash", c.Model)
				assert.Equal(t, DefaultRequestTimeoutMS, c.RequestTimeoutMS)
				assert.Equal(t, DefaultOutputDir, c.OutputDir)
				assert.Equal(t, "ffmpeg", c.FFmpegPath)
				assert.Equal(t, "us-central1", c.Vertex.Location)
				assert.True(t, c.HasCredential())
				assert.Equal(t, session.KeepOnFailure, c.FailurePolicy())
			},
		},
		{
			name: "legacy key variable",
			env:  map[string]string{"API_KEY": "legacy"},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, "legacy", c.GeminiAPIKey)
			},
		},
		{
			name: "openai from file gets its own default model",
			file: "provider: openai\ntemperature: 0.4\nclearOnFailure: true\n",
			env:  map[string]string{"OPENAI_API_KEY": "sk"},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, llm.ProviderOpenAI, c.Provider)
				assert.Equal(t, "gpt-4o", c.Model)
				assert.Equal(t, 0.4, c.ResolverOptions().Temperature)
				assert.Equal(t, "OPENAI_API_KEY", c.CredentialEnv())
				assert.Equal(t, session.ClearOnFailure, c.FailurePolicy())
			},
		},
		{
			name: "environment overrides file",
			file: "provider: openai\nmodel: gpt-4o-mini\n",
			env:  map[string]string{"SCENECUTTER_PROVIDER": "Vertex", "SCENECUTTER_MODEL": "gemini-2.5-pro", "GOOGLE_CLOUD_PROJECT": "demo"},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, llm.ProviderVertex, c.Provider)
				assert.Equal(t, "gemini-2.5-pro", c.Model)
				s := c.LLMSettings()
				assert.Equal(t, "demo", s.VertexProject)
				assert.Equal(t, "us-central1", s.VertexLocation)
				assert.True(t, c.HasCredential())
				assert.Empty(t, c.CredentialEnv())
			},
		},
		{
			name: "vertex section",
			file: "provider: vertex\nvertex:\n  project: p1\n  location: europe-west4\n",
			env:  map[string]string{"GOOGLE_CLOUD_PROJECT": "ignored"},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, "p1", c.Vertex.Project)
				assert.Equal(t, "europe-west4", c.Vertex.Location)
			},
		},
		{
			name: "missing credential still loads",
			check: func(t *testing.T, c Config) {
				assert.False(t, c.HasCredential())
				assert.Equal(t, "GEMINI_API_KEY", c.CredentialEnv())
			},
		},
		{
			name:    "unknown provider",
			file:    "provider: bard\n",
			wantErr: true,
		},
		{
			name:    "unknown field",
			file:    "modle: typo\n",
			wantErr: true,
		},
		{
			name:    "bad temperature",
			file:    "temperature: 3\n",
			wantErr: true,
		},
		{
			name: "empty file",
			file: "",
			check: func(t *testing.T, c Config) {
				assert.Equal(t, llm.ProviderGemini, c.Provider)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withEnv(t, tt.env)
			path := ""
			if tt.file != "" || tt.name == "empty file" {
				path = writeConfig(t, tt.file)
			}

			cfg, err := Load(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	withEnv(t, nil)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNewInputConfig(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "movie.mp4")
	require.NoError(t, os.WriteFile(video, []byte("x"), 0644))
	clipFile := filepath.Join(dir, "clips.yaml")
	require.NoError(t, os.WriteFile(clipFile, []byte("clips: []"), 0644))
	notADir := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(notADir, []byte("x"), 0644))

	out := filepath.Join(dir, "out", "nested")
	c, err := NewInputConfig(video, clipFile, out, false)
	require.NoError(t, err)
	assert.Equal(t, "movie.mp4", c.VideoFileName)
	assert.DirExists(t, out)

	_, err = NewInputConfig("", "", "", false)
	assert.Error(t, err)

	_, err = NewInputConfig(filepath.Join(dir, "missing.mp4"), "", "", false)
	assert.Error(t, err)

	// script-only runs only need the name
	c, err = NewInputConfig("/elsewhere/missing.mp4", "", "", true)
	require.NoError(t, err)
	assert.Equal(t, "missing.mp4", c.VideoFileName)

	_, err = NewInputConfig(video, filepath.Join(dir, "missing.yaml"), "", false)
	assert.Error(t, err)

	_, err = NewInputConfig(video, "", notADir, false)
	assert.Error(t, err)
}
