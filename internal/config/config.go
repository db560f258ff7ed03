// Package config loads the optional YAML config file and overlays the
// environment on it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/gnzdotmx/smartscenecutter/internal/resolver"
	"github.com/gnzdotmx/smartscenecutter/internal/services/llm"
	"github.com/gnzdotmx/smartscenecutter/internal/session"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no config path is given and it exists
const DefaultFile = "smartscenecutter.yaml"

// Defaults
const (
	DefaultOpenAIModel      = "gpt-4o"
	DefaultRequestTimeoutMS = 60000
	DefaultOutputDir        = "./output"
	DefaultFFmpegPath       = "ffmpeg"
)

// Environment variables read on top of the file
const (
	EnvGeminiAPIKey  = "GEMINI_API_KEY"
	EnvLegacyAPIKey  = "API_KEY"
	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
	EnvProvider      = "SCENECUTTER_PROVIDER"
	EnvModel         = "SCENECUTTER_MODEL"
	EnvGoogleProject = "GOOGLE_CLOUD_PROJECT"
)

// lookupEnv allows us to mock the environment in tests
var lookupEnv = os.Getenv

// VertexConfig selects the Vertex AI project and region
type VertexConfig struct {
	Project  string `yaml:"project"`
	Location string `yaml:"location"`
}

// Config is the merged application configuration
type Config struct {
	Provider         string       `yaml:"provider"`
	Model            string       `yaml:"model"`
	Temperature      float64      `yaml:"temperature"`
	RequestTimeoutMS int          `yaml:"requestTimeoutMs"`
	OutputDir        string       `yaml:"outputDir"`
	WorkDir          string       `yaml:"workDir"`
	FFmpegPath       string       `yaml:"ffmpegPath"`
	ClearOnFailure   bool         `yaml:"clearOnFailure"`
	Vertex           VertexConfig `yaml:"vertex"`

	// credentials only ever come from the environment
	GeminiAPIKey string `yaml:"-"`
	OpenAIAPIKey string `yaml:"-"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Provider:         llm.ProviderGemini,
		RequestTimeoutMS: DefaultRequestTimeoutMS,
		OutputDir:        DefaultOutputDir,
		FFmpegPath:       DefaultFFmpegPath,
		Vertex:           VertexConfig{Location: llm.DefaultVertexLocation},
	}
}

// Load reads path (or DefaultFile when path is empty and the file exists),
// then applies the environment and fills remaining defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := lookupEnv(EnvProvider); v != "" {
		c.Provider = v
	}
	if v := lookupEnv(EnvModel); v != "" {
		c.Model = v
	}
	if v := lookupEnv(EnvGoogleProject); v != "" && c.Vertex.Project == "" {
		c.Vertex.Project = v
	}
	c.GeminiAPIKey = lookupEnv(EnvGeminiAPIKey)
	if c.GeminiAPIKey == "" {
		c.GeminiAPIKey = lookupEnv(EnvLegacyAPIKey)
	}
	c.OpenAIAPIKey = lookupEnv(EnvOpenAIAPIKey)
}

func (c *Config) fillDefaults() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = llm.ProviderGemini
	}
	if c.Model == "" {
		if c.Provider == llm.ProviderOpenAI {
			c.Model = DefaultOpenAIModel
		} else {
			c.Model = resolver.DefaultModel
		}
	}
	if c.RequestTimeoutMS == 0 {
		c.RequestTimeoutMS = DefaultRequestTimeoutMS
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.FFmpegPath == "" {
		c.FFmpegPath = DefaultFFmpegPath
	}
	if c.Vertex.Location == "" {
		c.Vertex.Location = llm.DefaultVertexLocation
	}
}

// Validate checks values that cannot be defaulted
func (c Config) Validate() error {
	if !slices.Contains(llm.Providers, c.Provider) {
		return fmt.Errorf("unknown provider %q (expected one of %s)", c.Provider, strings.Join(llm.Providers, ", "))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", c.Temperature)
	}
	if c.RequestTimeoutMS < 0 {
		return fmt.Errorf("requestTimeoutMs must not be negative, got %d", c.RequestTimeoutMS)
	}
	return nil
}

// CredentialEnv names the environment variable the provider needs, if any
func (c Config) CredentialEnv() string {
	switch c.Provider {
	case llm.ProviderOpenAI:
		return EnvOpenAIAPIKey
	case llm.ProviderVertex:
		return ""
	}
	return EnvGeminiAPIKey
}

// HasCredential reports whether the provider's credential is present.
// Vertex credentials are discovered at call time.
func (c Config) HasCredential() bool {
	switch c.Provider {
	case llm.ProviderOpenAI:
		return c.OpenAIAPIKey != ""
	case llm.ProviderVertex:
		return c.Vertex.Project != ""
	}
	return c.GeminiAPIKey != ""
}

// LLMSettings returns the factory settings for the configured provider
func (c Config) LLMSettings() llm.Settings {
	return llm.Settings{
		Provider:       c.Provider,
		GeminiAPIKey:   c.GeminiAPIKey,
		OpenAIAPIKey:   c.OpenAIAPIKey,
		VertexProject:  c.Vertex.Project,
		VertexLocation: c.Vertex.Location,
	}
}

// ResolverOptions returns the resolver tuning
func (c Config) ResolverOptions() resolver.Options {
	return resolver.Options{
		Model:            c.Model,
		Temperature:      c.Temperature,
		RequestTimeoutMS: c.RequestTimeoutMS,
	}
}

// FailurePolicy returns the session policy for failed resolutions
func (c Config) FailurePolicy() session.FailurePolicy {
	if c.ClearOnFailure {
		return session.ClearOnFailure
	}
	return session.KeepOnFailure
}
