package llm

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
)

// Provider names accepted in configuration
const (
	ProviderGemini = "gemini"
	ProviderVertex = "vertex"
	ProviderOpenAI = "openai"
)

// Providers lists the supported provider names
var Providers = []string{ProviderGemini, ProviderVertex, ProviderOpenAI}

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// Settings carries everything the factory needs to build a Generator
type Settings struct {
	Provider       string
	GeminiAPIKey   string
	OpenAIAPIKey   string
	VertexProject  string
	VertexLocation string
}

// findDefaultTokenSource is replaceable in tests
var findDefaultTokenSource = google.DefaultTokenSource

// New builds the Generator for s.Provider
func New(ctx context.Context, s Settings, opts ...Option) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case "", ProviderGemini:
		return NewGeminiService(s.GeminiAPIKey, opts...)
	case ProviderVertex:
		ts, err := findDefaultTokenSource(ctx, cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		return NewVertexService(ts, s.VertexProject, s.VertexLocation, opts...)
	case ProviderOpenAI:
		return NewChatGPTService(s.OpenAIAPIKey, opts...)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q (expected one of %s)",
			ErrConfiguration, s.Provider, strings.Join(Providers, ", "))
	}
}
