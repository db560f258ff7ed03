package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gnzdotmx/smartscenecutter/internal/utils"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

const (
	// GeminiBaseURL is the public Generative Language API root
	GeminiBaseURL = "https://generativelanguage.googleapis.com"
	// DefaultVertexLocation is used when no region is configured
	DefaultVertexLocation = "us-central1"
)

// GeminiService calls the generateContent endpoint, either on the public API
// with an API key or on Vertex AI with OAuth credentials.
type GeminiService struct {
	apiKey      string
	tokenSource oauth2.TokenSource
	project     string
	location    string
	opts        clientOptions
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiSchema struct {
	Type             string                   `json:"type"`
	Description      string                   `json:"description,omitempty"`
	Enum             []string                 `json:"enum,omitempty"`
	Properties       map[string]*geminiSchema `json:"properties,omitempty"`
	Items            *geminiSchema            `json:"items,omitempty"`
	Required         []string                 `json:"required,omitempty"`
	PropertyOrdering []string                 `json:"propertyOrdering,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string        `json:"responseMimeType,omitempty"`
	ResponseSchema   *geminiSchema `json:"responseSchema,omitempty"`
	Temperature      *float64      `json:"temperature,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// NewGeminiService creates a client for the public API authenticated by apiKey
func NewGeminiService(apiKey string, opts ...Option) (*GeminiService, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY (or API_KEY) environment variable is not set", ErrConfiguration)
	}
	return &GeminiService{
		apiKey: apiKey,
		opts:   applyOptions(GeminiBaseURL, opts),
	}, nil
}

// NewVertexService creates a client for the Vertex AI endpoint of project/location
func NewVertexService(ts oauth2.TokenSource, project, location string, opts ...Option) (*GeminiService, error) {
	if ts == nil {
		return nil, fmt.Errorf("%w: no Google credentials available", ErrConfiguration)
	}
	if strings.TrimSpace(project) == "" {
		return nil, fmt.Errorf("%w: vertex project is not set (GOOGLE_CLOUD_PROJECT)", ErrConfiguration)
	}
	if location == "" {
		location = DefaultVertexLocation
	}
	return &GeminiService{
		tokenSource: ts,
		project:     project,
		location:    location,
		opts:        applyOptions(fmt.Sprintf("https://%s-aiplatform.googleapis.com", location), opts),
	}, nil
}

// IsVertex reports whether the client talks to Vertex AI
func (s *GeminiService) IsVertex() bool {
	return s.tokenSource != nil
}

func (s *GeminiService) endpoint(model string) string {
	if s.IsVertex() {
		return fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models/%s:generateContent",
			s.opts.baseURL, s.project, s.location, model)
	}
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent", s.opts.baseURL, model)
}

func (s *GeminiService) client() *http.Client {
	if !s.IsVertex() {
		return s.opts.httpClient
	}
	base := s.opts.httpClient
	return &http.Client{
		Timeout: base.Timeout,
		Transport: &oauth2.Transport{
			Source: s.tokenSource,
			Base:   base.Transport,
		},
	}
}

// Generate sends one generateContent request and returns the first candidate's text
func (s *GeminiService) Generate(ctx context.Context, r Request) (string, error) {
	if r.Model == "" {
		return "", errors.New("model is required")
	}
	if r.TimeoutMS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(r.TimeoutMS)*time.Millisecond)
		defer cancel()
	}

	body := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: r.UserContent}}}},
	}
	if r.SystemInstruction != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: r.SystemInstruction}}}
	}
	if r.Schema != nil {
		body.GenerationConfig.ResponseMimeType = "application/json"
		body.GenerationConfig.ResponseSchema = toGeminiSchema(r.Schema)
	}
	if r.Temperature > 0 {
		t := r.Temperature
		body.GenerationConfig.Temperature = &t
	}

	reqData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(r.Model), bytes.NewReader(reqData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if !s.IsVertex() {
		req.Header.Set("x-goog-api-key", s.apiKey)
	}

	utils.LogDebug("Calling %s (vertex=%t)", r.Model, s.IsVertex())
	resp, err := s.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			utils.LogWarning("Failed to close response body: %v", err)
		}
	}()

	if err := googleapi.CheckResponse(resp); err != nil {
		return "", classifyGoogleError(err)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("request blocked: %s", parsed.PromptFeedback.BlockReason)
	}
	if len(parsed.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("%w (finish reason %s)", ErrEmptyResponse, parsed.Candidates[0].FinishReason)
	}
	return sb.String(), nil
}

// classifyGoogleError maps credential rejections onto ErrConfiguration
func classifyGoogleError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("API error: %w", err)
	}
	msg := gerr.Message
	if msg == "" {
		msg = strings.TrimSpace(gerr.Body)
	}
	switch {
	case gerr.Code == http.StatusUnauthorized, gerr.Code == http.StatusForbidden,
		strings.Contains(msg, "API key not valid"):
		return fmt.Errorf("%w: %s", ErrConfiguration, msg)
	}
	return fmt.Errorf("API returned status %d: %s", gerr.Code, msg)
}

func toGeminiSchema(s *Schema) *geminiSchema {
	if s == nil {
		return nil
	}
	out := &geminiSchema{
		Type:        strings.ToUpper(s.Type),
		Description: s.Description,
		Enum:        s.Enum,
		Items:       toGeminiSchema(s.Items),
		Required:    s.Required,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*geminiSchema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = toGeminiSchema(v)
		}
		out.PropertyOrdering = s.Required
	}
	return out
}
