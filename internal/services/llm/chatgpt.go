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
)

// OpenAIBaseURL is the public OpenAI API root
const OpenAIBaseURL = "https://api.openai.com"

// wrapperKey holds non-object schemas, since structured outputs need an object root
const wrapperKey = "result"

// ChatGPTService provides a centralized way to interact with OpenAI's ChatGPT API
type ChatGPTService struct {
	apiKey string
	opts   clientOptions
}

// ChatMessage represents a message in the ChatGPT conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat asks the API for schema-conforming JSON
type ResponseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *JSONSchema `json:"json_schema,omitempty"`
}

// JSONSchema is the named schema attached to a response format
type JSONSchema struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict"`
}

// ChatRequest represents an OpenAI API request
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatResponse represents an OpenAI API response
type ChatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// ChatError represents an error from the OpenAI API
type ChatError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// NewChatGPTService creates a new ChatGPT service instance
func NewChatGPTService(apiKey string, opts ...Option) (*ChatGPTService, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY environment variable is not set", ErrConfiguration)
	}
	return &ChatGPTService{
		apiKey: apiKey,
		opts:   applyOptions(OpenAIBaseURL, opts),
	}, nil
}

// Complete sends a chat completion request to the OpenAI API
func (s *ChatGPTService) Complete(ctx context.Context, reqBody ChatRequest) (*ChatResponse, error) {
	reqData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.baseURL+"/v1/chat/completions", bytes.NewReader(reqData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.opts.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			utils.LogWarning("Failed to close response body: %v", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		var chatError ChatError
		if err := json.Unmarshal(respBody, &chatError); err == nil && chatError.Error.Message != "" {
			msg = chatError.Error.Message
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, fmt.Errorf("%w: %s", ErrConfiguration, msg)
		}
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, msg)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	return &chatResp, nil
}

// Generate maps a Request onto a chat completion with a system and a user message
func (s *ChatGPTService) Generate(ctx context.Context, r Request) (string, error) {
	if r.Model == "" {
		return "", errors.New("model is required")
	}
	if r.TimeoutMS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(r.TimeoutMS)*time.Millisecond)
		defer cancel()
	}

	body := ChatRequest{
		Model:       r.Model,
		Temperature: r.Temperature,
	}
	if r.SystemInstruction != "" {
		body.Messages = append(body.Messages, ChatMessage{Role: "system", Content: r.SystemInstruction})
	}
	body.Messages = append(body.Messages, ChatMessage{Role: "user", Content: r.UserContent})

	wrapped := false
	if r.Schema != nil {
		root := r.Schema
		if root.Type != "object" {
			root = &Schema{
				Type:       "object",
				Properties: map[string]*Schema{wrapperKey: r.Schema},
				Required:   []string{wrapperKey},
			}
			wrapped = true
		}
		body.ResponseFormat = &ResponseFormat{
			Type: "json_schema",
			JSONSchema: &JSONSchema{
				Name:   "response",
				Schema: strictSchema(root),
				Strict: true,
			},
		}
	}

	utils.LogDebug("Calling %s via chat completions", r.Model)
	resp, err := s.Complete(ctx, body)
	if err != nil {
		return "", err
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyResponse
	}
	if !wrapped {
		return content, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &envelope); err != nil {
		// left for the caller's shape validation
		return content, nil
	}
	inner, ok := envelope[wrapperKey]
	if !ok {
		return content, nil
	}
	return string(inner), nil
}

// strictSchema renders s the way structured outputs expect it: every object
// closed to extra properties.
func strictSchema(s *Schema) map[string]any {
	out := map[string]any{"type": s.Type}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Items != nil {
		out["items"] = strictSchema(s.Items)
	}
	if s.Type == "object" {
		props := make(map[string]any, len(s.Properties))
		for k, v := range s.Properties {
			props[k] = strictSchema(v)
		}
		out["properties"] = props
		out["required"] = s.Required
		out["additionalProperties"] = false
	}
	return out
}
