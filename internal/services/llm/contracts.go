package llm

import (
	"context"
)

// Schema is the subset of JSON schema understood by both providers
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// Request is a single structured-output generation call
type Request struct {
	Model             string
	SystemInstruction string
	UserContent       string
	Schema            *Schema
	Temperature       float64
	TimeoutMS         int
}

// Generator defines the interface for text-generation services
type Generator interface {
	// Generate sends one request and returns the raw text of the first candidate
	Generate(ctx context.Context, req Request) (string, error)
}

// Ensure both services implement Generator
var (
	_ Generator = (*GeminiService)(nil)
	_ Generator = (*ChatGPTService)(nil)
)
