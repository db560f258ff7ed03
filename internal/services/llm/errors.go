package llm

import "errors"

var (
	// ErrConfiguration means the service cannot be used as configured,
	// typically a missing or rejected credential.
	ErrConfiguration = errors.New("text-generation service is not configured")
	// ErrEmptyResponse is returned when the service answers without any candidate text
	ErrEmptyResponse = errors.New("empty response from text-generation service")
)
