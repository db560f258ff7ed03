package llm

import (
	"net/http"
	"strings"
	"time"
)

const defaultHTTPTimeout = 120 * time.Second

type clientOptions struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises a service client
type Option func(*clientOptions)

// WithBaseURL points the client at another endpoint root, e.g. a test server
func WithBaseURL(u string) Option {
	return func(o *clientOptions) {
		o.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient replaces the HTTP client used for requests
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = c
	}
}

func applyOptions(defaultBase string, opts []Option) clientOptions {
	o := clientOptions{baseURL: defaultBase}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return o
}
