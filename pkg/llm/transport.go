package llm

import (
	"context"
	"time"
)

// Transport defines the interface for the underlying model API client.
// Implementations handle protocol-specific details such as request
// formatting, authentication, and response parsing.
type Transport interface {
	// Complete sends a request and returns the full response.
	Complete(ctx context.Context, req *Request) (*Response, error)

	// Stream sends a request and returns an incremental event source.
	Stream(ctx context.Context, req *Request) (EventSource, error)

	// Close releases any resources held by the transport.
	Close() error
}

// EventSource iterates a streaming transport response. Next reports whether
// another event is available and Current returns it; once Next has returned
// false, Err reports the terminal failure, if any.
type EventSource interface {
	Next() bool
	Current() StreamEvent
	Err() error
	Close() error
}

// TransportConfig carries the settings a Transport is constructed with.
type TransportConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// TransportFactory builds a Transport from its configuration. The provider
// takes a factory rather than a finished transport so construction happens
// at Initialize time with resolved credentials.
type TransportFactory func(TransportConfig) (Transport, error)
