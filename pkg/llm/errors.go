package llm

import "fmt"

// ConfigurationError indicates missing or invalid provider configuration.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

// LifecycleError indicates an operation invoked in the wrong provider state.
type LifecycleError struct {
	Message string
}

func (e *LifecycleError) Error() string { return e.Message }

// NotFoundError indicates an unknown session identifier.
type NotFoundError struct {
	SessionID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Session %s not found", e.SessionID)
}

// APIError is the transport's structured failure, carrying the HTTP status
// and the API's error category. Failures that merely resemble it are not
// treated as structured; recognition goes through errors.As.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string { return e.Message }

// Sentinel errors returned by lifecycle operations. Compare with errors.Is.
var (
	ErrNoAPIKey           = &ConfigurationError{Message: "No API key found"}
	ErrAlreadyInitialized = &LifecycleError{Message: "Provider already initialized"}
	ErrNotInitialized     = &LifecycleError{Message: "Provider not initialized"}
)
