package llm

import "errors"

// EventType discriminates the variants of Event.
type EventType string

// Event types.
const (
	EventText    EventType = "text"
	EventToolUse EventType = "tool_use"
	EventError   EventType = "error"
)

// Event is one normalized unit of query output: a text fragment, a tool
// invocation requested by the model, or an error. Consumers switch on Type;
// Metadata is set for tool_use and for structured API errors.
type Event struct {
	Type     EventType      `json:"type"`
	Content  string         `json:"content"`
	Metadata *EventMetadata `json:"metadata,omitempty"`
}

// EventMetadata carries the variant-specific details of an Event.
type EventMetadata struct {
	// For tool_use events
	ToolName string `json:"tool_name,omitempty"`
	ToolID   string `json:"tool_id,omitempty"`

	// For error events backed by a structured API error
	Status    int    `json:"status,omitempty"`
	ErrorType string `json:"type,omitempty"`
}

// errorEvent converts a query failure into the error event observed by
// stream consumers. Only the transport's own structured error type carries
// the API-error marker and status metadata; anything else passes through as
// a bare message.
func errorEvent(err error) Event {
	var apierr *APIError
	if errors.As(err, &apierr) {
		return Event{
			Type:     EventError,
			Content:  "API Error: " + apierr.Message,
			Metadata: &EventMetadata{Status: apierr.Status, ErrorType: apierr.Type},
		}
	}
	return Event{Type: EventError, Content: err.Error()}
}
