package llm

import "encoding/json"

// Message represents a chat message in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Request is the request descriptor handed to a Transport. The field set
// mirrors the Messages API wire format.
type Request struct {
	Model       string      `json:"model"`
	MaxTokens   int         `json:"max_tokens"`
	Temperature float32     `json:"temperature"`
	Messages    []Message   `json:"messages"`
	Tools       []ToolParam `json:"tools,omitempty"`
	Stream      bool        `json:"stream,omitempty"`
}

// ToolParam is the schema form of a tool as sent to the model.
type ToolParam struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
}

// Response is a complete, non-streaming transport response.
type Response struct {
	Content []ContentBlock `json:"content"`
	Usage   Usage          `json:"usage"`
}

// ContentBlock is one item of response content.
type ContentBlock struct {
	Type string `json:"type"`

	// For text blocks
	Text string `json:"text,omitempty"`

	// For tool_use blocks
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

// Content block types.
const (
	BlockText    = "text"
	BlockToolUse = "tool_use"
)

// Usage reports token consumption for one request/response pair.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// StreamEvent is one frame of an incremental transport response.
type StreamEvent struct {
	Type  string `json:"type"`
	Index int    `json:"index,omitempty"`
	Delta Delta  `json:"delta"`

	// For message_delta events, the cumulative usage reported by the
	// terminal frame.
	Usage Usage `json:"usage"`
}

// Stream event types.
const (
	StreamMessageStart      = "message_start"
	StreamContentBlockStart = "content_block_start"
	StreamContentBlockDelta = "content_block_delta"
	StreamContentBlockStop  = "content_block_stop"
	StreamMessageDelta      = "message_delta"
	StreamMessageStop       = "message_stop"
)

// Delta is the payload of a content_block_delta event.
type Delta struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
}

// Delta types.
const (
	DeltaText      = "text_delta"
	DeltaInputJSON = "input_json_delta"
)
