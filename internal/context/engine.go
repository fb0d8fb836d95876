// internal/context/engine.go
package context

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/user/clawkit/pkg/llm"
)

// messageOverhead approximates the per-message framing cost on the wire.
const messageOverhead = 4

// Engine estimates token usage for conversation history against a model's
// context window. Claude models publish no tokenizer, so cl100k_base stands
// in; treat every count as an estimate, not an exact figure.
type Engine struct {
	tokenizer *tiktoken.Tiktoken
	window    int
}

// New creates an engine for the given model and context window size.
func New(model string, window int) (*Engine, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Fallback to cl100k_base for unknown models
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &Engine{
		tokenizer: enc,
		window:    window,
	}, nil
}

// Window returns the context window size in tokens.
func (e *Engine) Window() int { return e.window }

// Count returns the estimated token count for a string.
func (e *Engine) Count(text string) int {
	return len(e.tokenizer.Encode(text, nil, nil))
}

// CountMessages returns the estimated token count for a conversation,
// framing overhead included.
func (e *Engine) CountMessages(messages []llm.Message) int {
	total := 0
	for _, msg := range messages {
		total += e.Count(msg.Content) + messageOverhead
	}
	return total
}

// Remaining returns how much of the window is left after the given
// conversation, clamped at zero.
func (e *Engine) Remaining(messages []llm.Message) int {
	left := e.window - e.CountMessages(messages)
	if left < 0 {
		return 0
	}
	return left
}

// Fit trims a conversation to the window, dropping the oldest messages
// first. The surviving suffix keeps its original order.
func (e *Engine) Fit(messages []llm.Message) []llm.Message {
	used := 0
	for i := len(messages) - 1; i >= 0; i-- {
		used += e.Count(messages[i].Content) + messageOverhead
		if used > e.window {
			return messages[i+1:]
		}
	}
	return messages
}
