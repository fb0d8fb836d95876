// Package anthropic adapts the official Messages API client to the llm
// transport contract.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/user/clawkit/pkg/llm"
)

var _ llm.Transport = (*Client)(nil)

// Client talks to the Messages API through the official SDK.
type Client struct {
	messages anthropic.MessageService
}

// NewTransport builds a transport from provider configuration. It satisfies
// llm.TransportFactory.
func NewTransport(cfg llm.TransportConfig) (llm.Transport, error) {
	options := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}

	if cfg.BaseURL != "" {
		options = append(options, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}

	if cfg.Timeout > 0 {
		options = append(options, option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}

	return &Client{messages: anthropic.NewMessageService(options...)}, nil
}

// NewProvider returns an llm.Provider wired to this transport.
func NewProvider(options ...llm.Option) *llm.Provider {
	options = append([]llm.Option{llm.WithTransportFactory(NewTransport)}, options...)
	return llm.New(options...)
}

func (c *Client) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	params, err := convertRequest(req)
	if err != nil {
		return nil, err
	}

	msg, err := c.messages.New(ctx, *params)
	if err != nil {
		return nil, convertError(err)
	}

	resp := &llm.Response{
		Usage: llm.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}

	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			resp.Content = append(resp.Content, llm.ContentBlock{
				Type: llm.BlockText,
				Text: block.Text,
			})

		case "tool_use":
			input := json.RawMessage(block.Input)
			if len(input) == 0 {
				input = json.RawMessage("{}")
			}
			resp.Content = append(resp.Content, llm.ContentBlock{
				Type:  llm.BlockToolUse,
				ID:    block.ID,
				Name:  block.Name,
				Input: input,
			})
		}
	}

	return resp, nil
}

func (c *Client) Stream(ctx context.Context, req *llm.Request) (llm.EventSource, error) {
	params, err := convertRequest(req)
	if err != nil {
		return nil, err
	}

	return &stream{inner: c.messages.NewStreaming(ctx, *params)}, nil
}

// Close is a no-op; the underlying HTTP client holds no resources that
// outlive its requests.
func (c *Client) Close() error { return nil }

// sseStream is the part of the SDK's server-sent-event stream the adapter
// consumes.
type sseStream interface {
	Next() bool
	Current() anthropic.MessageStreamEventUnion
	Err() error
	Close() error
}

type stream struct {
	inner sseStream
	cur   llm.StreamEvent
}

func (s *stream) Next() bool {
	if !s.inner.Next() {
		return false
	}
	s.cur = convertEvent(s.inner.Current())
	return true
}

func (s *stream) Current() llm.StreamEvent { return s.cur }

func (s *stream) Err() error { return convertError(s.inner.Err()) }

func (s *stream) Close() error { return s.inner.Close() }

func convertRequest(req *llm.Request) (*anthropic.MessageNewParams, error) {
	params := &anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
	}

	if req.Temperature != 0 {
		params.Temperature = anthropic.Float(float64(req.Temperature))
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case llm.RoleAssistant:
			params.Messages = append(params.Messages, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleAssistant,
				Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(msg.Content)},
			})

		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	for _, t := range req.Tools {
		tool := anthropic.ToolParam{Name: t.Name}

		if t.Description != "" {
			tool.Description = anthropic.String(t.Description)
		}

		if len(t.InputSchema) > 0 {
			var schema anthropic.ToolInputSchemaParam
			if err := json.Unmarshal(t.InputSchema, &schema); err != nil {
				return nil, fmt.Errorf("invalid input schema for tool %s: %w", t.Name, err)
			}
			tool.InputSchema = schema
		}

		params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: &tool})
	}

	return params, nil
}

// convertEvent maps one SDK stream event onto the wire-shaped frame the
// provider consumes.
func convertEvent(event anthropic.MessageStreamEventUnion) llm.StreamEvent {
	switch ev := event.AsAny().(type) {
	case anthropic.MessageStartEvent:
		return llm.StreamEvent{
			Type: llm.StreamMessageStart,
			Usage: llm.Usage{
				InputTokens:  int(ev.Message.Usage.InputTokens),
				OutputTokens: int(ev.Message.Usage.OutputTokens),
			},
		}

	case anthropic.ContentBlockStartEvent:
		return llm.StreamEvent{Type: llm.StreamContentBlockStart, Index: int(ev.Index)}

	case anthropic.ContentBlockDeltaEvent:
		out := llm.StreamEvent{Type: llm.StreamContentBlockDelta, Index: int(ev.Index)}
		switch delta := ev.Delta.AsAny().(type) {
		case anthropic.TextDelta:
			out.Delta = llm.Delta{Type: llm.DeltaText, Text: delta.Text}
		case anthropic.InputJSONDelta:
			out.Delta = llm.Delta{Type: llm.DeltaInputJSON, PartialJSON: delta.PartialJSON}
		}
		return out

	case anthropic.ContentBlockStopEvent:
		return llm.StreamEvent{Type: llm.StreamContentBlockStop, Index: int(ev.Index)}

	case anthropic.MessageDeltaEvent:
		// The terminal frame reports output tokens only.
		return llm.StreamEvent{
			Type:  llm.StreamMessageDelta,
			Usage: llm.Usage{OutputTokens: int(ev.Usage.OutputTokens)},
		}

	case anthropic.MessageStopEvent:
		return llm.StreamEvent{Type: llm.StreamMessageStop}
	}

	return llm.StreamEvent{Type: event.Type}
}

// convertError maps SDK failures onto llm.APIError, deriving the wire error
// type from the HTTP status. Other errors pass through unchanged.
func convertError(err error) error {
	if err == nil {
		return nil
	}

	var apierr *anthropic.Error
	if !errors.As(err, &apierr) {
		return err
	}

	return &llm.APIError{
		Status:  apierr.StatusCode,
		Type:    errorType(apierr.StatusCode),
		Message: apierr.Error(),
	}
}

func errorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request_error"
	case http.StatusUnauthorized:
		return "authentication_error"
	case http.StatusForbidden:
		return "permission_error"
	case http.StatusNotFound:
		return "not_found_error"
	case http.StatusRequestEntityTooLarge:
		return "request_too_large"
	case http.StatusTooManyRequests:
		return "rate_limit_error"
	case 529:
		return "overloaded_error"
	default:
		return "api_error"
	}
}
