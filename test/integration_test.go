//go:build integration

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/user/clawkit/internal/chat"
	ctxengine "github.com/user/clawkit/internal/context"
	"github.com/user/clawkit/internal/tools"
	"github.com/user/clawkit/pkg/llm"
	"github.com/user/clawkit/pkg/llm/anthropic"
)

func newProvider(t *testing.T, url string) *llm.Provider {
	t.Helper()
	p := anthropic.NewProvider(llm.WithEnv(func(string) string { return "" }))
	if err := p.Initialize(llm.Config{APIKey: "test-key", BaseURL: url}); err != nil {
		t.Fatal(err)
	}
	return p
}

func newEngine(t *testing.T) *ctxengine.Engine {
	t.Helper()
	engine, err := ctxengine.New(llm.DefaultModel, 200000)
	if err != nil {
		t.Fatal(err)
	}
	return engine
}

func message(blocks []map[string]any, inputTokens, outputTokens int) map[string]any {
	return map[string]any{
		"id":          "msg_01",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-3-opus-20240229",
		"stop_reason": "end_turn",
		"content":     blocks,
		"usage": map[string]any{
			"input_tokens":  inputTokens,
			"output_tokens": outputTokens,
		},
	}
}

func TestEndToEndToolTurn(t *testing.T) {
	var calls int
	var secondBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		body, _ := io.ReadAll(r.Body)

		var resp map[string]any
		if calls == 1 {
			resp = message([]map[string]any{
				{"type": "tool_use", "id": "tu_1", "name": "clock", "input": map[string]any{"timezone": "UTC"}},
			}, 12, 6)
		} else {
			secondBody = body
			resp = message([]map[string]any{
				{"type": "text", "text": "It is time."},
			}, 20, 5)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider := newProvider(t, server.URL)
	registry := tools.NewRegistry()
	registry.Register(tools.NewClock())

	c := chat.New(provider, registry, newEngine(t), chat.Config{MaxRounds: 5, Output: io.Discard})

	reply, err := c.Turn(context.Background(), "What time is it?")
	if err != nil {
		t.Fatal(err)
	}
	if reply != "It is time." {
		t.Errorf("unexpected reply %q", reply)
	}
	if calls != 2 {
		t.Fatalf("expected 2 API calls, got %d", calls)
	}

	// The second request carries the tool results as a user message.
	var req struct {
		Messages []struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(secondBody, &req); err != nil {
		t.Fatal(err)
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != "user" {
		t.Errorf("expected user followup, got %q", last.Role)
	}
	if !strings.Contains(string(last.Content), "Tool results:") {
		t.Errorf("expected tool results in followup, got %s", last.Content)
	}
	if !strings.Contains(string(last.Content), "[clock]") {
		t.Errorf("expected clock output in followup, got %s", last.Content)
	}

	u := provider.Usage()
	if u.RequestsCount != 2 {
		t.Errorf("expected 2 requests, got %d", u.RequestsCount)
	}
	if u.TokensUsed != 43 {
		t.Errorf("expected 43 tokens, got %d", u.TokensUsed)
	}
	if u.Cost <= 0 {
		t.Errorf("expected a positive cost, got %v", u.Cost)
	}

	if c.Session().Len() != 1 {
		t.Errorf("expected 1 session message, got %d", c.Session().Len())
	}
}

func TestEndToEndStreaming(t *testing.T) {
	const body = `event: message_start
data: {"type":"message_start","message":{"id":"msg_01","type":"message","role":"assistant","model":"claude-3-opus-20240229","content":[],"stop_reason":null,"usage":{"input_tokens":9,"output_tokens":1}}}

event: content_block_start
data: {"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}

event: content_block_delta
data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hel"}}

event: content_block_delta
data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"lo"}}

event: content_block_stop
data: {"type":"content_block_stop","index":0}

event: message_delta
data: {"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":7}}

event: message_stop
data: {"type":"message_stop"}

`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, body)
	}))
	defer server.Close()

	provider := newProvider(t, server.URL)

	var out bytes.Buffer
	c := chat.New(provider, tools.NewRegistry(), newEngine(t), chat.Config{Stream: true, Output: &out})

	reply, err := c.Turn(context.Background(), "Say hello")
	if err != nil {
		t.Fatal(err)
	}
	if reply != "Hello" {
		t.Errorf("expected 'Hello', got %q", reply)
	}
	if out.String() != "Hello" {
		t.Errorf("expected live output 'Hello', got %q", out.String())
	}

	u := provider.Usage()
	if u.RequestsCount != 1 || u.TokensUsed != 7 {
		t.Errorf("unexpected usage %+v", u)
	}
}

func TestEndToEndMultiTurnHistory(t *testing.T) {
	var bodies [][]byte
	replies := []string{"First reply.", "Second reply."}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies = append(bodies, body)
		text := replies[len(bodies)-1]
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(message([]map[string]any{
			{"type": "text", "text": text},
		}, 10, 4))
	}))
	defer server.Close()

	provider := newProvider(t, server.URL)
	c := chat.New(provider, tools.NewRegistry(), newEngine(t), chat.Config{Output: io.Discard})

	ctx := context.Background()
	if _, err := c.Turn(ctx, "hello"); err != nil {
		t.Fatal(err)
	}
	reply, err := c.Turn(ctx, "again")
	if err != nil {
		t.Fatal(err)
	}
	if reply != "Second reply." {
		t.Errorf("unexpected reply %q", reply)
	}

	if len(bodies) != 2 {
		t.Fatalf("expected 2 API calls, got %d", len(bodies))
	}
	var req struct {
		Messages []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(bodies[1], &req); err != nil {
		t.Fatal(err)
	}
	if len(req.Messages) != 2 {
		t.Fatalf("expected history plus prompt, got %d messages", len(req.Messages))
	}
	if req.Messages[0].Role != "assistant" || req.Messages[1].Role != "user" {
		t.Errorf("unexpected roles %+v", req.Messages)
	}
	if !strings.Contains(string(bodies[1]), "First reply.") {
		t.Error("expected first reply replayed in history")
	}

	if c.Session().Len() != 2 {
		t.Errorf("expected 2 session messages, got %d", c.Session().Len())
	}
}
