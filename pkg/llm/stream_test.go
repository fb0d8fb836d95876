package llm

import (
	"context"
	"errors"
	"testing"
)

func TestStreamingEvents(t *testing.T) {
	var got *Request
	transport := &MockTransport{
		StreamFunc: func(_ context.Context, req *Request) (EventSource, error) {
			got = req
			return &fakeEventSource{events: []StreamEvent{
				{Type: StreamMessageStart},
				{Type: StreamContentBlockStart, Index: 0},
				{Type: StreamContentBlockDelta, Index: 0, Delta: Delta{Type: DeltaText, Text: "Hel"}},
				{Type: StreamContentBlockDelta, Index: 0, Delta: Delta{Type: DeltaText, Text: "lo, "}},
				{Type: StreamContentBlockDelta, Index: 0, Delta: Delta{Type: DeltaText, Text: "world"}},
				{Type: StreamContentBlockStop, Index: 0},
				{Type: StreamMessageDelta, Usage: Usage{OutputTokens: 12}},
				{Type: StreamMessageStop},
			}}, nil
		},
	}
	p := newTestProvider(t, transport)

	sess := p.CreateSession()
	stream, err := p.Query(context.Background(), "Say hello", WithStream(), WithSession(sess))
	if err != nil {
		t.Fatal(err)
	}
	events, err := drain(t, stream)
	if err != nil {
		t.Fatal(err)
	}

	if !got.Stream {
		t.Error("expected stream flag on request")
	}

	// One event per text delta, never concatenated.
	want := []string{"Hel", "lo, ", "world"}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for i, ev := range events {
		if ev.Type != EventText {
			t.Errorf("event %d: expected text, got %s", i, ev.Type)
		}
		if ev.Content != want[i] {
			t.Errorf("event %d: expected %q, got %q", i, want[i], ev.Content)
		}
	}

	// The terminal frame carries only output tokens.
	usage := p.Usage()
	if usage.TokensUsed != 12 {
		t.Errorf("expected 12 tokens used, got %d", usage.TokensUsed)
	}
	if usage.RequestsCount != 1 {
		t.Errorf("expected 1 request, got %d", usage.RequestsCount)
	}

	// The session stores the reply in assembled form.
	msgs := sess.Messages()
	if len(msgs) != 1 || msgs[0].Role != RoleAssistant || msgs[0].Content != "Hello, world" {
		t.Errorf("unexpected session messages %+v", msgs)
	}
}

func TestStreamingIgnoresToolDeltas(t *testing.T) {
	transport := &MockTransport{
		StreamFunc: func(_ context.Context, _ *Request) (EventSource, error) {
			return &fakeEventSource{events: []StreamEvent{
				{Type: StreamContentBlockDelta, Delta: Delta{Type: DeltaInputJSON, PartialJSON: `{"a":`}},
				{Type: StreamContentBlockDelta, Delta: Delta{Type: DeltaText, Text: "ok"}},
				{Type: StreamContentBlockDelta, Delta: Delta{Type: DeltaInputJSON, PartialJSON: `1}`}},
				{Type: StreamMessageStop},
			}}, nil
		},
	}
	p := newTestProvider(t, transport)

	stream, err := p.Query(context.Background(), "go", WithStream())
	if err != nil {
		t.Fatal(err)
	}
	events, err := drain(t, stream)
	if err != nil {
		t.Fatal(err)
	}

	if len(events) != 1 || events[0].Content != "ok" {
		t.Errorf("expected a single text event, got %+v", events)
	}
}

func TestStreamingSourceError(t *testing.T) {
	transport := &MockTransport{
		StreamFunc: func(_ context.Context, _ *Request) (EventSource, error) {
			return &fakeEventSource{
				events: []StreamEvent{
					{Type: StreamContentBlockDelta, Delta: Delta{Type: DeltaText, Text: "partial"}},
				},
				err: &APIError{Status: 529, Type: "overloaded_error", Message: "Overloaded"},
			}, nil
		},
	}
	p := newTestProvider(t, transport)

	stream, err := p.Query(context.Background(), "go", WithStream())
	if err != nil {
		t.Fatal(err)
	}

	// The terminal error is not observable until the stream is exhausted.
	if stream.Err() != nil {
		t.Errorf("premature error %v", stream.Err())
	}

	events, err := drain(t, stream)
	if err == nil {
		t.Fatal("expected terminal error")
	}
	var apierr *APIError
	if !errors.As(err, &apierr) || apierr.Status != 529 {
		t.Fatalf("expected overloaded APIError, got %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != EventText || events[0].Content != "partial" {
		t.Errorf("unexpected first event %+v", events[0])
	}
	if events[1].Type != EventError || events[1].Content != "API Error: Overloaded" {
		t.Errorf("unexpected error event %+v", events[1])
	}

	usage := p.Usage()
	if usage.RequestsCount != 1 || usage.TokensUsed != 0 {
		t.Errorf("expected errored request with no tokens, got %+v", usage)
	}
}

func TestStreamAbandoned(t *testing.T) {
	transport := &MockTransport{
		CompleteFunc: func(_ context.Context, _ *Request) (*Response, error) {
			return &Response{
				Content: []ContentBlock{
					{Type: BlockText, Text: "one"},
					{Type: BlockText, Text: "two"},
				},
				Usage: Usage{InputTokens: 10, OutputTokens: 5},
			}, nil
		},
	}
	p := newTestProvider(t, transport)

	sess := p.CreateSession()
	stream, err := p.Query(context.Background(), "go", WithSession(sess))
	if err != nil {
		t.Fatal(err)
	}
	if err := stream.Close(); err != nil {
		t.Fatal(err)
	}
	for stream.Next() {
	}

	// Nothing was drained, so nothing is recorded.
	usage := p.Usage()
	if usage.RequestsCount != 0 || usage.TokensUsed != 0 || usage.Cost != 0 {
		t.Errorf("expected zero usage after abandoned stream, got %+v", usage)
	}
	if n := sess.Len(); n != 0 {
		t.Errorf("expected empty session, got %d messages", n)
	}
}

func TestStreamContextCanceled(t *testing.T) {
	transport := &MockTransport{
		CompleteFunc: func(_ context.Context, _ *Request) (*Response, error) {
			return &Response{
				Content: []ContentBlock{
					{Type: BlockText, Text: "one"},
					{Type: BlockText, Text: "two"},
				},
				Usage: Usage{InputTokens: 10, OutputTokens: 5},
			}, nil
		},
	}
	p := newTestProvider(t, transport)

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := p.Query(ctx, "go")
	if err != nil {
		t.Fatal(err)
	}
	if !stream.Next() {
		t.Fatal("expected a first event")
	}
	cancel()
	for stream.Next() {
	}

	if !errors.Is(stream.Err(), context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", stream.Err())
	}
	usage := p.Usage()
	if usage.RequestsCount != 0 || usage.TokensUsed != 0 {
		t.Errorf("expected zero usage after cancellation, got %+v", usage)
	}
}

func TestStreamEmptyResponse(t *testing.T) {
	transport := &MockTransport{
		CompleteFunc: func(_ context.Context, _ *Request) (*Response, error) {
			return &Response{Usage: Usage{InputTokens: 3}}, nil
		},
	}
	p := newTestProvider(t, transport)

	stream, err := p.Query(context.Background(), "go")
	if err != nil {
		t.Fatal(err)
	}
	events, err := drain(t, stream)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %+v", events)
	}
	if usage := p.Usage(); usage.RequestsCount != 1 || usage.TokensUsed != 3 {
		t.Errorf("unexpected usage %+v", usage)
	}
}

func TestStreamText(t *testing.T) {
	transport := &MockTransport{
		CompleteFunc: func(_ context.Context, _ *Request) (*Response, error) {
			return &Response{
				Content: []ContentBlock{
					{Type: BlockText, Text: "Hello, "},
					{Type: BlockToolUse, ID: "tu_1", Name: "clock", Input: []byte(`{}`)},
					{Type: BlockText, Text: "world"},
				},
			}, nil
		},
	}
	p := newTestProvider(t, transport)

	stream, err := p.Query(context.Background(), "go")
	if err != nil {
		t.Fatal(err)
	}
	text, err := stream.Text()
	if err != nil {
		t.Fatal(err)
	}
	if text != "Hello, world" {
		t.Errorf("expected %q, got %q", "Hello, world", text)
	}
}

func TestStreamCloseTwice(t *testing.T) {
	p := newTestProvider(t, &MockTransport{})

	stream, err := p.Query(context.Background(), "go")
	if err != nil {
		t.Fatal(err)
	}
	if err := stream.Close(); err != nil {
		t.Fatal(err)
	}
	if err := stream.Close(); err != nil {
		t.Fatal(err)
	}
	for stream.Next() {
	}
}
