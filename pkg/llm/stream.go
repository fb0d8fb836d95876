package llm

import (
	"context"
	"strings"
	"sync"
)

// EventStream is a lazy, single-pass sequence of query output events.
// Events are delivered one at a time as the consumer pulls them; the
// producer suspends between events whenever the transport has not yet
// delivered the next item. After Next returns false, Err reports whether
// the query failed.
//
// Session history and usage accounting for a query are applied only once
// its stream has been fully drained. A stream that is abandoned, or closed
// before exhaustion, contributes nothing.
type EventStream struct {
	ch     chan Event
	cancel context.CancelFunc
	once   sync.Once

	cur  Event
	done bool
	err  error
}

// Next advances to the next event, blocking until the transport produces
// one. It returns false once the sequence ends, by completion or failure.
func (s *EventStream) Next() bool {
	ev, ok := <-s.ch
	if !ok {
		s.done = true
		return false
	}
	s.cur = ev
	return true
}

// Current returns the event produced by the last successful Next.
func (s *EventStream) Current() Event { return s.cur }

// Err returns the query's terminal failure, if any. A mid-stream transport
// failure is reported here in addition to the error event emitted into the
// stream, so both iterating consumers and completion-awaiting consumers
// observe it. Err is valid once Next has returned false.
func (s *EventStream) Err() error {
	if !s.done {
		return nil
	}
	return s.err
}

// Close abandons the stream. Pending events are discarded and no session or
// usage bookkeeping happens for the query. Safe to call more than once.
func (s *EventStream) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Text drains the stream and returns the concatenated content of its text
// events, together with the terminal error.
func (s *EventStream) Text() (string, error) {
	var sb strings.Builder
	for s.Next() {
		if s.cur.Type == EventText {
			sb.WriteString(s.cur.Content)
		}
	}
	return sb.String(), s.Err()
}

// push delivers one event to the consumer, returning false if the stream
// was abandoned before the event could be handed over.
func (s *EventStream) push(ctx context.Context, ev Event) bool {
	select {
	case s.ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// run produces the event sequence for one query. Session and usage
// bookkeeping runs strictly after the consumer has received the final
// event, so an abandoned query leaves no trace.
func (p *Provider) run(ctx context.Context, transport Transport, req *Request, session *Session, out *EventStream) {
	defer close(out.ch)

	var (
		text  strings.Builder
		usage Usage
		err   error
	)

	if req.Stream {
		usage, err = p.relayStream(ctx, transport, req, out, &text)
	} else {
		usage, err = p.relayResponse(ctx, transport, req, out, &text)
	}

	if ctx.Err() != nil {
		out.err = ctx.Err()
		return
	}

	if err != nil {
		if !out.push(ctx, errorEvent(err)) {
			out.err = ctx.Err()
			return
		}
		out.err = err
		// The query completed, with an error: it counts as a request but
		// contributes no tokens.
		p.usage.record(Usage{}, ratesFor(req.Model))
		p.logger.Debug("query failed", "model", req.Model, "error", err)
		return
	}

	if session != nil {
		if reply := text.String(); reply != "" {
			session.append(Message{Role: RoleAssistant, Content: reply})
		}
	}
	p.usage.record(usage, ratesFor(req.Model))
	p.logger.Debug("query completed",
		"model", req.Model,
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
	)
}

// relayResponse normalizes a complete response: each text block becomes one
// text event and each tool_use block one tool_use event, in block order.
func (p *Provider) relayResponse(ctx context.Context, transport Transport, req *Request, out *EventStream, text *strings.Builder) (Usage, error) {
	resp, err := transport.Complete(ctx, req)
	if err != nil {
		return Usage{}, err
	}

	for _, block := range resp.Content {
		switch block.Type {
		case BlockText:
			if !out.push(ctx, Event{Type: EventText, Content: block.Text}) {
				return Usage{}, ctx.Err()
			}
			text.WriteString(block.Text)

		case BlockToolUse:
			input := string(block.Input)
			if input == "" {
				input = "{}"
			}
			ev := Event{
				Type:     EventToolUse,
				Content:  input,
				Metadata: &EventMetadata{ToolName: block.Name, ToolID: block.ID},
			}
			if !out.push(ctx, ev) {
				return Usage{}, ctx.Err()
			}
		}
	}

	return resp.Usage, nil
}

// relayStream normalizes an incremental response. Only text deltas produce
// events, one per delta, unconcatenated; the terminal message_delta frame
// feeds usage accounting and all other frame types are consumed silently.
func (p *Provider) relayStream(ctx context.Context, transport Transport, req *Request, out *EventStream, text *strings.Builder) (Usage, error) {
	source, err := transport.Stream(ctx, req)
	if err != nil {
		return Usage{}, err
	}
	defer source.Close()

	var usage Usage
	for source.Next() {
		event := source.Current()
		switch event.Type {
		case StreamContentBlockDelta:
			if event.Delta.Type != DeltaText {
				continue
			}
			if !out.push(ctx, Event{Type: EventText, Content: event.Delta.Text}) {
				return Usage{}, ctx.Err()
			}
			text.WriteString(event.Delta.Text)

		case StreamMessageDelta:
			// Usage for a streamed query comes from the terminal frame
			// only; the wire reports just output tokens there.
			usage = event.Usage
		}
	}

	if err := source.Err(); err != nil {
		return Usage{}, err
	}
	return usage, nil
}
