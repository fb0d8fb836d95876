// Package chat implements the interactive conversation loop: it sends user
// input to the provider, executes any tools the model requests, and feeds
// results back until the model settles on a text reply.
package chat

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"

	ctxengine "github.com/user/clawkit/internal/context"
	"github.com/user/clawkit/internal/tools"
	"github.com/user/clawkit/pkg/llm"
)

// toolCall is one tool invocation the model requested in a round.
type toolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// Config carries the loop's tunables. Zero values get sane defaults.
type Config struct {
	MaxRounds int
	Stream    bool
	Output    io.Writer
	Logger    *slog.Logger
}

// Chat drives multi-round conversations over one session.
type Chat struct {
	provider  *llm.Provider
	registry  *tools.Registry
	engine    *ctxengine.Engine
	session   *llm.Session
	maxRounds int
	stream    bool
	out       io.Writer
	logger    *slog.Logger
}

// New creates a Chat bound to a fresh session on the provider.
func New(provider *llm.Provider, registry *tools.Registry, engine *ctxengine.Engine, cfg Config) *Chat {
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 10
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Chat{
		provider:  provider,
		registry:  registry,
		engine:    engine,
		session:   provider.CreateSession(),
		maxRounds: cfg.MaxRounds,
		stream:    cfg.Stream,
		out:       cfg.Output,
		logger:    cfg.Logger,
	}
}

// Session returns the conversation's current session.
func (c *Chat) Session() *llm.Session { return c.session }

// Reset abandons the current session and starts a fresh one.
func (c *Chat) Reset() {
	c.session = c.provider.CreateSession()
}

// ContextTokens returns the token footprint of the session history.
func (c *Chat) ContextTokens() int {
	return c.engine.CountMessages(c.session.Messages())
}

// live reports whether replies are rendered incrementally as they arrive.
// Streamed queries surface text only, so tool-enabled turns always use
// complete responses.
func (c *Chat) live() bool {
	return c.stream && len(c.registry.All()) == 0
}

// Turn runs one user turn to completion: query the model, execute requested
// tools, feed results back, repeat until a round produces no tool calls.
func (c *Chat) Turn(ctx context.Context, prompt string) (string, error) {
	turnID := uuid.New().String()
	defs := c.registry.Definitions()

	next := prompt
	for round := 0; round < c.maxRounds; round++ {
		text, calls, err := c.exchange(ctx, next, defs)
		if err != nil {
			return "", err
		}
		c.logger.Debug("chat round", "turn", turnID, "round", round, "tool_calls", len(calls))

		if len(calls) == 0 {
			c.checkWindow()
			return text, nil
		}
		next = c.runTools(ctx, turnID, calls)
	}

	return "", fmt.Errorf("max tool rounds (%d) exceeded", c.maxRounds)
}

// exchange issues one query and collects its text and tool invocations.
func (c *Chat) exchange(ctx context.Context, prompt string, defs []llm.ToolDefinition) (string, []toolCall, error) {
	opts := []llm.QueryOption{llm.WithSession(c.session)}
	if len(defs) > 0 {
		opts = append(opts, llm.WithTools(defs))
	}
	live := c.live()
	if live {
		opts = append(opts, llm.WithStream())
	}

	stream, err := c.provider.Query(ctx, prompt, opts...)
	if err != nil {
		return "", nil, err
	}

	var text strings.Builder
	var calls []toolCall
	for stream.Next() {
		ev := stream.Current()
		switch ev.Type {
		case llm.EventText:
			text.WriteString(ev.Content)
			if live {
				fmt.Fprint(c.out, ev.Content)
			}
		case llm.EventToolUse:
			calls = append(calls, toolCall{
				ID:    ev.Metadata.ToolID,
				Name:  ev.Metadata.ToolName,
				Input: json.RawMessage(ev.Content),
			})
		}
	}
	if err := stream.Err(); err != nil {
		return "", nil, err
	}
	return text.String(), calls, nil
}

// runTools executes the requested tools and formats their results as the
// next round's prompt. A failing tool reports its error in place; it never
// aborts the turn.
func (c *Chat) runTools(ctx context.Context, turnID string, calls []toolCall) string {
	var sb strings.Builder
	sb.WriteString("Tool results:\n")
	for _, call := range calls {
		tool, ok := c.registry.Get(call.Name)
		var result string
		if !ok {
			result = fmt.Sprintf("error: unknown tool %q", call.Name)
		} else {
			exec := c.provider.ExecuteTools(ctx, []llm.ToolDefinition{{
				Name:    tool.Name(),
				Handler: tool.Execute,
			}}, call.Input)[0]
			if exec.Success {
				result = exec.Output
			} else {
				result = "error: " + exec.Error
			}
		}
		c.logger.Debug("tool executed", "turn", turnID, "tool", call.Name, "call_id", call.ID)
		fmt.Fprintf(&sb, "[%s] %s\n", call.Name, result)
	}
	return sb.String()
}

// checkWindow warns once the session history outgrows the model window.
func (c *Chat) checkWindow() {
	msgs := c.session.Messages()
	if len(c.engine.Fit(msgs)) < len(msgs) {
		c.logger.Warn("session history exceeds the context window",
			"tokens", c.engine.CountMessages(msgs),
			"window", c.engine.Window(),
		)
	}
}

const helpText = `Commands:
  /new       start a fresh session
  /sessions  list sessions
  /tools     list available tools
  /usage     show token usage and cost
  /help      show this help
  /quit      exit
`

// Run reads user input line by line until EOF or /quit.
func (c *Chat) Run(ctx context.Context, in io.Reader) error {
	fmt.Fprintf(c.out, "Chatting with %s. Type /help for commands.\n", c.provider.Model())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if c.command(line) {
				return nil
			}
			continue
		}

		reply, err := c.Turn(ctx, line)
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
			continue
		}
		if c.live() {
			fmt.Fprintln(c.out)
		} else {
			fmt.Fprintln(c.out, reply)
		}
	}
	return scanner.Err()
}

// command handles one slash command, returning true when the loop should
// exit.
func (c *Chat) command(line string) bool {
	switch strings.Fields(line)[0] {
	case "/quit", "/exit":
		return true
	case "/new":
		c.Reset()
		fmt.Fprintf(c.out, "Started session %s\n", c.session.ID())
	case "/usage":
		u := c.provider.Usage()
		fmt.Fprintf(c.out, "Tokens: %d  Requests: %d  Cost: $%.4f\n", u.TokensUsed, u.RequestsCount, u.Cost)
		fmt.Fprintf(c.out, "Context: %d / %d tokens\n", c.ContextTokens(), c.engine.Window())
	case "/sessions":
		w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tMESSAGES")
		for _, s := range c.provider.Sessions() {
			id := s.ID()
			if id == c.session.ID() {
				id += " *"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\n", id, s.CreatedAt().Format("2006-01-02 15:04:05"), s.Len())
		}
		w.Flush()
	case "/tools":
		if len(c.registry.All()) == 0 {
			fmt.Fprintln(c.out, "No tools registered.")
			break
		}
		w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		for _, t := range c.registry.All() {
			fmt.Fprintf(w, "%s\t%s\n", t.Name(), t.Description())
		}
		w.Flush()
	case "/help":
		fmt.Fprint(c.out, helpText)
	default:
		fmt.Fprintf(c.out, "Unknown command %s\n", line)
	}
	return false
}
