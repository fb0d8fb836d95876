package tools

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/user/clawkit/pkg/llm"
)

// Tool defines the interface for an executable tool.
type Tool interface {
	Name() string
	Description() string
	InputSchema() json.RawMessage
	Execute(ctx context.Context, input json.RawMessage) (string, error)
}

// Registry holds registered tools and provides lookup.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the registry.
func (r *Registry) Register(t Tool) {
	r.tools[t.Name()] = t
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// All returns all registered tools, sorted by name.
func (r *Registry) All() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Definitions converts registered tools to provider form with their
// execution handlers bound. Order is stable by tool name.
func (r *Registry) Definitions() []llm.ToolDefinition {
	all := r.All()
	out := make([]llm.ToolDefinition, 0, len(all))
	for _, t := range all {
		out = append(out, llm.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
			Handler:     t.Execute,
		})
	}
	return out
}
