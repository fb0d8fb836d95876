package llm

import (
	"context"
	"encoding/json"
	"sync"

	"golang.org/x/sync/semaphore"
)

// maxParallelTools bounds how many tool handlers run at once.
const maxParallelTools = 4

// ToolDefinition describes a tool the model may request, together with the
// handler that runs it. Name must be unique within one invocation.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     func(ctx context.Context, input json.RawMessage) (string, error)
}

// ToolExecution is the outcome of running one tool handler: either a
// successful output or the handler's error message.
type ToolExecution struct {
	ToolName string `json:"tool_name"`
	Success  bool   `json:"success"`
	Output   string `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ExecuteTools invokes every definition's handler with the given input.
// Handlers run concurrently under a bounded semaphore; results come back
// one per definition, in input order. A failing handler is reported in its
// own result and never aborts the batch.
func (p *Provider) ExecuteTools(ctx context.Context, tools []ToolDefinition, input json.RawMessage) []ToolExecution {
	results := make([]ToolExecution, len(tools))
	sem := semaphore.NewWeighted(maxParallelTools)

	var wg sync.WaitGroup
	for i, tool := range tools {
		wg.Add(1)
		go func(i int, tool ToolDefinition) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = ToolExecution{ToolName: tool.Name, Error: err.Error()}
				return
			}
			defer sem.Release(1)
			results[i] = runTool(ctx, tool, input)
		}(i, tool)
	}
	wg.Wait()

	return results
}

// runTool invokes one handler and folds its outcome into a result.
func runTool(ctx context.Context, tool ToolDefinition, input json.RawMessage) ToolExecution {
	result := ToolExecution{ToolName: tool.Name}

	if tool.Handler == nil {
		result.Error = "tool has no handler"
		return result
	}

	output, err := tool.Handler(ctx, input)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.Output = output
	return result
}

// toolParams converts definitions to the schema form sent to the model.
func toolParams(tools []ToolDefinition) []ToolParam {
	if len(tools) == 0 {
		return nil
	}
	out := make([]ToolParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, ToolParam{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return out
}
