package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"
)

type bashArgs struct {
	Command        string `json:"command" jsonschema:"description=The command to execute"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" jsonschema:"description=Timeout in seconds (default 120)"`
}

// Bash executes shell commands on the host.
type Bash struct{}

// NewBash creates a new Bash tool.
func NewBash() *Bash { return &Bash{} }

func (b *Bash) Name() string                 { return "bash" }
func (b *Bash) Description() string          { return "Execute a bash command on the host machine" }
func (b *Bash) InputSchema() json.RawMessage { return GenerateSchema[bashArgs]() }

func (b *Bash) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var args bashArgs
	if err := json.Unmarshal(input, &args); err != nil {
		return "", fmt.Errorf("parse args: %w", err)
	}
	if args.Command == "" {
		return "", fmt.Errorf("command is required")
	}

	timeout := 120 * time.Second
	if args.TimeoutSeconds > 0 {
		timeout = time.Duration(args.TimeoutSeconds) * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "bash", "-c", args.Command)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("command failed: %w\nOutput: %s", err, string(output))
	}
	return string(output), nil
}
