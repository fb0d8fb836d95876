package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type clockArgs struct {
	Timezone string `json:"timezone,omitempty" jsonschema:"description=IANA timezone name such as America/New_York (default UTC)"`
}

// Clock reports the current date and time.
type Clock struct{}

// NewClock creates a new clock tool.
func NewClock() *Clock { return &Clock{} }

func (c *Clock) Name() string                 { return "clock" }
func (c *Clock) Description() string          { return "Get the current date and time in a given timezone" }
func (c *Clock) InputSchema() json.RawMessage { return GenerateSchema[clockArgs]() }

func (c *Clock) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var args clockArgs
	if err := json.Unmarshal(input, &args); err != nil {
		return "", fmt.Errorf("parse args: %w", err)
	}
	loc := time.UTC
	if args.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(args.Timezone)
		if err != nil {
			return "", fmt.Errorf("unknown timezone %q: %w", args.Timezone, err)
		}
	}
	return time.Now().In(loc).Format("Mon, 02 Jan 2006 15:04:05 MST"), nil
}
