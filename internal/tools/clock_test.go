package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestClockName(t *testing.T) {
	c := NewClock()
	if c.Name() != "clock" {
		t.Errorf("expected 'clock', got %q", c.Name())
	}
}

func TestClockDefaultUTC(t *testing.T) {
	c := NewClock()
	result, err := c.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(result, "UTC") {
		t.Errorf("expected UTC time, got %q", result)
	}
}

func TestClockTimezone(t *testing.T) {
	c := NewClock()
	args, _ := json.Marshal(map[string]string{"timezone": "America/New_York"})
	result, err := c.Execute(context.Background(), args)
	if err != nil {
		t.Fatal(err)
	}
	if strings.HasSuffix(result, "UTC") {
		t.Errorf("expected zone-local time, got %q", result)
	}
}

func TestClockUnknownTimezone(t *testing.T) {
	c := NewClock()
	args, _ := json.Marshal(map[string]string{"timezone": "Nowhere/Nonexistent"})
	_, err := c.Execute(context.Background(), args)
	if err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}
