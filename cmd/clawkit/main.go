package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/user/clawkit/internal/config"
	ctxengine "github.com/user/clawkit/internal/context"
	"github.com/user/clawkit/internal/tools"
	"github.com/user/clawkit/pkg/llm"
	"github.com/user/clawkit/pkg/llm/anthropic"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "clawkit",
	Short: "Chat with Claude from the terminal",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config",
		filepath.Join(os.Getenv("HOME"), ".clawkit", "config.json"),
		"config file path")
}

// loadConfig loads the config file, exiting on failure. Commands call this
// instead of handling load errors individually.
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// newProvider builds an initialized provider from the config.
func newProvider(cfg *config.Config) (*llm.Provider, error) {
	p := anthropic.NewProvider()
	err := p.Initialize(llm.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		Retries: cfg.LLM.Retries,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// newRegistry assembles the builtin tools. Brave search joins only when a
// key is configured.
func newRegistry(cfg *config.Config) *tools.Registry {
	registry := tools.NewRegistry()
	registry.Register(tools.NewBash())
	registry.Register(tools.NewReadURL())
	registry.Register(tools.NewClock())
	if cfg.Brave.APIKey != "" {
		registry.Register(tools.NewBraveSearch(cfg.Brave.APIKey))
	}
	return registry
}

func newEngine(cfg *config.Config) (*ctxengine.Engine, error) {
	engine, err := ctxengine.New(cfg.LLM.Model, cfg.LLM.MaxContextTokens)
	if err != nil {
		return nil, fmt.Errorf("create context engine: %w", err)
	}
	return engine, nil
}

func main() {
	// A local .env can supply ANTHROPIC_API_KEY and friends during
	// development; absent files are fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
