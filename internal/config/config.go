package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	LogLevel      string `json:"log_level"`
	MaxToolRounds int    `json:"max_tool_rounds"`
	LLM           struct {
		BaseURL          string `json:"base_url"`
		APIKey           string `json:"api_key"`
		Model            string `json:"model"`
		TimeoutSeconds   int    `json:"timeout_seconds"`
		Retries          int    `json:"retries"`
		MaxContextTokens int    `json:"max_context_tokens"`
	} `json:"llm"`
	Brave struct {
		APIKey string `json:"api_key"`
	} `json:"brave"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LogLevel = "info"
	cfg.MaxToolRounds = 10
	cfg.LLM.BaseURL = "https://api.anthropic.com"
	cfg.LLM.Model = "claude-3-opus-20240229"
	cfg.LLM.TimeoutSeconds = 30
	cfg.LLM.Retries = 3
	cfg.LLM.MaxContextTokens = 200000

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}
	if baseURL := os.Getenv("ANTHROPIC_BASE_URL"); baseURL != "" {
		cfg.LLM.BaseURL = baseURL
	}
	if braveKey := os.Getenv("BRAVE_API_KEY"); braveKey != "" {
		cfg.Brave.APIKey = braveKey
	}

	return cfg, nil
}

// Save writes the config to disk atomically.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
