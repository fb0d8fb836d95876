package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// ToMap converts the config to a nested map via its JSON form.
func ToMap(cfg *Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ListValues returns the config as a flat map with dot-separated keys. When
// masked is true, secret values are reduced to a "***" suffix form.
func ListValues(cfg *Config, masked bool) (map[string]any, error) {
	nested, err := ToMap(cfg)
	if err != nil {
		return nil, err
	}
	flat := Flatten(nested)
	if masked {
		flat = MaskSecrets(flat)
	}
	return flat, nil
}

// GetValue reads one value by dot-separated key from the config file at
// path, creating the file with defaults first if needed. The raw file is
// consulted, so keys outside the Config struct are readable too. Secrets
// come back masked.
func GetValue(path, key string) (any, error) {
	if _, err := Load(path); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var nested map[string]any
	if err := json.Unmarshal(data, &nested); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	flat := MaskSecrets(Flatten(nested))
	val, ok := flat[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
	return val, nil
}

// SetValue updates one value by dot-separated key in the config file at
// path. The raw file is edited directly so environment overrides are never
// baked into it, and keys outside the Config struct are allowed.
func SetValue(path, key, value string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var nested map[string]any
	if err := json.Unmarshal(data, &nested); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	flat := Flatten(nested)
	flat[key] = coerce(value)
	nested = Unflatten(flat)

	out, err := json.MarshalIndent(nested, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	out = append(out, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, out, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// coerce parses a value as JSON where possible so numbers and booleans keep
// their type, falling back to a plain string.
func coerce(value string) any {
	var v any
	if err := json.Unmarshal([]byte(value), &v); err == nil {
		switch v.(type) {
		case float64, bool, nil:
			return v
		}
	}
	return value
}
