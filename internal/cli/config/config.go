// Package config holds the parleyctl settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// Output formats.
const (
	OutputAuto = "auto"
	OutputText = "text"
	OutputJSON = "json"
)

type Config struct {
	DBPath string `yaml:"db_path" json:"db_path"`
	Output string `yaml:"output" json:"output"`
	// Limit caps listed rows; zero means no cap.
	Limit int `yaml:"limit" json:"limit"`
}

// DefaultPath is ~/.parleyctl.yaml, or "" when the home directory is
// unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".parleyctl.yaml")
}

func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Load reads path, or the default path when path is empty. A missing
// default file yields an empty config.
func Load(path string) (*Config, error) {
	if path != "" {
		return LoadFromFile(path)
	}
	def := DefaultPath()
	if def == "" {
		return &Config{}, nil
	}
	cfg, err := LoadFromFile(def)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	return cfg, err
}

func SaveToFile(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Output {
	case "", OutputAuto, OutputText, OutputJSON:
	default:
		return fmt.Errorf("output must be %q, %q or %q, got %q", OutputAuto, OutputText, OutputJSON, c.Output)
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}
	return nil
}
