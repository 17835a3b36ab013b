// Package config handles runtime configuration for the terminal apps:
// defaults, an optional JSON overlay, and command-line overrides applied
// by the cobra layer.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/akarpov87/termvault/internal/filex"
)

// Config holds runtime settings shared by the apps.
//
// Fields:
//   - DataDir: directory holding the credential table and user data files.
//   - Verbose: enables debug logging.
type Config struct {
	DataDir string
	Verbose bool
}

// jsonConfig is the DTO for the optional JSON overlay file.
type jsonConfig struct {
	DataDir *string `json:"data_dir"`
	Verbose *bool   `json:"verbose"`
}

// Load builds a Config for appName by applying defaults and then, when
// jsonPath is non-empty, overlaying values from that JSON file. Flag
// overrides are applied afterwards by the caller.
func Load(appName, jsonPath string) (*Config, error) {
	dir, err := filex.DataDir(appName)
	if err != nil {
		return nil, err
	}
	cfg := &Config{DataDir: dir}

	if jsonPath != "" {
		if err := cfg.applyJSON(jsonPath); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Config) applyJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var j jsonConfig
	if err := json.Unmarshal(data, &j); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if j.DataDir != nil {
		c.DataDir = *j.DataDir
	}
	if j.Verbose != nil {
		c.Verbose = *j.Verbose
	}
	return nil
}
