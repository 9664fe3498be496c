package flow

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a flow configuration from a YAML file and validates
// it. An empty path returns the built-in default flow.
//
// File shape:
//
//	statuses:
//	  - pending_ta
//	  - approved_by_ta
//	  ...
//	  - fully_approved
//	roles:
//	  TA: approved_by_ta
//	  ...
//	  CM: fully_approved
//	fast_track: CM
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flow config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse flow config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("flow config %s: %w", path, err)
	}
	return cfg, nil
}
