package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/loadstore/pkg/log"
)

// CLIConfig is the operator-facing YAML configuration.
type CLIConfig struct {
	DataDir  string    `yaml:"data_dir"`
	LogLevel log.Level `yaml:"log_level"`
}

// defaultConfigPath is tried when --config is not given; a missing file
// just means defaults.
const defaultConfigPath = "loadstore.yaml"

func loadCLIConfig(path string) (*CLIConfig, error) {
	cfg := &CLIConfig{
		DataDir:  "data",
		LogLevel: log.InfoLevel,
	}

	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	return cfg, nil
}
