// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	API       APIConfig       `toml:"api"`
	Dashboard DashboardConfig `toml:"dashboard"`
	History   HistoryConfig   `toml:"history"`
}

// APIConfig maps Open Trivia DB client settings.
type APIConfig struct {
	BaseURL *string `toml:"base-url"`
	Timeout *string `toml:"timeout"`
	Delay   *string `toml:"delay"`
}

// DashboardConfig maps dashboard defaults.
type DashboardConfig struct {
	Mode       *string `toml:"mode"`
	SampleSize *int    `toml:"sample-size"`
	LogFile    *string `toml:"log-file"`
}

// HistoryConfig maps snapshot history settings.
type HistoryConfig struct {
	Disabled *bool   `toml:"disabled"`
	DBPath   *string `toml:"db"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
