package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PawtrackConfig represents the pawtrack.yaml configuration structure
type PawtrackConfig struct {
	Version string `yaml:"version"`
	Project string `yaml:"project"`

	Database struct {
		Driver         string `yaml:"driver"`
		URL            string `yaml:"url"`
		MaxConnections int    `yaml:"max_connections"`
	} `yaml:"database"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Logging struct {
		Level   string `yaml:"level"`
		Console bool   `yaml:"console"`
	} `yaml:"logging"`
}

// LoadPawtrackConfig reads the config file at path, or the first of
// the default locations when path is empty. A missing config is not
// an error; callers get nil and fall back to flags and env.
func LoadPawtrackConfig(path string) (*PawtrackConfig, error) {
	if path == "" {
		locations := []string{"pawtrack.yaml", "pawtrack.yml", ".pawtrack.yaml", ".pawtrack.yml"}
		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
		if path == "" {
			return nil, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config PawtrackConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.Database.Driver == "" {
		config.Database.Driver = "postgres"
	}
	if config.Database.MaxConnections == 0 {
		config.Database.MaxConnections = 25
	}
	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return &config, nil
}
