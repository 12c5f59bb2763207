package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the pascan.yaml configuration.
type Config struct {
	Project       string       `yaml:"project"`
	Ignore        []string     `yaml:"ignore"`
	Workers       int          `yaml:"workers"`
	EventSuffixes []string     `yaml:"event_suffixes"`
	EventPrefixes []string     `yaml:"event_prefixes"`
	Output        OutputConfig `yaml:"output"`
}

// OutputConfig controls where and how output artifacts are written.
type OutputConfig struct {
	Dir             string `yaml:"dir"`
	MaxReportTokens int    `yaml:"max_report_tokens"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Project: ".",
		Ignore: []string{
			"__history/**",
			"__recovery/**",
			".git/**",
			"backup/**",
			"**/*.~pas",
			"**/*.~dfm",
			".pascan/**",
		},
		Output: OutputConfig{
			Dir:             ".pascan",
			MaxReportTokens: 4000,
		},
	}
}

// Load reads a configuration file from the given path. Missing fields are
// filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Output.Dir == "" {
		cfg.Output.Dir = ".pascan"
	}
	if cfg.Output.MaxReportTokens == 0 {
		cfg.Output.MaxReportTokens = 4000
	}

	return cfg, nil
}
