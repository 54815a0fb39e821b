package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL        = "http://127.0.0.1:8080"
	DefaultTimeout        = 10 * time.Second
	DefaultTokenStatePath = ".prepboard/token.json"
	DefaultHistoryFile    = ".prepboard/history"
	DefaultPrompt         = "prepboard> "
)

// Config holds CLI configuration.
type Config struct {
	BaseURL        string        `yaml:"baseURL"`
	Timeout        time.Duration `yaml:"timeout"`
	TokenStatePath string        `yaml:"tokenStatePath"`
	HistoryFile    string        `yaml:"historyFile"`
	Prompt         string        `yaml:"prompt"`
	PrettyJSON     *bool         `yaml:"prettyJSON"`
}

// Load reads path. A missing file yields the defaults unless required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file failed: %w", err)
		}
	case !required && errors.Is(err, fs.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read config file failed: %w", err)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// Pretty reports whether JSON bodies are indented.
func (c Config) Pretty() bool {
	return c.PrettyJSON == nil || *c.PrettyJSON
}

func applyDefaults(cfg *Config) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.TokenStatePath == "" {
		cfg.TokenStatePath = DefaultTokenStatePath
	}
	if cfg.HistoryFile == "" {
		cfg.HistoryFile = DefaultHistoryFile
	}
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
}
