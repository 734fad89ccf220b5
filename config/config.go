// Package config handles configuration loading and saving.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"drawchat/diagram"
	"drawchat/logger"
)

const (
	configDirName  = ".drawchat"
	configFileName = "config.yaml"
)

var configDirOverride string

// SetConfigDir overrides the config directory for the current process.
// Empty value clears the override.
func SetConfigDir(dir string) {
	configDirOverride = strings.TrimSpace(dir)
}

// Config is the root configuration structure.
type Config struct {
	Chat      ChatConfig      `json:"chat" yaml:"chat"`
	Providers ProvidersConfig `json:"providers" yaml:"providers"`
	Diagram   diagram.Config  `json:"diagram,omitempty" yaml:"diagram,omitempty"`
	Logging   LoggingConfig   `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// ChatConfig selects the chat backend and its runtime settings.
type ChatConfig struct {
	Provider       string  `json:"provider" yaml:"provider"` // deepseek, openrouter, anthropic
	ModelName      string  `json:"modelName,omitempty" yaml:"modelName,omitempty"`
	MaxTokens      int     `json:"maxTokens,omitempty" yaml:"maxTokens,omitempty"`
	Temperature    float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	TimeoutSeconds int     `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds,omitempty"` // 0 disables the deadline
}

// ProvidersConfig contains per-provider API configuration.
type ProvidersConfig struct {
	DeepSeek   *ProviderConfig `json:"deepseek,omitempty" yaml:"deepseek,omitempty"`
	OpenRouter *ProviderConfig `json:"openrouter,omitempty" yaml:"openrouter,omitempty"`
	Anthropic  *ProviderConfig `json:"anthropic,omitempty" yaml:"anthropic,omitempty"`
}

// ProviderConfig contains API settings for one provider.
type ProviderConfig struct {
	APIKey    string         `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	APIBase   string         `json:"apiBase,omitempty" yaml:"apiBase,omitempty"`
	ExtraBody map[string]any `json:"extraBody,omitempty" yaml:"extraBody,omitempty"` // raw JSON paths merged into request bodies
}

// LoggingConfig contains logging configuration. Enabled and Stdout are
// pointers so an explicit false in the file is distinguishable from an
// omitted field.
type LoggingConfig struct {
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Level   string `json:"level,omitempty" yaml:"level,omitempty"`
	Stdout  *bool  `json:"stdout,omitempty" yaml:"stdout,omitempty"`
	File    string `json:"file,omitempty" yaml:"file,omitempty"`
}

// ConfigDir returns the configuration directory, creating nothing.
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// ConfigPath returns the config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// CredentialPath returns the path of the stored credential for a
// provider.
func CredentialPath(providerName string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "credentials", providerName), nil
}

// Load reads the config file and applies defaults. A missing file yields
// the default config.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the config file, creating the directory as needed.
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Provider returns the configured settings for a provider name, never
// nil.
func (c *Config) Provider(name string) *ProviderConfig {
	var p *ProviderConfig
	switch name {
	case "deepseek":
		p = c.Providers.DeepSeek
	case "openrouter":
		p = c.Providers.OpenRouter
	case "anthropic":
		p = c.Providers.Anthropic
	}
	if p == nil {
		return &ProviderConfig{}
	}
	return p
}

// BuildLoggerConfig converts the logging section for logger.Init.
func (c *Config) BuildLoggerConfig() logger.Config {
	enabled := true
	if c.Logging.Enabled != nil {
		enabled = *c.Logging.Enabled
	}
	stdout := true
	if c.Logging.Stdout != nil {
		stdout = *c.Logging.Stdout
	}
	return logger.Config{
		Enabled: enabled,
		Level:   c.Logging.Level,
		Stdout:  stdout,
		File:    c.Logging.File,
	}
}
