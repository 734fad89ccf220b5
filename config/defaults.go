package config

const (
	defaultProvider       = "deepseek"
	defaultMaxTokens      = 8192
	defaultTimeoutSeconds = 120
	defaultBridgeListen   = "127.0.0.1:7160"
	defaultLogLevel       = "info"
	defaultLogFile        = "logs/drawchat.log"
)

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	cfg := &Config{
		Chat: ChatConfig{
			Provider:       defaultProvider,
			MaxTokens:      defaultMaxTokens,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Logging: defaultLoggingConfig(),
	}
	cfg.Diagram.Listen = defaultBridgeListen
	cfg.Diagram.OpenBrowser = true
	return cfg
}

func defaultLoggingConfig() LoggingConfig {
	enabled := true
	stdout := true
	return LoggingConfig{
		Enabled: &enabled,
		Level:   defaultLogLevel,
		Stdout:  &stdout,
		File:    defaultLogFile,
	}
}

func (c *Config) applyDefaults() {
	if c.Chat.Provider == "" {
		c.Chat.Provider = defaultProvider
	}
	if c.Chat.MaxTokens <= 0 {
		c.Chat.MaxTokens = defaultMaxTokens
	}
	if c.Chat.TimeoutSeconds < 0 {
		c.Chat.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.Diagram.Listen == "" {
		c.Diagram.Listen = defaultBridgeListen
	}
	// Missing logging fields are filled one by one so a partial section
	// keeps the values the user did set. Nil pointers mean unset and
	// resolve to true in BuildLoggerConfig.
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.File == "" {
		c.Logging.File = defaultLogFile
	}
}
