package config

import (
	"os"
	"path/filepath"
	"testing"
)

func useTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	SetConfigDir(dir)
	t.Cleanup(func() { SetConfigDir("") })
	return dir
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	useTempConfigDir(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Chat.Provider != "deepseek" {
		t.Errorf("provider = %q, want deepseek", cfg.Chat.Provider)
	}
	if cfg.Chat.MaxTokens != defaultMaxTokens {
		t.Errorf("maxTokens = %d, want %d", cfg.Chat.MaxTokens, defaultMaxTokens)
	}
	if cfg.Chat.TimeoutSeconds != defaultTimeoutSeconds {
		t.Errorf("timeoutSeconds = %d, want %d", cfg.Chat.TimeoutSeconds, defaultTimeoutSeconds)
	}
	if !cfg.Diagram.OpenBrowser {
		t.Error("openBrowser should default to true")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	useTempConfigDir(t)

	cfg := DefaultConfig()
	cfg.Chat.Provider = "openrouter"
	cfg.Chat.ModelName = "qwen/qwen3-coder"
	cfg.Chat.Temperature = 0.7
	cfg.Providers.OpenRouter = &ProviderConfig{
		APIKey:    "sk-or-test",
		ExtraBody: map[string]any{"reasoning.enabled": true},
	}
	if err := cfg.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Chat.Provider != "openrouter" {
		t.Errorf("provider = %q, want openrouter", loaded.Chat.Provider)
	}
	if loaded.Chat.ModelName != "qwen/qwen3-coder" {
		t.Errorf("modelName = %q", loaded.Chat.ModelName)
	}
	if loaded.Chat.Temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", loaded.Chat.Temperature)
	}
	p := loaded.Provider("openrouter")
	if p.APIKey != "sk-or-test" {
		t.Errorf("apiKey = %q", p.APIKey)
	}
	if v, ok := p.ExtraBody["reasoning.enabled"].(bool); !ok || !v {
		t.Errorf("extraBody = %v, want reasoning.enabled true", p.ExtraBody)
	}
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	dir := useTempConfigDir(t)

	partial := "chat:\n  provider: anthropic\n"
	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte(partial), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Chat.Provider != "anthropic" {
		t.Errorf("provider = %q, want anthropic", cfg.Chat.Provider)
	}
	if cfg.Chat.MaxTokens != defaultMaxTokens {
		t.Errorf("maxTokens = %d, want default filled in", cfg.Chat.MaxTokens)
	}
	if cfg.Diagram.Listen != defaultBridgeListen {
		t.Errorf("listen = %q, want default filled in", cfg.Diagram.Listen)
	}
}

func TestPartialLoggingSectionKeepsUserValues(t *testing.T) {
	dir := useTempConfigDir(t)

	partial := "logging:\n  enabled: false\n  stdout: false\n  file: custom/drawchat.log\n"
	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte(partial), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Logging.Enabled == nil || *cfg.Logging.Enabled {
		t.Error("explicit enabled: false was overwritten")
	}
	if cfg.Logging.File != "custom/drawchat.log" {
		t.Errorf("file = %q, user value was overwritten", cfg.Logging.File)
	}
	if cfg.Logging.Level != defaultLogLevel {
		t.Errorf("level = %q, want missing field filled in", cfg.Logging.Level)
	}

	lc := cfg.BuildLoggerConfig()
	if lc.Enabled {
		t.Error("logger config should carry enabled: false")
	}
	if lc.Stdout {
		t.Error("logger config should carry stdout: false")
	}
}

func TestBuildLoggerConfigDefaultsUnsetBools(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	lc := cfg.BuildLoggerConfig()
	if !lc.Enabled || !lc.Stdout {
		t.Errorf("unset logging bools should resolve to true, got enabled=%v stdout=%v", lc.Enabled, lc.Stdout)
	}
}

func TestProviderNeverNil(t *testing.T) {
	cfg := DefaultConfig()
	for _, name := range []string{"deepseek", "openrouter", "anthropic", "unknown"} {
		if cfg.Provider(name) == nil {
			t.Errorf("Provider(%q) returned nil", name)
		}
	}
}

func TestCredentialPath(t *testing.T) {
	dir := useTempConfigDir(t)

	got, err := CredentialPath("deepseek")
	if err != nil {
		t.Fatalf("credential path: %v", err)
	}
	want := filepath.Join(dir, "credentials", "deepseek")
	if got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}
