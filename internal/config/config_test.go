package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/diogo/projectbrain/internal/models"
)

// setupHome points HOME at a temp dir and clears the override variables
func setupHome(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvTimeout, "")
	t.Setenv(EnvVerbose, "")
	return tmpDir
}

func writeConfigFile(t *testing.T, home, content string) string {
	t.Helper()
	configDir := filepath.Join(home, ".projectbrain")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	configPath := filepath.Join(configDir, "config.json")
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return configPath
}

func TestDefaultConfig(t *testing.T) {
	home := setupHome(t)
	cfg := DefaultConfig()

	if cfg.APIURL != models.DefaultBaseURL {
		t.Errorf("APIURL = %s, want %s", cfg.APIURL, models.DefaultBaseURL)
	}
	if cfg.TimeoutSeconds != 60 {
		t.Errorf("TimeoutSeconds = %d, want 60", cfg.TimeoutSeconds)
	}
	if cfg.Verbose {
		t.Error("Expected Verbose to be false")
	}
	if cfg.Markdown.Style != "dark" {
		t.Errorf("Markdown.Style = %s, want dark", cfg.Markdown.Style)
	}
	wantLog := filepath.Join(home, ".projectbrain", "projectbrain.log")
	if cfg.LogFile != wantLog {
		t.Errorf("LogFile = %s, want %s", cfg.LogFile, wantLog)
	}
}

func TestConfig_Timeout(t *testing.T) {
	tests := []struct {
		secs int
		want time.Duration
	}{
		{60, 60 * time.Second},
		{5, 5 * time.Second},
		{0, 60 * time.Second},
		{-3, 60 * time.Second},
	}
	for _, tt := range tests {
		cfg := Config{TimeoutSeconds: tt.secs}
		if got := cfg.Timeout(); got != tt.want {
			t.Errorf("Timeout() with %d = %s, want %s", tt.secs, got, tt.want)
		}
	}
}

func TestGetConfigPath(t *testing.T) {
	home := setupHome(t)

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() returned error: %v", err)
	}
	want := filepath.Join(home, ".projectbrain", "config.json")
	if path != want {
		t.Errorf("GetConfigPath() = %s, want %s", path, want)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	setupHome(t)

	dir, err := EnsureConfigDir()
	if err != nil {
		t.Fatalf("EnsureConfigDir() returned error: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Directory does not exist: %v", err)
	}
	if !info.IsDir() {
		t.Error("Path is not a directory")
	}
	if perm := info.Mode().Perm(); perm != 0o700 {
		t.Errorf("Directory permissions = %o, want 700", perm)
	}
}

func TestLoadConfig_FileNotExists(t *testing.T) {
	setupHome(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if cfg.APIURL != models.DefaultBaseURL {
		t.Errorf("APIURL = %s, want default", cfg.APIURL)
	}
}

func TestSaveConfig(t *testing.T) {
	home := setupHome(t)

	cfg := DefaultConfig()
	cfg.APIURL = "http://brain.internal:9000"
	cfg.TimeoutSeconds = 15
	cfg.Verbose = true

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() returned error: %v", err)
	}

	configPath := filepath.Join(home, ".projectbrain", "config.json")
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	var saved Config
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("Failed to parse saved config: %v", err)
	}
	if saved.APIURL != cfg.APIURL {
		t.Errorf("APIURL = %s, want %s", saved.APIURL, cfg.APIURL)
	}
	if saved.TimeoutSeconds != 15 {
		t.Errorf("TimeoutSeconds = %d, want 15", saved.TimeoutSeconds)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Failed to stat config file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("File permissions = %o, want 600", perm)
	}
}

func TestLoadConfig_WithExistingFile(t *testing.T) {
	home := setupHome(t)
	writeConfigFile(t, home, `{"api_url":"http://files.test:8080","timeout_seconds":30,"verbose":true}`)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if cfg.APIURL != "http://files.test:8080" {
		t.Errorf("APIURL = %s", cfg.APIURL)
	}
	if cfg.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds = %d, want 30", cfg.TimeoutSeconds)
	}
	if !cfg.Verbose {
		t.Error("Expected Verbose to be true")
	}
	// keys absent from the file keep their defaults
	if cfg.Markdown.Style != "dark" {
		t.Errorf("Markdown.Style = %s, want dark", cfg.Markdown.Style)
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	home := setupHome(t)
	writeConfigFile(t, home, `{"invalid": json content`)

	cfg, err := LoadConfig()
	if err == nil {
		t.Error("LoadConfig() with invalid JSON should return error")
	}
	if cfg.APIURL != models.DefaultBaseURL {
		t.Errorf("APIURL = %s, want default", cfg.APIURL)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	home := setupHome(t)
	writeConfigFile(t, home, `{"api_url":"http://files.test:8080","timeout_seconds":30}`)

	t.Setenv(EnvAPIURL, "http://env.test:7000")
	t.Setenv(EnvTimeout, "5")
	t.Setenv(EnvVerbose, "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if cfg.APIURL != "http://env.test:7000" {
		t.Errorf("APIURL = %s", cfg.APIURL)
	}
	if cfg.TimeoutSeconds != 5 {
		t.Errorf("TimeoutSeconds = %d, want 5", cfg.TimeoutSeconds)
	}
	if !cfg.Verbose {
		t.Error("Expected Verbose to be true")
	}
}

func TestLoadConfig_InvalidEnv(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"timeout not a number", EnvTimeout, "soon"},
		{"timeout zero", EnvTimeout, "0"},
		{"verbose not bool", EnvVerbose, "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupHome(t)
			t.Setenv(tt.key, tt.value)

			if _, err := LoadConfig(); err == nil {
				t.Errorf("Expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	const key = "PROJECTBRAIN_DOTENV_TEST"
	if err := os.WriteFile(envPath, []byte(key+"=from-file\n"), 0o600); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	if err := LoadDotEnv(envPath); err != nil {
		t.Fatalf("LoadDotEnv() returned error: %v", err)
	}
	if got := os.Getenv(key); got != "from-file" {
		t.Errorf("%s = %q, want from-file", key, got)
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("LoadDotEnv() with missing file returned error: %v", err)
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte(EnvAPIURL+"=http://dotenv.test\n"), 0o600); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Setenv(EnvAPIURL, "http://shell.test")

	if err := LoadDotEnv(envPath); err != nil {
		t.Fatalf("LoadDotEnv() returned error: %v", err)
	}
	if got := os.Getenv(EnvAPIURL); got != "http://shell.test" {
		t.Errorf("%s = %q, want shell value", EnvAPIURL, got)
	}
}

func TestConfig_SetValue(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
		check   func(Config) bool
	}{
		{"api_url", "http://set.test", false, func(c Config) bool { return c.APIURL == "http://set.test" }},
		{"api_url", "  ", true, nil},
		{"timeout_seconds", "12", false, func(c Config) bool { return c.TimeoutSeconds == 12 }},
		{"timeout_seconds", "-1", true, nil},
		{"verbose", "true", false, func(c Config) bool { return c.Verbose }},
		{"copy_to_clipboard", "1", false, func(c Config) bool { return c.CopyToClipboard }},
		{"copy_to_clipboard", "maybe", true, nil},
		{"markdown.style", "light", false, func(c Config) bool { return c.Markdown.Style == "light" }},
		{"markdown.table_wrap", "false", false, func(c Config) bool { return !c.Markdown.TableWrap }},
		{"tui_theme", "light", false, func(c Config) bool { return c.TUITheme == "light" }},
		{"default_model", "fast", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := DefaultConfig()
			err := cfg.SetValue(tt.key, tt.value)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("SetValue() returned error: %v", err)
			}
			if !tt.check(cfg) {
				t.Errorf("SetValue(%s, %s) did not apply: %+v", tt.key, tt.value, cfg)
			}
		})
	}
}

func TestUpdateValue_IgnoresEnv(t *testing.T) {
	setupHome(t)
	t.Setenv(EnvAPIURL, "http://env.test")

	if _, err := UpdateValue("timeout_seconds", "20"); err != nil {
		t.Fatalf("UpdateValue() returned error: %v", err)
	}

	path, _ := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}
	var saved Config
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("Failed to parse saved config: %v", err)
	}
	if saved.TimeoutSeconds != 20 {
		t.Errorf("TimeoutSeconds = %d, want 20", saved.TimeoutSeconds)
	}
	if saved.APIURL != models.DefaultBaseURL {
		t.Errorf("APIURL = %s, env override should not be saved", saved.APIURL)
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	if len(keys) == 0 {
		t.Fatal("Keys() returned empty list")
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Errorf("Keys() not sorted: %v", keys)
			break
		}
	}
}
