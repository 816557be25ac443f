// Package config handles configuration for projectbrain.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/diogo/projectbrain/internal/models"
)

// Environment variables that override the config file
const (
	EnvAPIURL  = "PROJECTBRAIN_API_URL"
	EnvTimeout = "PROJECTBRAIN_TIMEOUT"
	EnvVerbose = "PROJECTBRAIN_VERBOSE"
)

const (
	dirName          = ".projectbrain"
	configFileName   = "config.json"
	logFileName      = "projectbrain.log"
	defaultTimeout   = 60
	minTimeoutSecond = 1
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // "dark", "light", "notty" or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// Config represents the user configuration
type Config struct {
	// APIURL is the base URL of the Project Brain backend.
	APIURL string `json:"api_url"`
	// TimeoutSeconds bounds each backend call.
	TimeoutSeconds int `json:"timeout_seconds"`
	// Verbose mirrors logs to stderr.
	Verbose         bool           `json:"verbose"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	LogFile         string         `json:"log_file,omitempty"`
	TUITheme        string         `json:"tui_theme,omitempty"`
	Markdown        MarkdownConfig `json:"markdown"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	logFile := ""
	if dir, err := GetConfigDir(); err == nil {
		logFile = filepath.Join(dir, logFileName)
	}
	return Config{
		APIURL:          models.DefaultBaseURL,
		TimeoutSeconds:  defaultTimeout,
		Verbose:         false,
		CopyToClipboard: false,
		LogFile:         logFile,
		TUITheme:        "dark",
		Markdown:        DefaultMarkdownConfig(),
	}
}

// Timeout returns the per-request deadline
func (c Config) Timeout() time.Duration {
	secs := c.TimeoutSeconds
	if secs < minTimeoutSecond {
		secs = defaultTimeout
	}
	return time.Duration(secs) * time.Second
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFileName), nil
}

// LoadDotEnv loads a .env file from the working directory when present.
// Variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// LoadConfig loads the configuration from disk and applies environment
// overrides.
func LoadConfig() (Config, error) {
	cfg, err := loadFile()
	if err != nil {
		return cfg, err
	}
	return cfg, applyEnv(&cfg)
}

func loadFile() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimeout)); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs < minTimeoutSecond {
			return fmt.Errorf("invalid %s %q: want a positive number of seconds", EnvTimeout, v)
		}
		cfg.TimeoutSeconds = secs
	}
	if v := strings.TrimSpace(os.Getenv(EnvVerbose)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvVerbose, v, err)
		}
		cfg.Verbose = b
	}
	return nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, configFileName)

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setters maps the keys accepted by SetValue
var setters = map[string]func(*Config, string) error{
	"api_url": func(c *Config, v string) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("api_url cannot be empty")
		}
		c.APIURL = strings.TrimSpace(v)
		return nil
	},
	"timeout_seconds": func(c *Config, v string) error {
		secs, err := strconv.Atoi(v)
		if err != nil || secs < minTimeoutSecond {
			return fmt.Errorf("timeout_seconds must be a positive integer, got %q", v)
		}
		c.TimeoutSeconds = secs
		return nil
	},
	"verbose":           boolSetter(func(c *Config) *bool { return &c.Verbose }),
	"copy_to_clipboard": boolSetter(func(c *Config) *bool { return &c.CopyToClipboard }),
	"log_file": func(c *Config, v string) error {
		c.LogFile = v
		return nil
	},
	"tui_theme": func(c *Config, v string) error {
		c.TUITheme = v
		return nil
	},
	"markdown.style": func(c *Config, v string) error {
		if v == "" {
			return fmt.Errorf("markdown.style cannot be empty")
		}
		c.Markdown.Style = v
		return nil
	},
	"markdown.enable_emoji":       boolSetter(func(c *Config) *bool { return &c.Markdown.EnableEmoji }),
	"markdown.preserve_newlines":  boolSetter(func(c *Config) *bool { return &c.Markdown.PreserveNewLines }),
	"markdown.table_wrap":         boolSetter(func(c *Config) *bool { return &c.Markdown.TableWrap }),
	"markdown.inline_table_links": boolSetter(func(c *Config) *bool { return &c.Markdown.InlineTableLinks }),
}

func boolSetter(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", v)
		}
		*field(c) = b
		return nil
	}
}

// Keys returns the settable configuration keys, sorted
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetValue updates one configuration key from its string form
func (c *Config) SetValue(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys(), ", "))
	}
	return set(c, value)
}

// UpdateValue loads the config file, sets one key and saves it back.
// Environment overrides are not persisted.
func UpdateValue(key, value string) (Config, error) {
	cfg, err := loadFile()
	if err != nil {
		return cfg, err
	}
	if err := cfg.SetValue(key, value); err != nil {
		return cfg, err
	}
	return cfg, SaveConfig(cfg)
}
