// ABOUTME: Application configuration loading and defaults
// ABOUTME: JSON config at the XDG data path, API key via environment
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	// AppName names the XDG data directory and the badger session
	// store inside it.
	AppName = "fieracrm"

	// ConfigFileName is where local config is stored.
	ConfigFileName = "config.json"

	// GeminiKeyEnv is the environment variable holding the OCR API
	// key. Loaded from the process environment or a .env file.
	GeminiKeyEnv = "GEMINI_API_KEY"
)

// Config holds connection and behavior settings.
type Config struct {
	// ProjectID is the Firestore project. Required unless Offline.
	ProjectID string `json:"project_id,omitempty"`

	// CredentialsFile is an optional service-account key path; when
	// empty, application default credentials apply.
	CredentialsFile string `json:"credentials_file,omitempty"`

	// GeminiModel overrides the extraction model.
	GeminiModel string `json:"gemini_model,omitempty"`

	// Password is the shared gate password, compared
	// case-insensitively. Authentication strength is out of scope;
	// this mirrors the original single shared secret.
	Password string `json:"password,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// Offline switches to the in-memory store. Useful for demos and
	// development without cloud credentials.
	Offline bool `json:"offline"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Password: "brevetti",
		LogLevel: "info",
	}
}

// DataDir returns the application data directory, creating it if
// needed.
func DataDir() (string, error) {
	dir := filepath.Join(xdg.DataHome, AppName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}

func configPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// LoadConfig loads config from disk, or returns defaults if not found
// or unreadable.
func LoadConfig() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return DefaultConfig(), nil //nolint:nilerr // defaults on path error
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), nil //nolint:nilerr // defaults on parse error
	}
	cfg.applyDefaults()
	return cfg, nil
}

// SaveConfig writes config to disk.
func SaveConfig(cfg *Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) applyDefaults() {
	if c.Password == "" {
		c.Password = "brevetti"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
