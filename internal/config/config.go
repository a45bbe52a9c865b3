package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultRequestTimeout = 2 * time.Minute

type Config struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key,omitempty"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url,omitempty"`

	// DataDir holds the SQLite database. Defaults to the config dir.
	DataDir        string        `yaml:"data_dir,omitempty"`
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`

	History HistoryConfig `yaml:"history"`
	Log     LogConfig     `yaml:"log"`
}

type HistoryConfig struct {
	// Persist keeps history across runs. Off by default: history lives
	// for the process only.
	Persist bool `yaml:"persist"`
}

type LogConfig struct {
	Level string `yaml:"level,omitempty"`
	File  string `yaml:"file,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Provider:       "gemini",
		RequestTimeout: DefaultRequestTimeout,
		Log: LogConfig{
			Level: "info",
		},
	}
}

func ConfigDir() (string, error) {
	if dir := os.Getenv("SOAPFLOW_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "soapflow"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func Exists() bool {
	path, err := ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Load reads the config file. A missing file returns (nil, nil) so the
// caller can run first-time setup.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.fillModel()

	return cfg, nil
}

func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// LoadDotEnv loads .env from the working directory if there is one.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

var providerKeyEnv = map[string][]string{
	"gemini":     {"GEMINI_API_KEY", "API_KEY"},
	"openai":     {"OPENAI_API_KEY"},
	"anthropic":  {"ANTHROPIC_API_KEY"},
	"groq":       {"GROQ_API_KEY"},
	"openrouter": {"OPENROUTER_API_KEY"},
}

// ApplyEnv overlays SOAPFLOW_* variables, then fills a missing API key
// from the provider's usual variable.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SOAPFLOW_PROVIDER"); v != "" && v != c.Provider {
		// The file's model and key belong to the old provider
		c.Provider = v
		c.Model = ""
		c.APIKey = ""
	}
	if v := os.Getenv("SOAPFLOW_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("SOAPFLOW_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("SOAPFLOW_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("SOAPFLOW_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}

	c.fillModel()

	if c.APIKey != "" {
		return
	}
	provider := c.Provider
	if provider == "" {
		provider = "gemini"
	}
	for _, name := range providerKeyEnv[provider] {
		if v := os.Getenv(name); v != "" {
			c.APIKey = v
			return
		}
	}
}

// fillModel picks the provider's default model when none is set
func (c *Config) fillModel() {
	if c.Model != "" {
		return
	}
	if p := GetProvider(c.Provider); p != nil {
		c.Model = p.DefaultModel
	}
}

// FromEnv builds a config purely from the environment. It returns nil
// when no provider key can be found.
func FromEnv() *Config {
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	if cfg.APIKey == "" && cfg.Provider != "ollama" {
		return nil
	}
	return cfg
}

func (c *Config) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return DefaultRequestTimeout
	}
	return c.RequestTimeout
}

func (c *Config) DataPath() (string, error) {
	dir := c.DataDir
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, "soapflow.db"), nil
}

func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "soapflow.log"), nil
}

// ExportDir is where exported prompt files are written
func (c *Config) ExportDir() (string, error) {
	dir := c.DataDir
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, "exports"), nil
}
