package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvAddr     = "LINESEARCH_ADDR"
	EnvWatchDir = "LINESEARCH_WATCH_DIR"
)

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Addr            string `yaml:"addr" toml:"addr"`
	ReadTimeoutSecs int    `yaml:"read_timeout_secs" toml:"read_timeout_secs"`
	MaxUploadBytes  int64  `yaml:"max_upload_bytes" toml:"max_upload_bytes"`
}

// FetchConfig configures outbound URL and GitHub loads.
type FetchConfig struct {
	TimeoutSecs  int     `yaml:"timeout_secs" toml:"timeout_secs"`
	RatePerSec   float64 `yaml:"rate_per_sec" toml:"rate_per_sec"`
	MaxBodyBytes int64   `yaml:"max_body_bytes" toml:"max_body_bytes"`
}

// GitHubConfig names where the optional API token comes from.
type GitHubConfig struct {
	TokenEnv string `yaml:"token_env" toml:"token_env"`
}

// WatchConfig configures the drop folder. An empty Dir disables it.
type WatchConfig struct {
	Dir        string   `yaml:"dir" toml:"dir"`
	Extensions []string `yaml:"extensions" toml:"extensions"`
}

// LogConfig selects log level and output format.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server ServerConfig `yaml:"server" toml:"server"`
	Fetch  FetchConfig  `yaml:"fetch" toml:"fetch"`
	GitHub GitHubConfig `yaml:"github" toml:"github"`
	Watch  WatchConfig  `yaml:"watch" toml:"watch"`
	Log    LogConfig    `yaml:"log" toml:"log"`
}

// FetchTimeout returns the fetch timeout as a duration.
func (c *AppConfig) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSecs) * time.Second
}

// ReadTimeout returns the server read timeout as a duration.
func (c *AppConfig) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeoutSecs) * time.Second
}

// GitHubToken reads the token from the configured environment variable.
func (c *AppConfig) GitHubToken() string {
	if c.GitHub.TokenEnv == "" {
		return ""
	}
	return os.Getenv(c.GitHub.TokenEnv)
}

// Load reads a config from path. TOML files are detected by extension; any
// other file is parsed as YAML. A missing file yields defaults.
func Load(path string) (*AppConfig, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	applyEnv(cfg)
	return cfg, nil
}

// LoadDefault tries ./linesearch.yaml, ./linesearch.toml, then
// ~/.config/linesearch/config.yaml. If none exists, it writes defaults to
// the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	for _, p := range []string{"linesearch.yaml", "linesearch.toml"} {
		if _, err := os.Stat(p); err == nil {
			cfg, err := Load(p)
			return cfg, p, err
		}
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnv(cfg)
	return cfg, userPath, nil
}

// LoadDotEnv loads a .env file into the process environment if present.
// Variables already set are not overridden.
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
	return godotenv.Load(existing...)
}

// Save writes the config to path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	return defaultConfig()
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "linesearch", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{Addr: ":8080", ReadTimeoutSecs: 15, MaxUploadBytes: 32 << 20},
		Fetch:  FetchConfig{TimeoutSecs: 30, RatePerSec: 5, MaxBodyBytes: 32 << 20},
		GitHub: GitHubConfig{TokenEnv: "GITHUB_TOKEN"},
		Watch:  WatchConfig{Extensions: []string{".txt", ".md", ".csv"}},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Server.ReadTimeoutSecs == 0 {
		cfg.Server.ReadTimeoutSecs = def.Server.ReadTimeoutSecs
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = def.Server.MaxUploadBytes
	}
	if cfg.Fetch.TimeoutSecs == 0 {
		cfg.Fetch.TimeoutSecs = def.Fetch.TimeoutSecs
	}
	if cfg.Fetch.MaxBodyBytes == 0 {
		cfg.Fetch.MaxBodyBytes = def.Fetch.MaxBodyBytes
	}
	if len(cfg.Watch.Extensions) == 0 {
		cfg.Watch.Extensions = def.Watch.Extensions
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
}

func applyEnv(cfg *AppConfig) {
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv(EnvWatchDir); v != "" {
		cfg.Watch.Dir = v
	}
}
