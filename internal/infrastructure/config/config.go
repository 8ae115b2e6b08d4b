package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/carwash/pkg/api"
	"github.com/felixgeelhaar/carwash/pkg/realtime"
	"github.com/felixgeelhaar/carwash/pkg/storage"
)

// Environment variables that override the config file.
const (
	EnvAPIURL      = "CARWASH_API_URL"
	EnvSocketURL   = "CARWASH_SOCKET_URL"
	EnvTimeout     = "CARWASH_TIMEOUT"
	EnvCredentials = "CARWASH_CREDENTIALS"
	EnvLogLevel    = "CARWASH_LOG_LEVEL"
	EnvLogFormat   = "CARWASH_LOG_FORMAT"
)

// Config is the client configuration. Zero fields fall back to defaults.
type Config struct {
	APIURL      string        `yaml:"api_url"`
	SocketURL   string        `yaml:"socket_url"`
	Timeout     time.Duration `yaml:"timeout"`
	Credentials string        `yaml:"credentials"`
	LogLevel    string        `yaml:"log_level"`
	LogFormat   string        `yaml:"log_format"`

	// Retry is the maximum attempts per request; 1 disables retries.
	Retry int `yaml:"retry"`
	// LifecycleOrdering drops real-time events that move an order backwards.
	LifecycleOrdering bool `yaml:"lifecycle_ordering"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIURL:      api.DefaultBaseURL,
		SocketURL:   realtime.DefaultURL,
		Timeout:     api.DefaultTimeout,
		Credentials: storage.DefaultCredentialsPath(),
		LogLevel:    "warn",
		LogFormat:   "console",
		Retry:       1,
	}
}

// DefaultPath returns ~/.carwash/config.yaml.
func DefaultPath() string {
	return filepath.Join(storage.DefaultDir(), storage.ConfigFile)
}

// Load builds the configuration from defaults, the YAML file at path, a
// .env file in the working directory and the environment, in that order.
// A missing file is not an error unless the path was given explicitly.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	fileCfg, err := readFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
	case err != nil:
		return Config{}, err
	default:
		cfg = merge(cfg, fileCfg)
	}

	// Load .env file if it exists
	_ = godotenv.Load()

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string) (Config, error) {
	// #nosec G304 -- path is chosen by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config file %s: %w", path, os.ErrNotExist)
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func merge(base, over Config) Config {
	if over.APIURL != "" {
		base.APIURL = over.APIURL
	}
	if over.SocketURL != "" {
		base.SocketURL = over.SocketURL
	}
	if over.Timeout > 0 {
		base.Timeout = over.Timeout
	}
	if over.Credentials != "" {
		base.Credentials = over.Credentials
	}
	if over.LogLevel != "" {
		base.LogLevel = over.LogLevel
	}
	if over.LogFormat != "" {
		base.LogFormat = over.LogFormat
	}
	if over.Retry > 0 {
		base.Retry = over.Retry
	}
	base.LifecycleOrdering = base.LifecycleOrdering || over.LifecycleOrdering
	return base
}

func applyEnv(cfg *Config) error {
	cfg.APIURL = getEnv(EnvAPIURL, cfg.APIURL)
	cfg.SocketURL = getEnv(EnvSocketURL, cfg.SocketURL)
	cfg.Credentials = getEnv(EnvCredentials, cfg.Credentials)
	cfg.LogLevel = getEnv(EnvLogLevel, cfg.LogLevel)
	cfg.LogFormat = getEnv(EnvLogFormat, cfg.LogFormat)
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvTimeout, v, err)
		}
		cfg.Timeout = d
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Save writes cfg to path as YAML.
func Save(path string, cfg Config) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
