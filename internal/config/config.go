package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	TransportHTTP  = "http"
	TransportWS    = "ws"
	// TransportLocal runs the engine in process without a server.
	TransportLocal = "local"

	defaultServerURL = "http://localhost:8080"
	defaultTimeout   = 10 * time.Second
	configFileName   = "config.toml"
)

type Config struct {
	// ServerURL is the base URL of the engine server.
	ServerURL string
	// Transport selects the engine transport (http|ws|local).
	Transport string
	// Timeout bounds each engine request.
	Timeout time.Duration

	// Home is the directory where ssdeepviz stores local state.
	Home string

	// Debug enables verbose logging.
	Debug bool
	// LogLevel is the logger threshold name; Debug forces "debug".
	LogLevel string
}

// fileConfig is the on-disk shape of $SSDEEPVIZ_HOME/config.toml.
type fileConfig struct {
	ServerURL string `toml:"server_url"`
	Transport string `toml:"transport"`
	Timeout   string `toml:"timeout"`
	LogLevel  string `toml:"log_level"`
	Debug     bool   `toml:"debug"`
}

// Load reads defaults, then the config file, then the environment. Later
// sources win.
func Load() (*Config, error) {
	home := os.Getenv("SSDEEPVIZ_HOME")
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		home = filepath.Join(userHome, ".ssdeepviz")
	}

	cfg := &Config{
		ServerURL: defaultServerURL,
		Transport: TransportHTTP,
		Timeout:   defaultTimeout,
		Home:      home,
		LogLevel:  "info",
	}

	if err := cfg.loadFile(filepath.Join(home, configFileName)); err != nil {
		return nil, err
	}

	if v := os.Getenv("SSDEEPVIZ_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("SSDEEPVIZ_TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	if v := os.Getenv("SSDEEPVIZ_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SSDEEPVIZ_TIMEOUT %q: %w", v, err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv("SSDEEPVIZ_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}
	if cfg.Debug {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	var fc fileConfig
	_, err := toml.DecodeFile(path, &fc)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if fc.ServerURL != "" {
		c.ServerURL = fc.ServerURL
	}
	if fc.Transport != "" {
		c.Transport = fc.Transport
	}
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q in %s: %w", fc.Timeout, path, err)
		}
		c.Timeout = d
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	c.Debug = c.Debug || fc.Debug
	return nil
}

// Validate checks field values after all sources are applied.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportHTTP, TransportWS, TransportLocal:
	default:
		return fmt.Errorf("invalid transport %q (expected http, ws or local)", c.Transport)
	}
	if c.ServerURL == "" {
		return fmt.Errorf("server url is empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// Save creates the home directory.
func (c *Config) Save() error {
	return os.MkdirAll(c.Home, 0o700)
}
