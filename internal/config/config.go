package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	appName = "fluenthue"

	yamlFile = "config.yml"
	tomlFile = "config.toml"

	// DefaultTimeout is used when no request timeout is configured
	DefaultTimeout = 10 * time.Second
)

// BridgeConfig stores connection details for a Hue bridge
type BridgeConfig struct {
	// IP address or hostname of the bridge
	Host string `yaml:"host" toml:"host"`
	// Application key (username) for authentication
	Username string `yaml:"username" toml:"username"`
	// Unique bridge identifier, empty for bridges added by address
	BridgeID string `yaml:"bridge_id,omitempty" toml:"bridge_id,omitempty"`
}

// Key identifies the bridge: its id, or its host when the id is unknown
func (b BridgeConfig) Key() string {
	if b.BridgeID != "" {
		return b.BridgeID
	}
	return b.Host
}

// Settings tune how bridges are reached
type Settings struct {
	// Discovery endpoint, defaults to the public Hue service
	DiscoveryURL string `yaml:"discovery_url,omitempty" toml:"discovery_url,omitempty"`
	// Request timeout as a Go duration, e.g. "5s"
	Timeout string `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
	// How long discovery answers are reused, e.g. "15m"; empty disables it
	DiscoveryCache string `yaml:"discovery_cache,omitempty" toml:"discovery_cache,omitempty"`
}

// RequestTimeout returns the configured timeout or DefaultTimeout
func (s Settings) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(s.Timeout)
	if err != nil || d <= 0 {
		return DefaultTimeout
	}
	return d
}

// DiscoveryCacheTTL returns the discovery cache lifetime, zero when disabled
func (s Settings) DiscoveryCacheTTL() time.Duration {
	d, err := time.ParseDuration(s.DiscoveryCache)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

func (s Settings) validate() error {
	if s.Timeout != "" {
		if _, err := time.ParseDuration(s.Timeout); err != nil {
			return fmt.Errorf("invalid timeout %q: %w", s.Timeout, err)
		}
	}
	if s.DiscoveryCache != "" {
		if _, err := time.ParseDuration(s.DiscoveryCache); err != nil {
			return fmt.Errorf("invalid discovery_cache %q: %w", s.DiscoveryCache, err)
		}
	}
	return nil
}

// Config stores all application configuration
type Config struct {
	// List of configured bridges
	Bridges []BridgeConfig `yaml:"bridges" toml:"bridges"`
	// Key of the last used bridge
	LastBridgeID string `yaml:"last_bridge_id,omitempty" toml:"last_bridge_id,omitempty"`
	// Connection settings
	Settings Settings `yaml:"settings,omitempty" toml:"settings,omitempty"`

	// Debug enables request logging; environment only
	Debug bool `yaml:"-" toml:"-"`

	// session is a bridge given through the environment. It wins over the
	// saved bridges and is never written back.
	session *BridgeConfig
}

// environment holds the FLUENTHUE_* overrides
type environment struct {
	Host         string
	User         string
	BridgeID     string        `split_words:"true"`
	DiscoveryURL string        `split_words:"true"`
	Timeout      time.Duration
	Debug        bool
}

var (
	ErrBridgeNotFound = errors.New("bridge not found")
	ErrNoBridges      = errors.New("no bridges configured")
)

// configDir returns the configuration directory path
func configDir() (string, error) {
	// Check XDG_CONFIG_HOME first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appName), nil
	}

	// Fall back to ~/.config
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// Load reads the configuration from disk and applies environment overrides.
// config.yml is preferred; config.toml is read when there is no YAML file.
func Load() (*Config, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}

	cfg, err := loadDir(dir)
	if err != nil {
		return nil, err
	}

	if err := cfg.applyEnvironment(); err != nil {
		return nil, err
	}

	if err := cfg.Settings.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadDir(dir string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filepath.Join(dir, yamlFile))
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", yamlFile, err)
		}
		return &cfg, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	data, err = os.ReadFile(filepath.Join(dir, tomlFile))
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if no file exists
			return &Config{}, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", tomlFile, err)
	}

	return &cfg, nil
}

// applyEnvironment layers FLUENTHUE_* variables over the file values
func (c *Config) applyEnvironment() error {
	var env environment
	if err := envconfig.Process(appName, &env); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	if env.DiscoveryURL != "" {
		c.Settings.DiscoveryURL = env.DiscoveryURL
	}
	if env.Timeout > 0 {
		c.Settings.Timeout = env.Timeout.String()
	}
	c.Debug = env.Debug

	if env.Host != "" && env.User != "" {
		c.session = &BridgeConfig{Host: env.Host, Username: env.User, BridgeID: env.BridgeID}
	}

	return nil
}

// Save writes the configuration to disk as YAML
func (c *Config) Save() error {
	dir, err := configDir()
	if err != nil {
		return err
	}

	// Ensure config directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, yamlFile), data, 0600)
}

// AddBridge adds or updates a bridge configuration
func (c *Config) AddBridge(bridge BridgeConfig) {
	// Check if bridge already exists and update it
	for i, b := range c.Bridges {
		if b.Key() == bridge.Key() || (bridge.BridgeID != "" && b.BridgeID == "" && b.Host == bridge.Host) {
			c.Bridges[i] = bridge
			return
		}
	}

	// Add new bridge
	c.Bridges = append(c.Bridges, bridge)
}

// GetBridge returns the bridge configuration by key (bridge id or host)
func (c *Config) GetBridge(key string) (*BridgeConfig, error) {
	for i := range c.Bridges {
		if c.Bridges[i].Key() == key || strings.EqualFold(c.Bridges[i].BridgeID, key) {
			return &c.Bridges[i], nil
		}
	}
	return nil, ErrBridgeNotFound
}

// GetLastBridge returns the environment bridge, the last used bridge or the
// first available
func (c *Config) GetLastBridge() (*BridgeConfig, error) {
	if c.session != nil {
		return c.session, nil
	}

	if len(c.Bridges) == 0 {
		return nil, ErrNoBridges
	}

	// Try to get the last used bridge
	if c.LastBridgeID != "" {
		bridge, err := c.GetBridge(c.LastBridgeID)
		if err == nil {
			return bridge, nil
		}
	}

	// Fall back to first bridge
	return &c.Bridges[0], nil
}

// RemoveBridge removes a bridge by key
func (c *Config) RemoveBridge(key string) {
	for i, b := range c.Bridges {
		if b.Key() == key {
			c.Bridges = append(c.Bridges[:i], c.Bridges[i+1:]...)
			return
		}
	}
}

// HasBridges returns true if a bridge is configured or given by the environment
func (c *Config) HasBridges() bool {
	return c.session != nil || len(c.Bridges) > 0
}
