package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the server and CLI.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Index   IndexConfig   `yaml:"index"`
	Watch   WatchConfig   `yaml:"watch"`
	Bundle  BundleConfig  `yaml:"bundle"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds the HTTP transport configuration.
type ServerConfig struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	AutoStartWatchers bool   `yaml:"auto_start_watchers"`
}

// IndexConfig holds index store and scan configuration.
type IndexConfig struct {
	Dir       string   `yaml:"dir"`
	Root      string   `yaml:"root"`
	Excludes  []string `yaml:"excludes"`
	Stopwords bool     `yaml:"stopwords"`
	K1        float64  `yaml:"k1"`
	B         float64  `yaml:"b"`
}

// WatchConfig holds change-monitor configuration.
type WatchConfig struct {
	DebounceMs int `yaml:"debounce_ms"`
}

// BundleConfig holds context-bundler defaults.
type BundleConfig struct {
	Limit    int `yaml:"limit"`
	CapBytes int `yaml:"cap_bytes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              8080,
			AutoStartWatchers: true,
		},
		Index: IndexConfig{
			Dir:       ".index_data",
			Root:      ".",
			Excludes:  []string{},
			Stopwords: true,
			K1:        1.2,
			B:         0.75,
		},
		Watch: WatchConfig{
			DebounceMs: 200,
		},
		Bundle: BundleConfig{
			Limit:    32,
			CapBytes: 64 * 1024,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, applying defaults for
// absent keys and environment overrides last. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyEnv(cfg)
	return cfg, nil
}

// LoadFromDir loads configuration from dir, trying godot-mcp.yaml then
// config/default.yaml.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"godot-mcp.yaml", filepath.Join("config", "default.yaml")} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	cfg := DefaultConfig()
	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overrides transport settings from the environment.
func applyEnv(cfg *Config) {
	if host := os.Getenv("GODOT_MCP_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("GODOT_MCP_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = n
		}
	}
	if auto := os.Getenv("GODOT_MCP_AUTO_START_WATCHERS"); auto != "" {
		if v, err := strconv.ParseBool(auto); err == nil {
			cfg.Server.AutoStartWatchers = v
		}
	}
}

// IndexDir resolves the index data directory against root.
func (c *Config) IndexDir(root string) string {
	if filepath.IsAbs(c.Index.Dir) {
		return c.Index.Dir
	}
	return filepath.Join(root, c.Index.Dir)
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
