// Package config resolves rpncalc settings from defaults, an optional YAML
// file and environment variables. Command-line flags are applied on top by
// the cmd package.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the shell and the servers.
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	GRPCPort int    `yaml:"grpc_port"`

	// HistoryDB is a SQLite path. Empty keeps history in memory.
	HistoryDB        string        `yaml:"history_db"`
	HistoryRetention time.Duration `yaml:"history_retention"`
	PruneInterval    time.Duration `yaml:"prune_interval"`

	CacheSize int  `yaml:"cache_size"`
	NoColor   bool `yaml:"no_color"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Host:             "0.0.0.0",
		Port:             8787,
		GRPCPort:         8788,
		HistoryRetention: 24 * time.Hour,
		PruneInterval:    5 * time.Minute,
		CacheSize:        1024,
	}
}

// Load returns the defaults overlaid by the YAML file at path (if non-empty)
// and then by environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("RPNCALC_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := Parse(data, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Parse decodes YAML into cfg, leaving fields absent from data untouched.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("HOST"); v != "" {
		c.Host = v
	}
	if v := getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = p
	}
	if v := getenv("GRPC_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid GRPC_PORT %q: %w", v, err)
		}
		c.GRPCPort = p
	}
	if v := getenv("HISTORY_DB"); v != "" {
		c.HistoryDB = v
	}
	if v := getenv("HISTORY_RETENTION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid HISTORY_RETENTION %q: %w", v, err)
		}
		c.HistoryRetention = d
	}
	if getenv("NO_COLOR") != "" {
		c.NoColor = true
	}
	return nil
}

// Validate checks ranges.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("grpc port %d out of range", c.GRPCPort)
	}
	if c.HistoryRetention < 0 {
		return fmt.Errorf("history retention must not be negative")
	}
	if c.HistoryRetention > 0 && c.PruneInterval <= 0 {
		return fmt.Errorf("prune interval must be positive when retention is set")
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GRPCAddr returns the gRPC listen address.
func (c Config) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.GRPCPort)
}
