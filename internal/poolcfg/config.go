// Package poolcfg loads the demo benchmark CLI's configuration from a TOML
// file, the way go-i2p-wireguard's core.Config loads an i2plan node's
// settings: a DefaultConfig, a LoadConfig that falls back to defaults when
// the file is absent, and a Validate pass.
package poolcfg

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds everything cmd/poolbench needs to stand up a pool.
type Config struct {
	Pool PoolConfig `toml:"pool"`
	Log  LogConfig  `toml:"log"`
}

// PoolConfig describes the pool topology the benchmark drives.
type PoolConfig struct {
	// Addresses are the keys the benchmark acquires connections for,
	// round-robin.
	Addresses []string `toml:"addresses"`
	// MaxConnections bounds in-flight connections across all addresses
	// (one ceiling for the whole pool) when > 0. Zero
	// means unbounded: run the bare SimplePool without a BoundedPool wrapper.
	MaxConnections int `toml:"max_connections"`
	// ConnectLatency simulates factory dial cost.
	ConnectLatency time.Duration `toml:"connect_latency"`
	// Workers is the number of concurrent acquirers to run.
	Workers int `toml:"workers"`
	// Rounds is how many acquire/release cycles each worker performs.
	Rounds int `toml:"rounds"`
}

// LogConfig controls the demo's logrus output.
type LogConfig struct {
	// Level is a logrus level name: "debug", "info", "warn", "error".
	Level string `toml:"level"`
}

// DefaultConfig returns a Config with sensible defaults for a local run.
func DefaultConfig() *Config {
	return &Config{
		Pool: PoolConfig{
			Addresses:      []string{"10.0.0.1:80", "10.0.0.2:80"},
			MaxConnections: 4,
			ConnectLatency: 5 * time.Millisecond,
			Workers:        8,
			Rounds:         20,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadConfig reads configuration from a TOML file. If path does not exist,
// it returns the default configuration unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for obvious mistakes before the demo
// wires up a pool around it.
func (c *Config) Validate() error {
	if len(c.Pool.Addresses) == 0 {
		return errors.New("pool.addresses must list at least one address")
	}
	if c.Pool.MaxConnections < 0 {
		return errors.New("pool.max_connections must not be negative")
	}
	if c.Pool.Workers < 1 {
		return errors.New("pool.workers must be at least 1")
	}
	if c.Pool.Rounds < 1 {
		return errors.New("pool.rounds must be at least 1")
	}
	return nil
}
