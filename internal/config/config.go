// Package config loads deskdriver.yaml. Every knob has a default, so a
// missing file configures a working install.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/deskdriver/deskdriver/internal/logging"
	"github.com/deskdriver/deskdriver/internal/platform"
)

// DefaultPath is where Load looks when no --config flag is given.
const DefaultPath = "deskdriver.yaml"

// Config is the full file shape.
type Config struct {
	Serve   Serve          `yaml:"serve"`
	Logging logging.Config `yaml:"logging"`
	Capture Capture        `yaml:"capture"`
}

// Serve configures the MCP server.
type Serve struct {
	// Transport is stdio or streamable-http.
	Transport string `yaml:"transport"`
	// Port serves the streamable-http transport.
	Port int `yaml:"port"`
	// CacheTTLMs bounds how long tree reads are served from cache.
	// Zero disables caching.
	CacheTTLMs int `yaml:"cache_ttl_ms"`
}

// CacheTTL returns the cache lifetime as a duration.
func (s Serve) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLMs) * time.Millisecond
}

// Capture sets the default tree capture knobs, overridable per command.
type Capture struct {
	// Mode is fast, complete, or smart.
	Mode string `yaml:"mode"`
	// PerOpTimeoutMs bounds each native property read.
	PerOpTimeoutMs int `yaml:"per_op_timeout_ms"`
	// MaxDepth bounds traversal depth. Absent means unlimited; zero
	// captures only the root.
	MaxDepth *int `yaml:"max_depth"`
	// IncludeAllBounds attaches bounds to every node.
	IncludeAllBounds bool `yaml:"include_all_bounds"`
	// SettleDelayMs sleeps once before capture starts.
	SettleDelayMs int `yaml:"settle_delay_ms"`
}

// TreeConfig converts the capture section to a build config.
func (c Capture) TreeConfig() (platform.TreeBuildConfig, error) {
	cfg := platform.DefaultTreeBuildConfig()
	mode, err := platform.ParsePropertyMode(c.Mode)
	if err != nil {
		return cfg, err
	}
	cfg.Mode = mode
	if c.PerOpTimeoutMs > 0 {
		cfg.PerOpTimeout = time.Duration(c.PerOpTimeoutMs) * time.Millisecond
	}
	cfg.MaxDepth = c.MaxDepth
	cfg.IncludeAllBounds = c.IncludeAllBounds
	if c.SettleDelayMs > 0 {
		cfg.SettleDelay = time.Duration(c.SettleDelayMs) * time.Millisecond
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Serve: Serve{
			Transport:  "stdio",
			Port:       8080,
			CacheTTLMs: 500,
		},
	}
}

// Load reads the config file at path, or DefaultPath when path is empty.
// A missing file yields the defaults; a malformed file is an error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
