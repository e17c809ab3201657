// Package config handles comsum configuration from YAML files. Every
// numeric threshold in the engine (timeouts, batch sizes, caps) is named
// configuration with a documented default, never a hardcoded constant —
// the host page changes these expectations between revisions.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level comsum configuration.
type Config struct {
	Browser   BrowserConfig   `yaml:"browser"`
	Collect   CollectConfig   `yaml:"collect"`
	Expand    ExpandConfig    `yaml:"expand"`
	Load      LoadConfig      `yaml:"load"`
	Nav       NavConfig       `yaml:"nav"`
	Summarize SummarizeConfig `yaml:"summarize"`
	Settings  SettingsConfig  `yaml:"settings"`
	API       APIConfig       `yaml:"api"`
}

// BrowserConfig controls the Chrome tab lifecycle.
type BrowserConfig struct {
	// Remote is a devtools websocket URL; empty launches a local browser.
	Remote string `yaml:"remote"`
	// Headless toggles the launch mode. Default: true.
	Headless *bool `yaml:"headless"`
	// NavTimeout bounds initial page navigation. Default: 30s.
	NavTimeout time.Duration `yaml:"nav_timeout"`
}

// CollectConfig tunes the comment locator.
type CollectConfig struct {
	// ContainerSelectors locate the comments root, tried in order.
	ContainerSelectors []string `yaml:"container_selectors"`
	// CommentSelectors locate comment nodes, tried in order; the first
	// that matches anything wins exclusively.
	CommentSelectors []string `yaml:"comment_selectors"`
	// QuickMax caps quick collection. Default: 100.
	QuickMax int `yaml:"quick_max"`
	// DeepMax caps deep collection. Default: 150.
	DeepMax int `yaml:"deep_max"`
	// MinLength rejects shorter comments (runes). Default: 5.
	MinLength int `yaml:"min_length"`
	// MaxLength is the per-comment sanitizer cap (runes). Default: 1000.
	MaxLength int `yaml:"max_length"`
	// CacheTTL bounds the container lookup cache. Default: 5s.
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// ExpandConfig tunes the reply expander.
type ExpandConfig struct {
	BatchSize   int           `yaml:"batch_size"`
	ClickDelay  time.Duration `yaml:"click_delay"`
	BatchDelay  time.Duration `yaml:"batch_delay"`
	SettleDelay time.Duration `yaml:"settle_delay"`
	MaxControls int           `yaml:"max_controls"`
	Keywords    []string      `yaml:"keywords"`
}

// LoadConfig tunes deep collection.
type LoadConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	ScrollStep  float64       `yaml:"scroll_step"`
	SettleDelay time.Duration `yaml:"settle_delay"`
}

// NavConfig tunes the navigation monitor.
type NavConfig struct {
	Throttle          time.Duration `yaml:"throttle"`
	ReinitDelay       time.Duration `yaml:"reinit_delay"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	PollTimeout       time.Duration `yaml:"poll_timeout"`
	MaxReinitFailures int           `yaml:"max_reinit_failures"`
}

// SummarizeConfig selects the AI provider.
type SummarizeConfig struct {
	// Provider is claude, openai or gemini. Default: claude.
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	// APIKey may instead come from the settings store or the provider's
	// conventional environment variable.
	APIKey string `yaml:"api_key"`
	// QuickTimeout bounds a quick summarize call. Default: 60s.
	QuickTimeout time.Duration `yaml:"quick_timeout"`
	// DeepTimeout bounds a deep summarize call. Default: 90s.
	DeepTimeout time.Duration `yaml:"deep_timeout"`
	// MaxInputChars bounds the assembled prompt. Default: 24000.
	MaxInputChars int `yaml:"max_input_chars"`
}

// SettingsConfig locates the settings store.
type SettingsConfig struct {
	// Path is the SQLite file. Default: comsum.db.
	Path string `yaml:"path"`
	// Timeout bounds each settings call. Default: 2s.
	Timeout time.Duration `yaml:"timeout"`
}

// APIConfig controls the HTTP control surface.
type APIConfig struct {
	// Addr is the listen address; empty disables the server.
	Addr string `yaml:"addr"`
}

// LoadFile reads a YAML configuration file and applies defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	cfg.ApplyDefaults()
	return &cfg
}

// ApplyDefaults fills unset fields with their documented defaults.
func (c *Config) ApplyDefaults() {
	if c.Browser.Headless == nil {
		headless := true
		c.Browser.Headless = &headless
	}
	if c.Browser.NavTimeout <= 0 {
		c.Browser.NavTimeout = 30 * time.Second
	}

	if c.Collect.QuickMax <= 0 {
		c.Collect.QuickMax = 100
	}
	if c.Collect.DeepMax <= 0 {
		c.Collect.DeepMax = 150
	}
	if c.Collect.MinLength <= 0 {
		c.Collect.MinLength = 5
	}
	if c.Collect.MaxLength <= 0 {
		c.Collect.MaxLength = 1000
	}
	if c.Collect.CacheTTL <= 0 {
		c.Collect.CacheTTL = 5 * time.Second
	}

	if c.Expand.BatchSize <= 0 {
		c.Expand.BatchSize = 3
	}
	if c.Expand.ClickDelay <= 0 {
		c.Expand.ClickDelay = 100 * time.Millisecond
	}
	if c.Expand.BatchDelay <= 0 {
		c.Expand.BatchDelay = 200 * time.Millisecond
	}
	if c.Expand.SettleDelay <= 0 {
		c.Expand.SettleDelay = time.Second
	}
	if c.Expand.MaxControls <= 0 {
		c.Expand.MaxControls = 30
	}

	if c.Load.MaxAttempts <= 0 {
		c.Load.MaxAttempts = 4
	}
	if c.Load.ScrollStep <= 0 {
		c.Load.ScrollStep = 600
	}
	if c.Load.SettleDelay <= 0 {
		c.Load.SettleDelay = 800 * time.Millisecond
	}

	if c.Nav.Throttle <= 0 {
		c.Nav.Throttle = 100 * time.Millisecond
	}
	if c.Nav.ReinitDelay <= 0 {
		c.Nav.ReinitDelay = time.Second
	}
	if c.Nav.PollInterval <= 0 {
		c.Nav.PollInterval = 500 * time.Millisecond
	}
	if c.Nav.PollTimeout <= 0 {
		c.Nav.PollTimeout = 10 * time.Second
	}
	if c.Nav.MaxReinitFailures <= 0 {
		c.Nav.MaxReinitFailures = 5
	}

	if c.Summarize.Provider == "" {
		c.Summarize.Provider = "claude"
	}
	if c.Summarize.QuickTimeout <= 0 {
		c.Summarize.QuickTimeout = 60 * time.Second
	}
	if c.Summarize.DeepTimeout <= 0 {
		c.Summarize.DeepTimeout = 90 * time.Second
	}
	if c.Summarize.MaxInputChars <= 0 {
		c.Summarize.MaxInputChars = 24000
	}

	if c.Settings.Path == "" {
		c.Settings.Path = "comsum.db"
	}
	if c.Settings.Timeout <= 0 {
		c.Settings.Timeout = 2 * time.Second
	}
}
