// Package config holds the scraper and kiosk configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every knob for a scrape run and the kiosk display.
type Config struct {
	// Crawl.
	BaseURL       string        `yaml:"base_url"`
	MaxProjects   int           `yaml:"max_projects"` // 0 means unlimited; used for low-volume dev runs
	PageDelay     time.Duration `yaml:"page_delay"`
	RequestDelay  time.Duration `yaml:"request_delay"`
	Timeout       time.Duration `yaml:"timeout"`
	ChallengeWait time.Duration `yaml:"challenge_wait"`
	UserAgent     string        `yaml:"user_agent"`

	// Output.
	DatasetFile string `yaml:"dataset_file"`
	QRDir       string `yaml:"qr_dir"`

	// Tag filtering.
	FilterEnabled bool     `yaml:"filter_enabled"`
	FilterMode    string   `yaml:"filter_mode"` // any or all
	RequiredTags  []string `yaml:"required_tags"`
	ExcludedTags  []string `yaml:"excluded_tags"`

	// Kiosk.
	DatasetSource string        `yaml:"dataset_source"` // file path or http(s) URL
	CycleInterval time.Duration `yaml:"cycle_interval"`
	WindowSize    int           `yaml:"window_size"`

	// Operations.
	MetricsAddr string `yaml:"metrics_addr"`
	Verbose     bool   `yaml:"verbose"`
}

// DefaultConfig returns the defensive defaults. CI runs get longer delays
// than local ones to stay under the source site's anti-bot thresholds.
func DefaultConfig() *Config {
	cfg := &Config{
		BaseURL:       "https://fair.example.edu/projects/",
		MaxProjects:   0,
		PageDelay:     2 * time.Second,
		RequestDelay:  1500 * time.Millisecond,
		Timeout:       30 * time.Second,
		ChallengeWait: 10 * time.Second,
		UserAgent:     "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		DatasetFile:   "output/projects.json",
		QRDir:         "output/qr",
		FilterEnabled: false,
		FilterMode:    "any",
		DatasetSource: "output/projects.json",
		CycleInterval: 12 * time.Second,
		WindowSize:    9,
	}
	if IsCI() {
		cfg.PageDelay = 5 * time.Second
		cfg.RequestDelay = 3 * time.Second
	}
	return cfg
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.MaxProjects < 0 {
		return fmt.Errorf("max projects cannot be negative")
	}
	if c.PageDelay < 0 {
		return fmt.Errorf("page delay cannot be negative")
	}
	if c.RequestDelay < 0 {
		return fmt.Errorf("request delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.ChallengeWait < 0 {
		return fmt.Errorf("challenge wait cannot be negative")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.DatasetFile == "" {
		return fmt.Errorf("dataset file cannot be empty")
	}
	if c.FilterMode != "any" && c.FilterMode != "all" {
		return fmt.Errorf("filter mode must be any or all")
	}
	if c.FilterEnabled && len(c.RequiredTags) == 0 {
		return fmt.Errorf("filter enabled but no required tags configured")
	}
	if c.CycleInterval <= 0 {
		return fmt.Errorf("cycle interval must be positive")
	}
	if c.WindowSize <= 0 {
		return fmt.Errorf("window size must be positive")
	}

	return nil
}

// IsCI reports whether the process runs under a CI scheduler.
func IsCI() bool {
	return os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != ""
}

// EnvString returns an environment override when set and non-empty.
func EnvString(key string) (string, bool) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses an integer environment override.
func EnvInt(key string) (int, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, true, nil
}

// EnvBool parses a boolean environment override.
func EnvBool(key string) (bool, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return false, false, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, true, nil
}

// EnvList splits a comma-separated environment override.
func EnvList(key string) ([]string, bool) {
	value, ok := EnvString(key)
	if !ok {
		return nil, false
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out, len(out) > 0
}
