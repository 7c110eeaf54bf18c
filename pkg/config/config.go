// Package config loads the optional csodata settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-csodata/pkg/cache"
	"github.com/robert-malhotra/go-csodata/pkg/client"
)

// DefaultPath is read when no path is given.
const DefaultPath = "~/.csodata.yaml"

// Config holds client and output settings.
type Config struct {
	// BaseURL is the PxStat cube API root.
	BaseURL string `yaml:"base_url"`
	// Timeout bounds each HTTP request.
	Timeout time.Duration `yaml:"timeout"`
	// Retries is the number of attempts per request, including the first.
	Retries int `yaml:"retries"`
	// Cache enables the response cache.
	Cache bool `yaml:"cache"`
	// CacheTTL is how long a response stays cached.
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// CacheSize is the maximum number of cached responses.
	CacheSize int64 `yaml:"cache_size"`
	// Sanitise normalises labels in catalogue and dataset output.
	Sanitise bool `yaml:"sanitise"`
	// LogLevel is a logrus level name.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BaseURL:   client.DefaultBaseURL,
		Timeout:   client.DefaultTimeout,
		Retries:   client.DefaultMaxAttempts,
		Cache:     true,
		CacheTTL:  cache.DefaultTTL,
		CacheSize: cache.DefaultMaxEntries,
		LogLevel:  "warn",
	}
}

// Load reads the YAML file at path (DefaultPath when empty, "~" expanded)
// over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}

	data, err := os.ReadFile(expanded)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", expanded, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", expanded, err)
	}
	return cfg, nil
}

// Validate rejects settings the client cannot use.
func (c Config) Validate() error {
	switch {
	case c.Timeout < 0:
		return errors.New("timeout must not be negative")
	case c.Retries < 1:
		return errors.New("retries must be at least 1")
	case c.CacheTTL < 0:
		return errors.New("cache_ttl must not be negative")
	case c.CacheSize < 1:
		return errors.New("cache_size must be at least 1")
	}
	return nil
}

// CacheOptions converts the cache settings.
func (c Config) CacheOptions() cache.Options {
	return cache.Options{MaxEntries: c.CacheSize, TTL: c.CacheTTL}
}
