// Package config holds the service configuration, loaded from an optional
// yaml file with environment variable overrides.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// env vars for overriding defaults
const (
	addrVar            = "ROLODEX_SERVER_ADDR"
	readTimeoutVar     = "ROLODEX_SERVER_READ_TIMEOUT"
	shutdownTimeoutVar = "ROLODEX_SERVER_SHUTDOWN_TIMEOUT"
	exactOnlyVar       = "ROLODEX_STORE_EXACT_ONLY"
	cacheSizeVar       = "ROLODEX_CACHE_SIZE"
	logLevelVar        = "ROLODEX_LOG_LEVEL"
)

// Duration wraps time.Duration so durations can be written as strings
// ("60s", "1m30s") in yaml.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", s)
	}

	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type (
	// Config holds the service configuration
	Config struct {
		Server Server `yaml:"server"`
		Store  Store  `yaml:"store"`
		Cache  Cache  `yaml:"cache"`
		Log    Log    `yaml:"log"`
	}

	// Server holds the http server configuration
	Server struct {
		Addr            string   `yaml:"addr"`
		ReadTimeout     Duration `yaml:"read_timeout"`
		ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	}

	// Store holds the contact store configuration
	Store struct {
		// ExactOnly disables the O(n) substring scan in search
		ExactOnly bool `yaml:"exact_only"`
	}

	// Cache holds the search cache configuration
	Cache struct {
		Size int `yaml:"size"`
	}

	// Log holds the logging configuration
	Log struct {
		Level string `yaml:"level"`
	}
)

// Default returns the configuration defaults.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     Duration(60 * time.Second),
			ShutdownTimeout: Duration(5 * time.Second),
		},
		Cache: Cache{
			Size: 128,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, the yaml file at path if path
// is non-empty, and finally any environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(err, "could not read config file %s", path)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "could not parse config file %s", path)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// applyEnv overrides config values from the environment.
func (c *Config) applyEnv() error {
	if addr := os.Getenv(addrVar); addr != "" {
		c.Server.Addr = addr
	}

	if rt := os.Getenv(readTimeoutVar); rt != "" {
		dur, err := time.ParseDuration(rt)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", readTimeoutVar)
		}
		c.Server.ReadTimeout = Duration(dur)
	}

	if st := os.Getenv(shutdownTimeoutVar); st != "" {
		dur, err := time.ParseDuration(st)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", shutdownTimeoutVar)
		}
		c.Server.ShutdownTimeout = Duration(dur)
	}

	if eo := os.Getenv(exactOnlyVar); eo != "" {
		v, err := strconv.ParseBool(eo)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", exactOnlyVar)
		}
		c.Store.ExactOnly = v
	}

	if cs := os.Getenv(cacheSizeVar); cs != "" {
		n, err := strconv.Atoi(cs)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", cacheSizeVar)
		}
		c.Cache.Size = n
	}

	if lv := os.Getenv(logLevelVar); lv != "" {
		c.Log.Level = lv
	}

	return nil
}
