package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/macrostorm/internal/logging"
)

// AppName names the config and cache directories.
const AppName = "macrostorm"

// Presets accepted by expand.preset.
const (
	PresetDefault = "default"
	PresetRegex   = "regex"
)

// Config holds all macrostorm settings.
type Config struct {
	Logging LoggingConfig `toml:"logging"`
	Expand  ExpandConfig  `toml:"expand"`
	Fetch   FetchConfig   `toml:"fetch"`
	Lua     LuaConfig     `toml:"lua"`
}

// LoggingConfig controls diagnostic output.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// ExpandConfig selects the macro functions and their order.
type ExpandConfig struct {
	// Preset is "default" or "regex".
	Preset string `toml:"preset"`
	// Functions, when non-empty, replaces the preset with an explicit order.
	Functions []string `toml:"functions"`
}

// FetchConfig controls @getUrl().
type FetchConfig struct {
	Timeout       Duration    `toml:"timeout"`
	MaxBytes      int64       `toml:"max_bytes"`
	MaxConcurrent int         `toml:"max_concurrent"`
	UserAgent     string      `toml:"user_agent"`
	Cache         CacheConfig `toml:"cache"`
}

// CacheConfig controls the on-disk response cache.
type CacheConfig struct {
	Enabled bool `toml:"enabled"`
	// Dir defaults to the user cache directory.
	Dir string `toml:"dir"`
	// TTL of zero keeps entries until the cache is cleared.
	TTL Duration `toml:"ttl"`
}

// LuaConfig bounds script execution.
type LuaConfig struct {
	// CallLimit bounds calls from a script into the ks.macro API. Zero
	// disables the limit.
	CallLimit int64    `toml:"call_limit"`
	Timeout   Duration `toml:"timeout"`
}

// Duration is a time.Duration written as a string such as "5s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "warn"},
		Expand:  ExpandConfig{Preset: PresetDefault},
		Fetch: FetchConfig{
			Timeout:       Duration{5 * time.Second},
			MaxBytes:      1 << 20,
			MaxConcurrent: 4,
			UserAgent:     AppName,
			Cache: CacheConfig{
				Enabled: false,
				TTL:     Duration{10 * time.Minute},
			},
		},
		Lua: LuaConfig{
			CallLimit: 100_000,
			Timeout:   Duration{2 * time.Second},
		},
	}
}

// DefaultPath returns the user config file path, or "" when the user
// config directory cannot be determined.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, AppName, "config.toml")
}

// Load builds the effective configuration: defaults, then the file at path,
// then MACROSTORM_* environment variables. An empty path means DefaultPath,
// which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		err := cfg.LoadFile(path)
		switch {
		case errors.Is(err, ErrFileNotFound) && !explicit:
		case err != nil:
			return nil, err
		}
	}

	if err := NewEnvLoader(EnvPrefix).Apply(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the TOML file at path onto c. Keys absent from the file
// keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("reading config: %w", err)
	}

	err = toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(c)
	if err == nil {
		return nil
	}

	var strict *toml.StrictMissingError
	if errors.As(err, &strict) {
		keys := make([]string, len(strict.Errors))
		for i, e := range strict.Errors {
			keys[i] = strings.Join(e.Key(), ".")
		}
		sort.Strings(keys)
		return fmt.Errorf("%w in %s: %s", ErrUnknownKey, path, strings.Join(keys, ", "))
	}

	perr := &ParseError{Path: path, Message: err.Error(), Err: err}
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		perr.Line, _ = derr.Position()
	}
	return perr
}

// Encode writes c as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks every setting and reports all failures at once.
func (c *Config) Validate() error {
	var errs ValidationErrors
	fail := func(path, msg string, v any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: v})
	}

	if _, ok := logging.ParseLevel(c.Logging.Level); !ok {
		fail("logging.level", "must be debug, info, warn or error", c.Logging.Level)
	}
	if c.Expand.Preset != PresetDefault && c.Expand.Preset != PresetRegex {
		fail("expand.preset", `must be "default" or "regex"`, c.Expand.Preset)
	}
	if c.Fetch.Timeout.Duration <= 0 {
		fail("fetch.timeout", "must be positive", c.Fetch.Timeout)
	}
	if c.Fetch.MaxBytes <= 0 {
		fail("fetch.max_bytes", "must be positive", c.Fetch.MaxBytes)
	}
	if c.Fetch.MaxConcurrent < 1 {
		fail("fetch.max_concurrent", "must be at least 1", c.Fetch.MaxConcurrent)
	}
	if c.Fetch.Cache.TTL.Duration < 0 {
		fail("fetch.cache.ttl", "must not be negative", c.Fetch.Cache.TTL)
	}
	if c.Lua.CallLimit < 0 {
		fail("lua.call_limit", "must not be negative", c.Lua.CallLimit)
	}
	if c.Lua.Timeout.Duration < 0 {
		fail("lua.timeout", "must not be negative", c.Lua.Timeout)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// LogLevel returns the parsed logging level, falling back to warn.
func (c *Config) LogLevel() logging.Level {
	if lvl, ok := logging.ParseLevel(c.Logging.Level); ok {
		return lvl
	}
	return logging.LevelWarn
}
