package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"fortio.org/safecast"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "MACROSTORM_"

// EnvLoader overlays settings from environment variables.
type EnvLoader struct {
	prefix string
	lookup func(string) (string, bool)
}

// NewEnvLoader creates a loader reading variables that start with prefix
// from the process environment.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{prefix: prefix, lookup: os.LookupEnv}
}

// NewEnvLoaderWithLookup creates a loader that reads variables through lookup.
func NewEnvLoaderWithLookup(prefix string, lookup func(string) (string, bool)) *EnvLoader {
	return &EnvLoader{prefix: prefix, lookup: lookup}
}

// envSetting binds one config path to its setter. The variable name is the
// prefix followed by the path upper-cased with dots turned into underscores.
type envSetting struct {
	path string
	set  func(c *Config, v string) error
}

var envSettings = []envSetting{
	{"logging.level", func(c *Config, v string) error { c.Logging.Level = v; return nil }},
	{"expand.preset", func(c *Config, v string) error { c.Expand.Preset = v; return nil }},
	{"expand.functions", func(c *Config, v string) error { c.Expand.Functions = splitList(v); return nil }},
	{"fetch.timeout", durationSetter(func(c *Config) *Duration { return &c.Fetch.Timeout })},
	{"fetch.max_bytes", func(c *Config, v string) error { return parseInt(v, &c.Fetch.MaxBytes) }},
	{"fetch.max_concurrent", func(c *Config, v string) error {
		var n int64
		if err := parseInt(v, &n); err != nil {
			return err
		}
		m, err := safecast.Conv[int](n)
		if err != nil {
			return err
		}
		c.Fetch.MaxConcurrent = m
		return nil
	}},
	{"fetch.user_agent", func(c *Config, v string) error { c.Fetch.UserAgent = v; return nil }},
	{"fetch.cache.enabled", func(c *Config, v string) error { return parseBool(v, &c.Fetch.Cache.Enabled) }},
	{"fetch.cache.dir", func(c *Config, v string) error { c.Fetch.Cache.Dir = v; return nil }},
	{"fetch.cache.ttl", durationSetter(func(c *Config) *Duration { return &c.Fetch.Cache.TTL })},
	{"lua.call_limit", func(c *Config, v string) error { return parseInt(v, &c.Lua.CallLimit) }},
	{"lua.timeout", durationSetter(func(c *Config) *Duration { return &c.Lua.Timeout })},
}

// EnvName returns the variable that overrides path, e.g. fetch.max_bytes
// becomes MACROSTORM_FETCH_MAX_BYTES.
func (l *EnvLoader) EnvName(path string) string {
	return l.prefix + strings.ToUpper(strings.ReplaceAll(path, ".", "_"))
}

// Apply overlays every set variable onto c.
// Note: Empty values are treated as set, not as unset.
func (l *EnvLoader) Apply(c *Config) error {
	for _, s := range envSettings {
		name := l.EnvName(s.path)
		val, ok := l.lookup(name)
		if !ok {
			continue
		}
		if err := s.set(c, strings.TrimSpace(val)); err != nil {
			return &ValidationError{Path: s.path, Message: fmt.Sprintf("invalid %s: %v", name, err), Value: val}
		}
	}
	return nil
}

// Paths lists every setting that can be overridden from the environment.
func Paths() []string {
	paths := make([]string, len(envSettings))
	for i, s := range envSettings {
		paths[i] = s.path
	}
	return paths
}

func durationSetter(field func(*Config) *Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		field(c).Duration = d
		return nil
	}
}

func parseInt(s string, dst *int64) error {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

// parseBool accepts the spellings strconv.ParseBool does plus yes/no and on/off.
func parseBool(s string, dst *bool) error {
	switch strings.ToLower(s) {
	case "yes", "on":
		*dst = true
		return nil
	case "no", "off":
		*dst = false
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

// splitList splits a comma separated list, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
