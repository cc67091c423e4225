package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/macrostorm/internal/logging"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.Fetch.Timeout.Duration != 5*time.Second {
		t.Errorf("Fetch.Timeout = %v, want 5s", cfg.Fetch.Timeout)
	}
	if cfg.LogLevel() != logging.LevelWarn {
		t.Errorf("LogLevel() = %v, want WARN", cfg.LogLevel())
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[logging]
level = "debug"

[expand]
functions = ["expr", "upper"]

[fetch]
timeout = "750ms"
max_concurrent = 2

[fetch.cache]
enabled = true
ttl = "1h"
`)
	cfg := Default()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if len(cfg.Expand.Functions) != 2 || cfg.Expand.Functions[0] != "expr" {
		t.Errorf("Expand.Functions = %v, want [expr upper]", cfg.Expand.Functions)
	}
	if cfg.Fetch.Timeout.Duration != 750*time.Millisecond {
		t.Errorf("Fetch.Timeout = %v, want 750ms", cfg.Fetch.Timeout)
	}
	if cfg.Fetch.MaxConcurrent != 2 {
		t.Errorf("Fetch.MaxConcurrent = %d, want 2", cfg.Fetch.MaxConcurrent)
	}
	if !cfg.Fetch.Cache.Enabled || cfg.Fetch.Cache.TTL.Duration != time.Hour {
		t.Errorf("Fetch.Cache = %+v, want enabled with 1h ttl", cfg.Fetch.Cache)
	}
	// Untouched keys keep their defaults.
	if cfg.Fetch.MaxBytes != 1<<20 {
		t.Errorf("Fetch.MaxBytes = %d, want default", cfg.Fetch.MaxBytes)
	}
	if cfg.Expand.Preset != PresetDefault {
		t.Errorf("Expand.Preset = %q, want default", cfg.Expand.Preset)
	}
}

func TestLoadFile_UnknownKey(t *testing.T) {
	path := writeConfig(t, `
[fetch]
timout = "1s"
`)
	err := Default().LoadFile(path)
	if !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("LoadFile() error = %v, want ErrUnknownKey", err)
	}
}

func TestLoadFile_ParseError(t *testing.T) {
	path := writeConfig(t, "[fetch\ntimeout = 1s\n")
	err := Default().LoadFile(path)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("LoadFile() error = %v, want *ParseError", err)
	}
	if perr.Path != path {
		t.Errorf("ParseError.Path = %q, want %q", perr.Path, path)
	}
	if perr.Line != 1 {
		t.Errorf("ParseError.Line = %d, want 1", perr.Line)
	}
}

func TestLoadFile_UnknownKeysListed(t *testing.T) {
	path := writeConfig(t, `
[fetch]
timout = "1s"

[fetch.cache]
enable = true
`)
	err := Default().LoadFile(path)
	if !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("LoadFile() error = %v, want ErrUnknownKey", err)
	}
	for _, key := range []string{"fetch.timout", "fetch.cache.enable"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("LoadFile() error = %v, want it to name %s", err, key)
		}
	}
}

func TestEncode(t *testing.T) {
	cfg := Default()
	cfg.Expand.Functions = []string{"expr", "upper"}
	cfg.Fetch.Timeout = Duration{1500 * time.Millisecond}

	var buf bytes.Buffer
	if err := cfg.Encode(&buf); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	for _, want := range []string{"[fetch.cache]", "1.5s", "call_limit = 100000"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("Encode() output missing %q:\n%s", want, buf.String())
		}
	}

	// The encoded form loads back under strict decoding.
	path := writeConfig(t, buf.String())
	loaded := &Config{}
	if err := loaded.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if loaded.Fetch.Timeout.Duration != 1500*time.Millisecond {
		t.Errorf("Fetch.Timeout = %v, want 1.5s", loaded.Fetch.Timeout)
	}
	if strings.Join(loaded.Expand.Functions, ",") != "expr,upper" {
		t.Errorf("Expand.Functions = %v", loaded.Expand.Functions)
	}
}

func TestLoadFile_BadDuration(t *testing.T) {
	path := writeConfig(t, `
[lua]
timeout = "soon"
`)
	if err := Default().LoadFile(path); err == nil {
		t.Fatal("LoadFile() expected error for bad duration")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("Load() error = %v, want ErrFileNotFound", err)
	}
}

func TestLoad_DefaultPathOptional(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Expand.Preset != PresetDefault {
		t.Errorf("Expand.Preset = %q, want default", cfg.Expand.Preset)
	}
}

func TestLoad_DefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if err := os.MkdirAll(filepath.Join(dir, AppName), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	content := "[expand]\npreset = \"regex\"\n"
	if err := os.WriteFile(filepath.Join(dir, AppName, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Expand.Preset != PresetRegex {
		t.Errorf("Expand.Preset = %q, want regex", cfg.Expand.Preset)
	}
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, `
[logging]
level = "info"

[fetch]
user_agent = "from-file"
max_bytes = 2048
`)
	t.Setenv("MACROSTORM_LOGGING_LEVEL", "error")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, want env value", cfg.Logging.Level)
	}
	if cfg.Fetch.UserAgent != "from-file" {
		t.Errorf("Fetch.UserAgent = %q, want file value", cfg.Fetch.UserAgent)
	}
	if cfg.Fetch.MaxBytes != 2048 {
		t.Errorf("Fetch.MaxBytes = %d, want 2048", cfg.Fetch.MaxBytes)
	}
	if cfg.Fetch.MaxConcurrent != 4 {
		t.Errorf("Fetch.MaxConcurrent = %d, want default 4", cfg.Fetch.MaxConcurrent)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "loud"
	cfg.Expand.Preset = "fancy"
	cfg.Fetch.MaxConcurrent = 0
	cfg.Fetch.Timeout = Duration{}

	err := cfg.Validate()
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("Validate() error = %v, want ErrValidationFailed", err)
	}
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("Validate() error type = %T, want ValidationErrors", err)
	}
	if len(verrs) != 4 {
		t.Errorf("got %d validation errors, want 4: %v", len(verrs), err)
	}
}

func TestDuration_Text(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("90s")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	text, err := d.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error = %v", err)
	}
	if string(text) != "1m30s" {
		t.Errorf("MarshalText() = %q, want 1m30s", text)
	}
}
