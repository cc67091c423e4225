// Package config loads macrostorm settings.
//
// Settings are layered, later layers overriding earlier ones:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← MACROSTORM_*, highest priority
//	├─────────────────────────────┤
//	│  2. Config File             │  ← ~/.config/macrostorm/config.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Command line flags are applied by the caller after Load returns.
//
// # File Format
//
//	[logging]
//	level = "info"
//
//	[expand]
//	preset = "default"          # or "regex"
//	functions = ["sel", "expr"] # overrides the preset order
//
//	[fetch]
//	timeout = "5s"
//	max_bytes = 1048576
//	max_concurrent = 4
//	user_agent = "macrostorm"
//
//	[fetch.cache]
//	enabled = true
//	ttl = "10m"
//
//	[lua]
//	call_limit = 100000
//	timeout = "2s"
//
// Unknown keys are rejected so that typos do not go unnoticed.
package config
