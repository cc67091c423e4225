// Package funcs provides the built-in macro functions and the presets that
// order them.
//
// Every constructor returns a fresh instance. Functions that read a capability
// (selection, buffer, clock) do so at most once per instance, so build a new
// list for every expansion call with All, Evaluated, Regex or Build.
package funcs

import (
	"time"

	"github.com/dshills/macrostorm/internal/host"
	"github.com/dshills/macrostorm/internal/logging"
)

// DefaultMaxConcurrentFetches bounds parallel @getUrl fetches within one pass.
const DefaultMaxConcurrentFetches = 4

// Env bundles the capabilities the built-in functions draw on.
type Env struct {
	// Editor supplies @sel() and @text(). Nil makes those functions fail
	// with host.ErrNoEditor.
	Editor host.Editor

	// Selection, when set, is used for @sel() instead of querying Editor.
	Selection *string

	// Fetcher performs @getUrl() requests.
	Fetcher host.Fetcher

	// Now is the clock for @timestamp(). Defaults to time.Now.
	Now func() time.Time

	// MaxConcurrentFetches bounds parallel fetches in one @getUrl pass.
	MaxConcurrentFetches int

	// Logger receives fetch failures and other diagnostics.
	Logger *logging.Logger
}

func (env Env) now() func() time.Time {
	if env.Now != nil {
		return env.Now
	}
	return time.Now
}

func (env Env) logger() *logging.Logger {
	if env.Logger != nil {
		return env.Logger
	}
	return logging.Null()
}

func (env Env) fetchLimit() int {
	if env.MaxConcurrentFetches > 0 {
		return env.MaxConcurrentFetches
	}
	return DefaultMaxConcurrentFetches
}

// memo caches the first result of a lookup. Not safe for concurrent use; the
// engine evaluates matches sequentially.
type memo[T any] struct {
	done bool
	val  T
	err  error
}

func (m *memo[T]) get(fn func() (T, error)) (T, error) {
	if !m.done {
		m.val, m.err = fn()
		m.done = true
	}
	return m.val, m.err
}
