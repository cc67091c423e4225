package expand

import (
	"context"
	"regexp"
)

// Function is a macro function: a pattern locating its tokens and a rule
// producing the replacement for each located token.
type Function interface {
	// Name returns the registry name of the function (e.g. "sel", "expr").
	Name() string

	// Pattern returns the compiled pattern for the function's token.
	Pattern() *regexp.Regexp

	// Evaluate returns the replacement for one match. It depends only on the
	// captured groups and the function's own capabilities, never on the
	// surrounding text.
	Evaluate(ctx context.Context, m Match) (string, error)
}

// Preparer is implemented by functions that want to see all matches of a pass
// before any of them is evaluated, for example to start remote work early.
type Preparer interface {
	Prepare(ctx context.Context, matches []Match)
}

// Match is a single located token in the text of the current pass.
type Match struct {
	// Start and End are byte offsets of the token in the pass input.
	Start int
	End   int

	// Groups holds the whole token at index 0 followed by the capture groups.
	// Groups that did not participate are empty.
	Groups []string
}

// Token returns the whole matched token.
func (m Match) Token() string {
	if len(m.Groups) == 0 {
		return ""
	}
	return m.Groups[0]
}

// Group returns capture group i, or "" when it does not exist.
func (m Match) Group(i int) string {
	if i < 0 || i >= len(m.Groups) {
		return ""
	}
	return m.Groups[i]
}

// FuncOf adapts a pattern and a plain function into a Function.
// It is mainly useful for tests and one-off callers.
func FuncOf(name string, pattern *regexp.Regexp, fn func(ctx context.Context, m Match) (string, error)) Function {
	return &simpleFunc{name: name, pattern: pattern, fn: fn}
}

type simpleFunc struct {
	name    string
	pattern *regexp.Regexp
	fn      func(ctx context.Context, m Match) (string, error)
}

func (f *simpleFunc) Name() string            { return f.name }
func (f *simpleFunc) Pattern() *regexp.Regexp { return f.pattern }

func (f *simpleFunc) Evaluate(ctx context.Context, m Match) (string, error) {
	return f.fn(ctx, m)
}
