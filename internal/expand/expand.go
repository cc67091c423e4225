package expand

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/macrostorm/internal/logging"
)

// Expander applies functions to text and keeps a report of the last call.
// An Expander is not safe for concurrent use; create one per goroutine.
type Expander struct {
	logger *logging.Logger
	report Report
}

// Option configures an Expander.
type Option func(*Expander)

// WithLogger sets the logger used for per-pass debug output.
func WithLogger(l *logging.Logger) Option {
	return func(e *Expander) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Expander.
func New(opts ...Option) *Expander {
	e := &Expander{logger: logging.Null()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand rewrites text by applying fns in order using a throwaway Expander.
func Expand(ctx context.Context, text string, fns ...Function) (string, error) {
	return New().Expand(ctx, text, fns...)
}

// Expand rewrites text by applying fns in order, one full pass per function.
// On error the partially expanded text is discarded.
func (e *Expander) Expand(ctx context.Context, text string, fns ...Function) (string, error) {
	e.report = Report{Passes: make([]PassReport, 0, len(fns))}
	start := time.Now()
	defer func() { e.report.Total = time.Since(start) }()

	for _, fn := range fns {
		if fn == nil {
			return "", ErrNilFunction
		}
		out, err := e.pass(ctx, text, fn)
		if err != nil {
			return "", err
		}
		text = out
	}
	return text, nil
}

// Report returns timing and match counts for the most recent Expand call.
func (e *Expander) Report() Report {
	return e.report
}

// pass replaces every match of fn in text.
func (e *Expander) pass(ctx context.Context, text string, fn Function) (string, error) {
	re := fn.Pattern()
	if re == nil {
		return "", &EvalError{Func: fn.Name(), Err: ErrNilPattern}
	}

	began := time.Now()
	locs := re.FindAllStringSubmatchIndex(text, -1)
	matches := make([]Match, len(locs))
	for i, loc := range locs {
		matches[i] = newMatch(text, loc)
	}

	if len(matches) > 0 {
		if p, ok := fn.(Preparer); ok {
			p.Prepare(ctx, matches)
		}
	}

	var sb strings.Builder
	sb.Grow(len(text))
	last := 0
	for _, m := range matches {
		repl, err := fn.Evaluate(ctx, m)
		if err != nil {
			return "", &EvalError{Func: fn.Name(), Token: m.Token(), Offset: m.Start, Err: err}
		}
		sb.WriteString(text[last:m.Start])
		sb.WriteString(repl)
		last = m.End
	}
	sb.WriteString(text[last:])

	dur := time.Since(began)
	e.report.Passes = append(e.report.Passes, PassReport{Func: fn.Name(), Matches: len(matches), Duration: dur})
	e.logger.WithComponent("expand").Debug("pass %s: %d matches in %s", fn.Name(), len(matches), dur)

	return sb.String(), nil
}

func newMatch(text string, loc []int) Match {
	groups := make([]string, len(loc)/2)
	for g := range groups {
		s, end := loc[2*g], loc[2*g+1]
		if s >= 0 && end >= 0 {
			groups[g] = text[s:end]
		}
	}
	return Match{Start: loc[0], End: loc[1], Groups: groups}
}

// PassReport describes one pass of an expansion.
type PassReport struct {
	Func     string
	Matches  int
	Duration time.Duration
}

// Report summarizes an expansion call.
type Report struct {
	Passes []PassReport
	Total  time.Duration
}

// Matches returns the total number of tokens replaced.
func (r Report) Matches() int {
	n := 0
	for _, p := range r.Passes {
		n += p.Matches
	}
	return n
}

// Summary returns a human-readable timing table.
func (r Report) Summary() string {
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range r.Passes {
		fmt.Fprintf(&sb, "  %-12s %4d  %8.3f ms\n", p.Func, p.Matches, float64(p.Duration.Microseconds())/1000)
	}
	fmt.Fprintf(&sb, "  %-12s %4d  %8.3f ms\n", "total", r.Matches(), float64(r.Total.Microseconds())/1000)
	return sb.String()
}
