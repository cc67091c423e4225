package funcs

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/dshills/macrostorm/internal/expand"
)

var timestampPattern = regexp.MustCompile(`@timestamp\(([^,)]+),([^,)]+)\)`)

// Timestamp expands @timestamp(format, locale). The instant is read from the
// clock once, so every token in one call shows the same time.
type Timestamp struct {
	now     func() time.Time
	instant memo[time.Time]
}

// NewTimestamp creates a Timestamp using now as its clock. Nil means time.Now.
func NewTimestamp(now func() time.Time) *Timestamp {
	if now == nil {
		now = time.Now
	}
	return &Timestamp{now: now}
}

// Name implements expand.Function.
func (f *Timestamp) Name() string { return "timestamp" }

// Pattern implements expand.Function.
func (f *Timestamp) Pattern() *regexp.Regexp { return timestampPattern }

// Evaluate implements expand.Function.
func (f *Timestamp) Evaluate(_ context.Context, m expand.Match) (string, error) {
	sym, err := lookupLocale(strings.TrimSpace(m.Group(2)))
	if err != nil {
		return "", err
	}
	t, _ := f.instant.get(func() (time.Time, error) {
		return f.now(), nil
	})
	return formatDate(t, strings.TrimSpace(m.Group(1)), sym)
}
