package funcs

import (
	"context"
	"regexp"

	"github.com/dshills/macrostorm/internal/expand"
	"github.com/dshills/macrostorm/internal/host"
)

var textPattern = regexp.MustCompile(`@text\(\)`)

// Text expands @text() to the full buffer text.
type Text struct {
	buf   host.BufferReader
	value memo[string]
}

// NewText creates a Text reading from b.
func NewText(b host.BufferReader) *Text {
	return &Text{buf: b}
}

// Name implements expand.Function.
func (f *Text) Name() string { return "text" }

// Pattern implements expand.Function.
func (f *Text) Pattern() *regexp.Regexp { return textPattern }

// Evaluate implements expand.Function.
func (f *Text) Evaluate(context.Context, expand.Match) (string, error) {
	return f.value.get(func() (string, error) {
		if f.buf == nil {
			return "", host.ErrNoEditor
		}
		return f.buf.CurrentBufferText()
	})
}
