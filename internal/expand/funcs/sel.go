package funcs

import (
	"context"
	"regexp"
	"strings"

	"github.com/dshills/macrostorm/internal/expand"
	"github.com/dshills/macrostorm/internal/host"
)

var selPattern = regexp.MustCompile(`@sel\(\)`)

// Sel expands @sel() to the live selection of the editor.
type Sel struct {
	sel   host.Selector
	value memo[string]
}

// NewSel creates a Sel reading from s.
func NewSel(s host.Selector) *Sel {
	return &Sel{sel: s}
}

// Name implements expand.Function.
func (f *Sel) Name() string { return "sel" }

// Pattern implements expand.Function.
func (f *Sel) Pattern() *regexp.Regexp { return selPattern }

// Evaluate implements expand.Function. Nothing selected yields "".
func (f *Sel) Evaluate(context.Context, expand.Match) (string, error) {
	return f.value.get(func() (string, error) {
		return selectedText(f.sel)
	})
}

// SelValue expands @sel() to a selection the caller resolved beforehand.
type SelValue struct {
	text string
}

// NewSelValue creates a SelValue that always yields text.
func NewSelValue(text string) *SelValue {
	return &SelValue{text: text}
}

// Name implements expand.Function.
func (f *SelValue) Name() string { return "sel" }

// Pattern implements expand.Function.
func (f *SelValue) Pattern() *regexp.Regexp { return selPattern }

// Evaluate implements expand.Function.
func (f *SelValue) Evaluate(context.Context, expand.Match) (string, error) {
	return f.text, nil
}

// SelRegex expands @sel() to the selection quoted as a literal regular
// expression, for text that is later compiled as a pattern.
type SelRegex struct {
	sel   host.Selector
	value memo[string]
}

// NewSelRegex creates a SelRegex reading from s.
func NewSelRegex(s host.Selector) *SelRegex {
	return &SelRegex{sel: s}
}

// Name implements expand.Function.
func (f *SelRegex) Name() string { return "selRegex" }

// Pattern implements expand.Function.
func (f *SelRegex) Pattern() *regexp.Regexp { return selPattern }

// Evaluate implements expand.Function.
func (f *SelRegex) Evaluate(context.Context, expand.Match) (string, error) {
	return f.value.get(func() (string, error) {
		return QuoteSelection(f.sel)
	})
}

// QuoteSelection returns the current selection quoted by QuoteLiteral, or ""
// when the selection start equals its end.
func QuoteSelection(s host.Selector) (string, error) {
	if s == nil {
		return "", host.ErrNoEditor
	}
	has, err := s.HasSelection()
	if err != nil || !has {
		return "", err
	}
	text, err := s.CurrentSelection()
	if err != nil {
		return "", err
	}
	return QuoteLiteral(text), nil
}

// QuoteLiteral wraps s in \Q...\E so that every character matches literally.
// Occurrences of \E inside s are split out of the quoted run.
func QuoteLiteral(s string) string {
	return `\Q` + strings.ReplaceAll(s, `\E`, `\E\\E\Q`) + `\E`
}

func selectedText(s host.Selector) (string, error) {
	if s == nil {
		return "", host.ErrNoEditor
	}
	has, err := s.HasSelection()
	if err != nil || !has {
		return "", err
	}
	return s.CurrentSelection()
}
