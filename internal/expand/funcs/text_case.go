package funcs

import (
	"context"
	"net/url"
	"regexp"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dshills/macrostorm/internal/expand"
)

var (
	lowerPattern     = regexp.MustCompile(`@lower\((.*?)\)`)
	upperPattern     = regexp.MustCompile(`@upper\((.*?)\)`)
	urlEncodePattern = regexp.MustCompile(`@urlEncode\((.*?)\)`)
)

// Case expands @lower(s) or @upper(s) with locale-invariant case mapping.
type Case struct {
	name    string
	pattern *regexp.Regexp
	caser   cases.Caser
}

// NewLower creates the @lower() function.
func NewLower() *Case {
	return &Case{name: "lower", pattern: lowerPattern, caser: cases.Lower(language.Und)}
}

// NewUpper creates the @upper() function.
func NewUpper() *Case {
	return &Case{name: "upper", pattern: upperPattern, caser: cases.Upper(language.Und)}
}

// Name implements expand.Function.
func (f *Case) Name() string { return f.name }

// Pattern implements expand.Function.
func (f *Case) Pattern() *regexp.Regexp { return f.pattern }

// Evaluate implements expand.Function.
func (f *Case) Evaluate(_ context.Context, m expand.Match) (string, error) {
	return f.caser.String(m.Group(1)), nil
}

// URLEncode expands @urlEncode(s) to the form-encoded s.
type URLEncode struct{}

// NewURLEncode creates the @urlEncode() function.
func NewURLEncode() *URLEncode {
	return &URLEncode{}
}

// Name implements expand.Function.
func (f *URLEncode) Name() string { return "urlEncode" }

// Pattern implements expand.Function.
func (f *URLEncode) Pattern() *regexp.Regexp { return urlEncodePattern }

// Evaluate implements expand.Function.
func (f *URLEncode) Evaluate(_ context.Context, m expand.Match) (string, error) {
	return url.QueryEscape(m.Group(1)), nil
}
