package funcs

import (
	"fmt"

	"github.com/dshills/macrostorm/internal/expand"
)

// Info describes a registered function.
type Info struct {
	Name        string
	Syntax      string
	Description string
}

type entry struct {
	Info
	build func(env Env) expand.Function
}

// registry lists every function in default preset order, followed by the
// variants that replace one of them.
var registry = []entry{
	{
		Info: Info{"sel", "@sel()", "current selection, empty when nothing is selected"},
		build: func(env Env) expand.Function {
			if env.Selection != nil {
				return NewSelValue(*env.Selection)
			}
			return NewSel(env.Editor)
		},
	},
	{
		Info:  Info{"text", "@text()", "full buffer text"},
		build: func(env Env) expand.Function { return NewText(env.Editor) },
	},
	{
		Info:  Info{"lower", "@lower(s)", "s in lower case"},
		build: func(Env) expand.Function { return NewLower() },
	},
	{
		Info:  Info{"upper", "@upper(s)", "s in upper case"},
		build: func(Env) expand.Function { return NewUpper() },
	},
	{
		Info:  Info{"urlEncode", "@urlEncode(s)", "s encoded for a URL query"},
		build: func(Env) expand.Function { return NewURLEncode() },
	},
	{
		Info:  Info{"getUrl", "@getUrl(url)", "body of an HTTP GET, or an inline error"},
		build: func(env Env) expand.Function { return NewGetURL(env) },
	},
	{
		Info:  Info{"expr", "@expr(a op b)", "integer arithmetic with + - * /"},
		build: func(Env) expand.Function { return NewExpr() },
	},
	{
		Info:  Info{"timestamp", "@timestamp(format, locale)", "current time in a SimpleDateFormat pattern"},
		build: func(env Env) expand.Function { return NewTimestamp(env.Now) },
	},
	{
		Info:  Info{"selRegex", "@sel()", "current selection quoted as a literal regular expression"},
		build: func(env Env) expand.Function { return NewSelRegex(env.Editor) },
	},
}

var defaultOrder = []string{"sel", "text", "lower", "upper", "urlEncode", "getUrl", "expr", "timestamp"}

var regexOrder = []string{"selRegex", "text", "lower", "upper", "urlEncode", "getUrl", "expr", "timestamp"}

// Functions returns the registered functions in registry order.
func Functions() []Info {
	infos := make([]Info, len(registry))
	for i, e := range registry {
		infos[i] = e.Info
	}
	return infos
}

// Names returns the registered function names in registry order.
func Names() []string {
	names := make([]string, len(registry))
	for i, e := range registry {
		names[i] = e.Name
	}
	return names
}

// DefaultOrder returns the function order used by All.
func DefaultOrder() []string {
	return append([]string(nil), defaultOrder...)
}

// RegexOrder returns the function order used by Regex.
func RegexOrder() []string {
	return append([]string(nil), regexOrder...)
}

// Build returns fresh instances of the named functions, in the given order.
func Build(names []string, env Env) ([]expand.Function, error) {
	fns := make([]expand.Function, 0, len(names))
	for _, name := range names {
		e, ok := lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
		}
		fns = append(fns, e.build(env))
	}
	return fns, nil
}

// All returns the default function list reading the selection live from
// env.Editor, or from env.Selection when set.
func All(env Env) []expand.Function {
	return mustBuild(defaultOrder, env)
}

// Evaluated returns the default function list with selected as the
// selection.
func Evaluated(selected string, env Env) []expand.Function {
	env.Selection = &selected
	return mustBuild(defaultOrder, env)
}

// Regex returns the default function list with @sel() quoted as a literal
// regular expression.
func Regex(env Env) []expand.Function {
	return mustBuild(regexOrder, env)
}

func mustBuild(names []string, env Env) []expand.Function {
	fns, err := Build(names, env)
	if err != nil {
		panic(err)
	}
	return fns
}

func lookup(name string) (entry, bool) {
	for _, e := range registry {
		if e.Name == name {
			return e, true
		}
	}
	return entry{}, false
}
