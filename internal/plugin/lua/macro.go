package lua

import (
	"context"

	"fortio.org/safecast"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/macrostorm/internal/expand"
	"github.com/dshills/macrostorm/internal/expand/funcs"
	"github.com/dshills/macrostorm/internal/host"
)

// MacroModule implements the ks.macro API module.
type MacroModule struct {
	doc      *host.Document
	env      funcs.Env
	names    []string
	sandbox  *Sandbox
	expander *expand.Expander
}

// NewMacroModule creates a module that expands against doc. names selects
// the functions and their order; nil means the default preset.
func NewMacroModule(doc *host.Document, env funcs.Env, names []string) *MacroModule {
	if len(names) == 0 {
		names = funcs.DefaultOrder()
	}
	env.Editor = doc
	env.Selection = nil
	return &MacroModule{
		doc:      doc,
		env:      env,
		names:    names,
		expander: expand.New(expand.WithLogger(env.Logger)),
	}
}

// Name returns the module name.
func (m *MacroModule) Name() string {
	return "macro"
}

// Register makes the module available as require("ks.macro") and as the
// _ks_macro global.
func (m *MacroModule) Register(s *State) error {
	m.sandbox = s.Sandbox()

	L := s.LuaState()
	mod := L.NewTable()
	L.SetField(mod, "expand", L.NewFunction(m.expand))
	L.SetField(mod, "expand_selection", L.NewFunction(m.expandSelection))
	L.SetField(mod, "selection", L.NewFunction(m.selection))
	L.SetField(mod, "set_selection", L.NewFunction(m.setSelection))
	L.SetField(mod, "quote_selection", L.NewFunction(m.quoteSelection))
	L.SetField(mod, "text", L.NewFunction(m.text))
	L.SetField(mod, "functions", L.NewFunction(m.functions))

	s.SetGlobal("_ks_macro", mod)
	return s.PreloadModule("ks.macro", func(L *lua.LState) int {
		L.Push(mod)
		return 1
	})
}

// enter counts the call against the sandbox limit.
func (m *MacroModule) enter(L *lua.LState) {
	if m.sandbox == nil {
		return
	}
	if err := m.sandbox.CountCall(); err != nil {
		L.RaiseError("%v", err)
	}
}

// fns builds a fresh function list for one expansion.
func (m *MacroModule) fns(selection *string) ([]expand.Function, error) {
	env := m.env
	env.Selection = selection
	if m.sandbox == nil || !m.sandbox.HasCapability(CapabilityNetwork) {
		env.Fetcher = nil
	}
	return funcs.Build(m.names, env)
}

func (m *MacroModule) run(L *lua.LState, text string, selection *string) (string, error) {
	fns, err := m.fns(selection)
	if err != nil {
		return "", err
	}
	ctx := L.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return m.expander.Expand(ctx, text, fns...)
}

// expand(text [, selection]) -> string
// Expands text. When selection is given it is used for @sel().
func (m *MacroModule) expand(L *lua.LState) int {
	m.enter(L)
	text := L.CheckString(1)

	var selection *string
	if L.GetTop() >= 2 && L.Get(2) != lua.LNil {
		s := L.CheckString(2)
		selection = &s
	}

	out, err := m.run(L, text, selection)
	if err != nil {
		L.RaiseError("expand: %v", err)
		return 0
	}
	L.Push(lua.LString(out))
	return 1
}

// expand_selection() -> string
// Expands the selected text and replaces the selection with the result.
func (m *MacroModule) expandSelection(L *lua.LState) int {
	m.enter(L)
	if err := m.sandbox.CheckCapability(CapabilityBufferWrite); err != nil {
		L.RaiseError("expand_selection: %v", err)
		return 0
	}

	text, err := m.doc.CurrentSelection()
	if err != nil {
		L.RaiseError("expand_selection: %v", err)
		return 0
	}
	out, err := m.run(L, text, nil)
	if err != nil {
		L.RaiseError("expand_selection: %v", err)
		return 0
	}
	m.doc.ReplaceSelection(out)
	L.Push(lua.LString(out))
	return 1
}

// selection() -> string, anchor, head
// Returns the selected text and its byte offsets.
func (m *MacroModule) selection(L *lua.LState) int {
	m.enter(L)
	text, err := m.doc.CurrentSelection()
	if err != nil {
		L.RaiseError("selection: %v", err)
		return 0
	}
	sel := m.doc.Selection()
	L.Push(lua.LString(text))
	L.Push(lua.LNumber(sel.Anchor))
	L.Push(lua.LNumber(sel.Head))
	return 3
}

// set_selection(anchor, head)
// Selects the byte range between anchor and head.
func (m *MacroModule) setSelection(L *lua.LState) int {
	m.enter(L)
	anchor, err := safecast.Conv[int](L.CheckInt64(1))
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	head, err := safecast.Conv[int](L.CheckInt64(2))
	if err != nil {
		L.ArgError(2, err.Error())
		return 0
	}
	if err := m.doc.SetSelection(anchor, head); err != nil {
		L.RaiseError("set_selection: %v", err)
	}
	return 0
}

// quote_selection() -> string
// Returns the selection quoted as a literal regular expression.
func (m *MacroModule) quoteSelection(L *lua.LState) int {
	m.enter(L)
	q, err := funcs.QuoteSelection(m.doc)
	if err != nil {
		L.RaiseError("quote_selection: %v", err)
		return 0
	}
	L.Push(lua.LString(q))
	return 1
}

// text() -> string
// Returns the full document text.
func (m *MacroModule) text(L *lua.LState) int {
	m.enter(L)
	L.Push(lua.LString(m.doc.Text()))
	return 1
}

// functions() -> {names}
// Returns the functions used by expand, in order.
func (m *MacroModule) functions(L *lua.LState) int {
	m.enter(L)
	tbl := L.NewTable()
	for i, name := range m.names {
		tbl.RawSetInt(i+1, lua.LString(name))
	}
	L.Push(tbl)
	return 1
}
