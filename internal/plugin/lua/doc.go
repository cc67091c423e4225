// Package lua runs user scripts that drive macro expansion.
//
// Scripts run in a sandboxed gopher-lua state: only the base, table, string
// and math libraries are opened, file loading functions are removed, and
// require only resolves whitelisted modules plus the ks.* modules provided
// by the host. The package library is not opened, so package.path and
// package.loaders do not exist.
//
// # State
//
//	state, err := lua.NewState(
//	    lua.WithExecutionTimeout(2 * time.Second),
//	    lua.WithCallLimit(100_000),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer state.Close()
//
//	if err := lua.NewMacroModule(doc, env, nil).Register(state); err != nil {
//	    log.Fatal(err)
//	}
//	if err := state.DoFile("script.lua"); err != nil {
//	    log.Fatal(err)
//	}
//
// # ks.macro
//
//	local macro = require("ks.macro")
//	macro.expand("@upper(abc)")        --> "ABC"
//	macro.expand("<@sel()>", "given")  --> "<given>"
//	macro.selection()                  --> selected text
//	macro.set_selection(0, 5)
//	macro.expand_selection()           --> expands the selection in place
//	macro.quote_selection()            --> selection as a literal pattern
//	macro.functions()                  --> {"sel", "text", ...}
//
// @getUrl() only fetches when CapabilityNetwork has been granted.
package lua
