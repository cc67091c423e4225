// Package expand implements the macro expansion engine.
//
// A Function pairs a compiled pattern with an evaluation rule. Expand applies an
// ordered list of functions to a text, one full pass per function:
//
//	out, err := expand.Expand(ctx, "@upper(@sel())", sel, upper)
//
// Every match of the first function is replaced before the second function scans
// the text, so a later pass sees what earlier passes produced and never the other
// way around. Reordering the list changes the output.
//
// Within a pass, matches are located left to right without overlap, and the
// evaluated replacement is spliced in verbatim. Replacement text is never
// interpreted as pattern syntax, so "$1" in a selection stays "$1".
//
// # Errors
//
// Patterns that do not match leave the text untouched. An evaluation error aborts
// the whole call and is returned as an *EvalError naming the function and the
// token that failed. Functions that prefer to degrade (remote fetches) render
// their failure into the replacement text instead of returning an error.
//
// # Lifetime
//
// Functions may memoize a capability lookup on first use. Construct fresh
// instances for every call (the presets in package funcs do this) so that the
// memoized value is scoped to a single expansion.
package expand
