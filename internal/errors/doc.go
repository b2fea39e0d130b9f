// Package errors provides structured, actionable error messages for vbind.
//
// Every problem the engine detects flows through one channel: a Reporter that
// receives *VangoError values. The severity of an error distinguishes a warning
// (the offending directive or callback is skipped and everything else keeps
// working) from a hard failure (construction aborted, engine unusable).
//
// # Error Categories
//
// Errors are organized into categories:
//   - construction: wrong root node type, non-object model
//   - compile: unknown directive, malformed repeat, disallowed keyword
//   - runtime: expression evaluation failures, callback panics
//   - subscription: watching a missing field or a name containing the delimiter
//   - config / source / cli: the surrounding tooling
//
// # Error Codes
//
// Each error has a unique code (e.g., "E110") that maps to a short message,
// a detailed explanation and a documentation URL.
//
// # Usage
//
//	err := errors.New("E110").
//	    WithNode("div#app > span").
//	    WithDirective("v-foo").
//	    WithSuggestion("Use one of v-text, v-html, v-show, v-if, v-bind, v-on, v-model, v-for, v-el, v-pre")
//
//	fmt.Println(err.Format())
//	// Output:
//	// WARNING E110: Unknown directive
//	//
//	//   div#app > span  v-foo
//	//
//	//   Hint: Use one of v-text, v-html, ...
//	//
//	//   Learn more: https://vbind.dev/docs/errors/E110
package errors
