// Package dom provides the document-tree helpers vbind binds against.
//
// Nodes are golang.org/x/net/html nodes. The package adds what the binding
// engine needs on top of the parser's tree: attribute, class and inline-style
// editing, form-control state, markup parsing for raw-markup bindings, and an
// event registry that delivers events through capture, target and bubble
// phases the way browsers do.
//
// Form-control state (value, checked, selected) lives in the corresponding
// attributes, so rendering a node always reflects its current state.
package dom
