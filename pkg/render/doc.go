// Package render serializes mounted document trees to HTML.
//
// The live server and the render command both go through this package:
//
//	r := render.NewRenderer(render.RendererConfig{})
//	out, err := r.RenderToString(root)
//
// Text is escaped, script and style bodies are written raw, and void
// elements have no closing tag. Comment anchors left by conditional and
// list directives are kept unless StripComments is set, so the output
// can be mounted again.
//
// # Pages
//
// RenderPage wraps a mounted root in a complete document:
//
//	err := r.RenderPage(w, render.PageData{Body: root, Title: "Todos"})
//
// When ClientScript is set the live client is injected after the body,
// along with the session id used for reconnection. StreamingRenderer does
// the same while flushing the head before the body is written.
package render
