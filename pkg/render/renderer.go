package render

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/net/html"
)

// RendererConfig configures the HTML renderer.
type RendererConfig struct {
	// Pretty enables pretty-printed HTML output with indentation.
	// Should only be used for inspection as it changes whitespace.
	Pretty bool

	// Indent is the string used for each indentation level in pretty mode.
	// Defaults to two spaces if not specified.
	Indent string

	// StripComments drops comment nodes, including the anchors left by
	// v-if, v-for and raw markup. The output can then no longer be mounted
	// again.
	StripComments bool

	// IDs returns the id written as data-vbid on an element, or "" for none.
	// The live server uses it to address interactive elements.
	IDs func(n *html.Node) string
}

// Renderer serializes document trees to HTML.
type Renderer struct {
	config RendererConfig
	ids    int
}

// NewRenderer creates a new Renderer with the given configuration.
func NewRenderer(config RendererConfig) *Renderer {
	if config.Indent == "" {
		config.Indent = "  "
	}
	return &Renderer{config: config}
}

// RenderToString renders n and its subtree to a string.
func (r *Renderer) RenderToString(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToWriter(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToWriter streams n and its subtree to w.
func (r *Renderer) RenderToWriter(w io.Writer, n *html.Node) error {
	return r.renderNode(w, n, 0)
}

// RenderChildren streams the children of n, without n itself.
func (r *Renderer) RenderChildren(w io.Writer, n *html.Node) error {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := r.renderNode(w, c, 0); err != nil {
			return err
		}
	}
	return nil
}

// InnerHTML renders the children of n to a string.
func (r *Renderer) InnerHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderChildren(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// IDs returns the number of data-vbid attributes written so far.
func (r *Renderer) IDs() int {
	return r.ids
}

// Reset resets the renderer state for reuse.
func (r *Renderer) Reset() {
	r.ids = 0
}

func (r *Renderer) renderNode(w io.Writer, n *html.Node, depth int) error {
	if n == nil {
		return nil
	}

	switch n.Type {
	case html.ElementNode:
		return r.renderElement(w, n, depth)
	case html.TextNode:
		return r.renderText(w, n)
	case html.CommentNode:
		return r.renderComment(w, n, depth)
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := r.renderNode(w, c, depth); err != nil {
				return err
			}
		}
		return nil
	case html.DoctypeNode:
		_, err := fmt.Fprintf(w, "<!DOCTYPE %s>\n", n.Data)
		return err
	case html.RawNode:
		_, err := io.WriteString(w, n.Data)
		return err
	default:
		return fmt.Errorf("unknown node type: %d", n.Type)
	}
}

// renderElement renders an HTML element with its attributes and children.
func (r *Renderer) renderElement(w io.Writer, n *html.Node, depth int) error {
	tag := n.Data

	if r.config.Pretty && depth > 0 {
		r.writeIndent(w, depth)
	}

	if _, err := fmt.Fprintf(w, "<%s", tag); err != nil {
		return err
	}
	if err := r.renderAttributes(w, n); err != nil {
		return err
	}
	if r.config.IDs != nil {
		if id := r.config.IDs(n); id != "" {
			r.ids++
			if _, err := fmt.Fprintf(w, ` data-vbid="%s"`, escapeAttr(id)); err != nil {
				return err
			}
		}
	}

	if voidElements.has(n) {
		if _, err := w.Write([]byte{'>'}); err != nil {
			return err
		}
		if r.config.Pretty {
			w.Write([]byte{'\n'})
		}
		return nil
	}

	if _, err := w.Write([]byte{'>'}); err != nil {
		return err
	}

	if rawTextElements.has(n) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if _, err := io.WriteString(w, c.Data); err != nil {
				return err
			}
		}
	} else {
		hasBlockChildren := n.FirstChild != nil && !inlineElements.has(n) && !hasOnlyText(n)
		if r.config.Pretty && hasBlockChildren {
			w.Write([]byte{'\n'})
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if r.config.Pretty && hasBlockChildren && c.Type == html.TextNode && isBlank(c.Data) {
				continue
			}
			if err := r.renderNode(w, c, depth+1); err != nil {
				return err
			}
		}

		if r.config.Pretty && hasBlockChildren {
			r.writeIndent(w, depth)
		}
	}

	if _, err := fmt.Fprintf(w, "</%s>", tag); err != nil {
		return err
	}
	if r.config.Pretty {
		w.Write([]byte{'\n'})
	}
	return nil
}

// renderText renders a text node with HTML escaping.
func (r *Renderer) renderText(w io.Writer, n *html.Node) error {
	_, err := io.WriteString(w, html.EscapeString(n.Data))
	return err
}

func (r *Renderer) renderComment(w io.Writer, n *html.Node, depth int) error {
	if r.config.StripComments {
		return nil
	}
	if r.config.Pretty && depth > 0 {
		r.writeIndent(w, depth)
	}
	if _, err := fmt.Fprintf(w, "<!--%s-->", n.Data); err != nil {
		return err
	}
	if r.config.Pretty {
		w.Write([]byte{'\n'})
	}
	return nil
}

// renderAttributes renders attributes in document order. Boolean attributes
// with an empty value are written bare.
func (r *Renderer) renderAttributes(w io.Writer, n *html.Node) error {
	for _, a := range n.Attr {
		key := a.Key
		if a.Namespace != "" {
			key = a.Namespace + ":" + key
		}
		if a.Val == "" && booleanAttrs[a.Key] {
			if _, err := fmt.Fprintf(w, " %s", key); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, ` %s="%s"`, key, escapeAttr(a.Val)); err != nil {
			return err
		}
	}
	return nil
}

// writeIndent writes indentation for pretty printing.
func (r *Renderer) writeIndent(w io.Writer, depth int) {
	for i := 0; i < depth; i++ {
		w.Write([]byte(r.config.Indent))
	}
}

func hasOnlyText(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode {
			return false
		}
	}
	return true
}

func isBlank(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r', '\f':
		default:
			return false
		}
	}
	return true
}
