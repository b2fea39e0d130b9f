package dom

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NewElement creates a detached element.
func NewElement(tag string) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
}

// NewText creates a detached text node.
func NewText(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// NewComment creates a detached comment node.
func NewComment(s string) *html.Node {
	return &html.Node{Type: html.CommentNode, Data: s}
}

// IsElement reports whether n is an element.
func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// Attr returns the value of attribute key.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether attribute key is present.
func HasAttr(n *html.Node, key string) bool {
	_, ok := Attr(n, key)
	return ok
}

// SetAttr sets attribute key, keeping its position when it already exists.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr removes attribute key. It reports whether it was present.
func RemoveAttr(n *html.Node, key string) bool {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a detached deep copy of n.
func Clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(Clone(child))
	}
	return c
}

// Children returns the child nodes of n.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// Detach removes n from its parent, if any.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// RemoveChildren detaches and returns all children of n.
func RemoveChildren(n *html.Node) []*html.Node {
	kids := Children(n)
	for _, c := range kids {
		n.RemoveChild(c)
	}
	return kids
}

// InsertAfter inserts n directly after ref.
func InsertAfter(ref, n *html.Node) {
	ref.Parent.InsertBefore(n, ref.NextSibling)
}

// Replace puts repl where old is and detaches old.
func Replace(old, repl *html.Node) {
	old.Parent.InsertBefore(repl, old)
	old.Parent.RemoveChild(old)
}

// NextElementSibling returns the next sibling element, skipping
// whitespace-only text and comments.
func NextElementSibling(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		switch s.Type {
		case html.ElementNode:
			return s
		case html.TextNode:
			if strings.TrimSpace(s.Data) != "" {
				return nil
			}
		}
	}
	return nil
}

// TextContent returns the concatenated text of n's subtree.
func TextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(x *html.Node) {
		for c := x.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			} else {
				walk(c)
			}
		}
	}
	walk(n)
	return b.String()
}

// SetTextContent replaces the content of n with s. For a text node the data
// is replaced in place.
func SetTextContent(n *html.Node, s string) {
	if n.Type == html.TextNode {
		n.Data = s
		return
	}
	RemoveChildren(n)
	if s != "" {
		n.AppendChild(NewText(s))
	}
}

// ParseFragment parses markup in a <div> context and returns detached nodes.
func ParseFragment(markup string) ([]*html.Node, error) {
	ctx := NewElement("div")
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		Detach(n)
	}
	return nodes, nil
}

// SetInnerHTML replaces the children of n with the parsed markup.
func SetInnerHTML(n *html.Node, markup string) error {
	nodes, err := ParseFragment(markup)
	if err != nil {
		return err
	}
	RemoveChildren(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// InnerHTML serializes the children of n.
func InnerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		html.Render(&buf, c)
	}
	return buf.String()
}

// OuterHTML serializes n.
func OuterHTML(n *html.Node) string {
	var buf bytes.Buffer
	html.Render(&buf, n)
	return buf.String()
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the node's children.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		Walk(c, fn)
		c = next
	}
}

// FindByID returns the first element below root whose id attribute is id.
func FindByID(root *html.Node, id string) *html.Node {
	var found *html.Node
	Walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if v, ok := Attr(n, "id"); ok && v == id && n.Type == html.ElementNode {
			found = n
			return false
		}
		return true
	})
	return found
}

// Describe returns a short selector-like description of n's position, used in
// error locations ("div#app > ul > li").
func Describe(n *html.Node) string {
	var parts []string
	for x := n; x != nil && x.Type != html.DocumentNode && len(parts) < 4; x = x.Parent {
		switch x.Type {
		case html.ElementNode:
			part := x.Data
			if id, ok := Attr(x, "id"); ok && id != "" {
				part += "#" + id
			}
			parts = append(parts, part)
		case html.TextNode:
			parts = append(parts, "#text")
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}
