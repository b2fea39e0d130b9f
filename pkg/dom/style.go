package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Decl is one inline style declaration.
type Decl struct {
	Prop  string
	Value string
}

// ParseStyle splits a style attribute into declarations.
func ParseStyle(s string) []Decl {
	var out []Decl
	for _, part := range strings.Split(s, ";") {
		prop, val, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		if prop == "" {
			continue
		}
		out = append(out, Decl{Prop: prop, Value: strings.TrimSpace(val)})
	}
	return out
}

// FormatStyle joins declarations into a style attribute value.
func FormatStyle(decls []Decl) string {
	parts := make([]string, len(decls))
	for i, d := range decls {
		parts[i] = d.Prop + ": " + d.Value + ";"
	}
	return strings.Join(parts, " ")
}

// Style returns the value of inline style prop, or "".
func Style(n *html.Node, prop string) string {
	v, _ := Attr(n, "style")
	for _, d := range ParseStyle(v) {
		if d.Prop == prop {
			return d.Value
		}
	}
	return ""
}

// SetStyle sets inline style prop. An empty value removes it.
func SetStyle(n *html.Node, prop, value string) {
	if value == "" {
		RemoveStyle(n, prop)
		return
	}
	v, _ := Attr(n, "style")
	decls := ParseStyle(v)
	for i := range decls {
		if decls[i].Prop == prop {
			decls[i].Value = value
			SetAttr(n, "style", FormatStyle(decls))
			return
		}
	}
	decls = append(decls, Decl{Prop: prop, Value: value})
	SetAttr(n, "style", FormatStyle(decls))
}

// RemoveStyle clears inline style prop. The style attribute is dropped when
// no declaration remains.
func RemoveStyle(n *html.Node, prop string) {
	v, ok := Attr(n, "style")
	if !ok {
		return
	}
	decls := ParseStyle(v)
	kept := decls[:0]
	for _, d := range decls {
		if d.Prop != prop {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		RemoveAttr(n, "style")
		return
	}
	SetAttr(n, "style", FormatStyle(kept))
}
