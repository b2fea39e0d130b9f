package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Classes returns the class names of n in order.
func Classes(n *html.Node) []string {
	v, _ := Attr(n, "class")
	return strings.Fields(v)
}

// HasClass reports whether n carries class name.
func HasClass(n *html.Node, name string) bool {
	for _, c := range Classes(n) {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass appends the names n does not carry yet.
func AddClass(n *html.Node, names ...string) {
	classes := Classes(n)
	changed := false
	for _, name := range names {
		if name == "" || contains(classes, name) {
			continue
		}
		classes = append(classes, name)
		changed = true
	}
	if changed {
		SetAttr(n, "class", strings.Join(classes, " "))
	}
}

// RemoveClass removes names from n. The class attribute is dropped when it
// becomes empty.
func RemoveClass(n *html.Node, names ...string) {
	classes := Classes(n)
	kept := classes[:0]
	for _, c := range classes {
		if !contains(names, c) {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
