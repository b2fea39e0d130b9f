// Package updater holds the pure DOM-mutation functions bindings use to
// reflect a value onto a node.
//
// No function here reads model state. Each one receives the node, the new
// value and, where the mutation is a diff, the previous value, and confines
// its side effects to that node (and, for the visibility toggles, the node's
// cached companion). Functions return whether they changed anything.
package updater

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/vango-dev/vbind/pkg/dom"
	"github.com/vango-dev/vbind/pkg/expr"
	"github.com/vango-dev/vbind/pkg/reactive"
)

// Stringify converts a bound value to its display string. nil renders as the
// empty string, containers as JSON.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x)
	case *reactive.Object, *reactive.Array:
		return Stringify(reactive.Plain(x))
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	case *html.Node:
		return dom.OuterHTML(x)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Text writes v as the text of n. A text node's data is replaced in place.
func Text(n *html.Node, v any) bool {
	s := Stringify(v)
	if n.Type == html.TextNode {
		if n.Data == s {
			return false
		}
		n.Data = s
		return true
	}
	if dom.TextContent(n) == s && (n.FirstChild == nil || n.FirstChild.NextSibling == nil) {
		return false
	}
	dom.SetTextContent(n, s)
	return true
}

// Markup replaces the content of element n with v parsed as markup.
func Markup(n *html.Node, v any) (bool, error) {
	s := Stringify(v)
	if dom.InnerHTML(n) == s {
		return false, nil
	}
	return true, dom.SetInnerHTML(n, s)
}

// MarkupRange replaces the nodes strictly between the start and end anchors
// with v parsed as markup.
func MarkupRange(start, end *html.Node, v any) error {
	nodes, err := dom.ParseFragment(Stringify(v))
	if err != nil {
		return err
	}
	for c := start.NextSibling; c != nil && c != end; {
		next := c.NextSibling
		c.Parent.RemoveChild(c)
		c = next
	}
	for _, c := range nodes {
		end.Parent.InsertBefore(c, end)
	}
	return nil
}

// DisplayState remembers the inline display value a node had before it was
// first hidden, and its style attribute as written.
type DisplayState struct {
	captured bool
	original string
	style    string
	hadStyle bool
}

// Display shows or hides n by its inline display style. The original inline
// display value is captured on the first toggle and restored on show. When
// no other declaration changed meanwhile, the original style attribute is
// put back byte for byte.
func Display(n *html.Node, show bool, st *DisplayState) bool {
	if !st.captured {
		st.captured = true
		st.style, st.hadStyle = dom.Attr(n, "style")
		if d := dom.Style(n, "display"); d != "none" {
			st.original = d
		}
	}
	cur := dom.Style(n, "display")
	if show {
		if cur == st.original {
			return false
		}
		if st.restorable(n) {
			if st.hadStyle {
				dom.SetAttr(n, "style", st.style)
			} else {
				dom.RemoveAttr(n, "style")
			}
			return true
		}
		dom.SetStyle(n, "display", st.original)
		return true
	}
	if cur == "none" {
		return false
	}
	dom.SetStyle(n, "display", "none")
	return true
}

// restorable reports whether the captured style attribute differs from the
// current one in display only.
func (st *DisplayState) restorable(n *html.Node) bool {
	cur, _ := dom.Attr(n, "style")
	was := dom.ParseStyle(st.style)
	for _, d := range was {
		if d.Prop == "display" && d.Value == "none" {
			return false
		}
	}
	return slices.Equal(withoutDisplay(was), withoutDisplay(dom.ParseStyle(cur)))
}

func withoutDisplay(decls []dom.Decl) []dom.Decl {
	out := decls[:0:0]
	for _, d := range decls {
		if d.Prop != "display" {
			out = append(out, d)
		}
	}
	return out
}

// Render inserts el after anchor when show is true and detaches it
// otherwise.
func Render(anchor, el *html.Node, show bool) bool {
	if show == (el.Parent != nil) {
		return false
	}
	if show {
		dom.InsertAfter(anchor, el)
	} else {
		dom.Detach(el)
	}
	return true
}

// Attr sets attribute name from v. nil and false remove it, true sets it
// empty.
func Attr(n *html.Node, name string, v any) bool {
	old, had := dom.Attr(n, name)
	switch x := v.(type) {
	case nil:
		return dom.RemoveAttr(n, name)
	case bool:
		if !x {
			return dom.RemoveAttr(n, name)
		}
		if had && old == "" {
			return false
		}
		dom.SetAttr(n, name, "")
		return true
	}
	s := Stringify(v)
	if had && old == s {
		return false
	}
	dom.SetAttr(n, name, s)
	return true
}

// ClassNames returns the class names v designates: the truthy keys of a flag
// object, the non-empty elements of a sequence, or the fields of a string.
func ClassNames(v any) []string {
	switch x := reactive.Plain(v).(type) {
	case nil:
		return nil
	case map[string]any:
		var out []string
		for k, on := range x {
			if expr.Truthy(on) {
				out = append(out, k)
			}
		}
		sort.Strings(out)
		return out
	case []any:
		var out []string
		for _, el := range x {
			out = append(out, strings.Fields(Stringify(el))...)
		}
		return out
	default:
		return strings.Fields(Stringify(x))
	}
}

// Class adds the classes v designates and removes those old designated that
// v no longer does. Classes present in the markup and never bound are kept.
func Class(n *html.Node, v, old any) bool {
	next := ClassNames(v)
	keep := make(map[string]bool, len(next))
	for _, c := range next {
		keep[c] = true
	}
	var drop []string
	for _, c := range ClassNames(old) {
		if !keep[c] && dom.HasClass(n, c) {
			drop = append(drop, c)
		}
	}
	var add []string
	for _, c := range next {
		if !dom.HasClass(n, c) {
			add = append(add, c)
		}
	}
	if len(drop) == 0 && len(add) == 0 {
		return false
	}
	dom.RemoveClass(n, drop...)
	dom.AddClass(n, add...)
	return true
}

// StyleDecls returns the declarations v designates: a prop→value object
// (falsy values clear the property) or an inline style string.
func StyleDecls(v any) map[string]string {
	out := map[string]string{}
	switch x := reactive.Plain(v).(type) {
	case nil:
	case map[string]any:
		for k, val := range x {
			if val == nil || val == false || val == "" {
				out[strings.ToLower(k)] = ""
				continue
			}
			out[strings.ToLower(k)] = Stringify(val)
		}
	default:
		for _, d := range dom.ParseStyle(Stringify(x)) {
			out[d.Prop] = d.Value
		}
	}
	return out
}

// Style sets the inline properties v designates and clears those old set
// that v no longer sets.
func Style(n *html.Node, v, old any) bool {
	next := StyleDecls(v)
	changed := false
	prev := StyleDecls(old)
	props := make([]string, 0, len(prev))
	for p := range prev {
		props = append(props, p)
	}
	sort.Strings(props)
	for _, p := range props {
		if _, ok := next[p]; !ok && dom.Style(n, p) != "" {
			dom.RemoveStyle(n, p)
			changed = true
		}
	}
	props = props[:0]
	for p := range next {
		props = append(props, p)
	}
	sort.Strings(props)
	for _, p := range props {
		if dom.Style(n, p) != next[p] {
			dom.SetStyle(n, p, next[p])
			changed = true
		}
	}
	return changed
}

// Listen attaches fn for typ on n under key, detaching any listener already
// registered with the same type and key.
func Listen(ev *dom.Events, n *html.Node, typ, key string, capture bool, fn dom.ListenerFunc) {
	ev.On(n, typ, key, capture, fn)
}

// Unlisten detaches the listener registered for typ and key on n.
func Unlisten(ev *dom.Events, n *html.Node, typ, key string) bool {
	return ev.Off(n, typ, key)
}

// Value sets the value of a text control.
func Value(n *html.Node, v any) bool {
	s := Stringify(v)
	if dom.Value(n) == s {
		return false
	}
	dom.SetValue(n, s)
	return true
}

// Checked sets the checked state of a radio or checkbox.
func Checked(n *html.Node, on bool) bool {
	if dom.Checked(n) == on {
		return false
	}
	dom.SetChecked(n, on)
	return true
}

// Selected selects the options of select n whose value v designates: every
// element of a sequence, or the single stringified value otherwise.
func Selected(n *html.Node, v any) bool {
	want := map[string]bool{}
	switch x := reactive.Plain(v).(type) {
	case []any:
		for _, el := range x {
			want[Stringify(el)] = true
		}
	default:
		want[Stringify(x)] = true
	}
	changed := false
	for _, opt := range dom.Options(n) {
		on := want[dom.OptionValue(opt)]
		if dom.HasAttr(opt, "selected") != on {
			dom.SetSelected(opt, on)
			changed = true
		}
	}
	return changed
}
