package updater

import (
	"testing"

	"golang.org/x/net/html"

	"github.com/vango-dev/vbind/pkg/dom"
	"github.com/vango-dev/vbind/pkg/reactive"
)

func fragment(t *testing.T, markup string) *html.Node {
	t.Helper()
	nodes, err := dom.ParseFragment(markup)
	if err != nil {
		t.Fatal(err)
	}
	root := dom.NewElement("div")
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"s", "s"},
		{true, "true"},
		{2.0, "2"},
		{2.5, "2.5"},
		{int64(7), "7"},
		{[]any{"a", 1.0}, `["a",1]`},
		{reactive.ObjectFrom(map[string]any{"k": "v"}), `{"k":"v"}`},
	}
	for _, tt := range tests {
		if got := Stringify(tt.in); got != tt.want {
			t.Errorf("Stringify(%#v): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestText(t *testing.T) {
	txt := dom.NewText("a")
	if !Text(txt, "b") || txt.Data != "b" {
		t.Errorf("expected b, got %q", txt.Data)
	}
	if Text(txt, "b") {
		t.Error("expected no change")
	}

	p := dom.NewElement("p")
	Text(p, nil)
	if p.FirstChild != nil {
		t.Error("expected nil to clear content")
	}
	Text(p, "<b>")
	if dom.InnerHTML(p) != "&lt;b&gt;" {
		t.Errorf("expected escaped text, got %q", dom.InnerHTML(p))
	}
}

func TestMarkupAndRange(t *testing.T) {
	root := fragment(t, `<p></p><!--s--><!--e-->`)
	p := root.FirstChild
	if _, err := Markup(p, "<b>x</b>"); err != nil {
		t.Fatal(err)
	}
	if dom.InnerHTML(p) != "<b>x</b>" {
		t.Errorf("unexpected markup %q", dom.InnerHTML(p))
	}

	start, end := p.NextSibling, p.NextSibling.NextSibling
	MarkupRange(start, end, "<i>1</i>two")
	MarkupRange(start, end, "<i>3</i>")
	if got := dom.InnerHTML(root); got != "<p><b>x</b></p><!--s--><i>3</i><!--e-->" {
		t.Errorf("unexpected range content %q", got)
	}
}

func TestDisplayPreservesOriginal(t *testing.T) {
	n := dom.NewElement("span")
	dom.SetAttr(n, "style", "display: inline-flex;")
	var st DisplayState

	Display(n, false, &st)
	if dom.Style(n, "display") != "none" {
		t.Fatal("expected hidden")
	}
	Display(n, true, &st)
	if got, _ := dom.Attr(n, "style"); got != "display: inline-flex;" {
		t.Errorf("expected original display restored, got %q", got)
	}

	plain := dom.NewElement("p")
	var st2 DisplayState
	Display(plain, false, &st2)
	Display(plain, true, &st2)
	if dom.HasAttr(plain, "style") {
		t.Error("expected style attribute removed on show")
	}
}

func TestDisplayRestoresStyleVerbatim(t *testing.T) {
	n := dom.NewElement("p")
	dom.SetAttr(n, "style", "color:red")
	var st DisplayState

	Display(n, false, &st)
	if dom.Style(n, "display") != "none" {
		t.Fatal("expected hidden")
	}
	Display(n, true, &st)
	if got, _ := dom.Attr(n, "style"); got != "color:red" {
		t.Errorf("expected color:red, got %q", got)
	}

	// Another declaration changed while hidden: only display is reverted.
	Display(n, false, &st)
	dom.SetStyle(n, "color", "blue")
	Display(n, true, &st)
	if got, _ := dom.Attr(n, "style"); got != "color: blue;" {
		t.Errorf("expected color: blue;, got %q", got)
	}
}

func TestDisplayInitiallyHidden(t *testing.T) {
	n := dom.NewElement("p")
	dom.SetAttr(n, "style", "display:none")
	var st DisplayState

	Display(n, true, &st)
	if dom.HasAttr(n, "style") {
		got, _ := dom.Attr(n, "style")
		t.Errorf("expected style removed, got %q", got)
	}
}

func TestRender(t *testing.T) {
	root := fragment(t, `<!--if--><p id="x">a</p>`)
	anchor := root.FirstChild
	el := anchor.NextSibling
	before := dom.InnerHTML(root)

	if !Render(anchor, el, false) || el.Parent != nil {
		t.Fatal("expected element detached")
	}
	if Render(anchor, el, false) {
		t.Error("expected no change when already hidden")
	}
	Render(anchor, el, true)
	if got := dom.InnerHTML(root); got != before {
		t.Errorf("expected %q, got %q", before, got)
	}
}

func TestAttr(t *testing.T) {
	n := dom.NewElement("input")
	Attr(n, "disabled", true)
	if v, ok := dom.Attr(n, "disabled"); !ok || v != "" {
		t.Error("expected empty disabled attribute")
	}
	Attr(n, "disabled", false)
	if dom.HasAttr(n, "disabled") {
		t.Error("expected disabled removed")
	}
	Attr(n, "maxlength", 10.0)
	if v, _ := dom.Attr(n, "maxlength"); v != "10" {
		t.Errorf("expected 10, got %q", v)
	}
	if Attr(n, "maxlength", 10.0) {
		t.Error("expected no change")
	}
	Attr(n, "maxlength", nil)
	if dom.HasAttr(n, "maxlength") {
		t.Error("expected maxlength removed")
	}
}

func TestClassFlagObject(t *testing.T) {
	n := dom.NewElement("div")
	dom.SetAttr(n, "class", "static")

	v1 := map[string]any{"a": true, "b": false}
	Class(n, v1, nil)
	if got, _ := dom.Attr(n, "class"); got != "static a" {
		t.Errorf("expected 'static a', got %q", got)
	}

	v2 := map[string]any{"a": true, "b": true}
	Class(n, v2, v1)
	if got, _ := dom.Attr(n, "class"); got != "static a b" {
		t.Errorf("expected 'static a b', got %q", got)
	}

	v3 := map[string]any{"c": true}
	Class(n, v3, v2)
	if got, _ := dom.Attr(n, "class"); got != "static c" {
		t.Errorf("expected 'static c', got %q", got)
	}
}

func TestClassArrayAndString(t *testing.T) {
	n := dom.NewElement("div")
	Class(n, []any{"x", "", "y z"}, nil)
	if got, _ := dom.Attr(n, "class"); got != "x y z" {
		t.Errorf("expected 'x y z', got %q", got)
	}
	Class(n, "y", []any{"x", "y z"})
	if got, _ := dom.Attr(n, "class"); got != "y" {
		t.Errorf("expected 'y', got %q", got)
	}
}

func TestStyle(t *testing.T) {
	n := dom.NewElement("div")
	old := map[string]any{"color": "red", "width": "10px"}
	Style(n, old, nil)
	if got, _ := dom.Attr(n, "style"); got != "color: red; width: 10px;" {
		t.Errorf("unexpected style %q", got)
	}
	Style(n, map[string]any{"color": "blue", "width": nil}, old)
	if got, _ := dom.Attr(n, "style"); got != "color: blue;" {
		t.Errorf("unexpected style %q", got)
	}
	Style(n, "margin: 0", map[string]any{"color": "blue"})
	if got, _ := dom.Attr(n, "style"); got != "margin: 0;" {
		t.Errorf("unexpected style %q", got)
	}
}

func TestFormControls(t *testing.T) {
	root := fragment(t, `<input value="a"><input type="checkbox"><select multiple><option>x</option><option>y</option><option>z</option></select>`)
	input := root.FirstChild
	box := input.NextSibling
	sel := box.NextSibling

	if !Value(input, "b") || dom.Value(input) != "b" {
		t.Error("expected value b")
	}
	if !Checked(box, true) || Checked(box, true) {
		t.Error("expected a single change")
	}

	Selected(sel, []any{"x", "z"})
	got := dom.SelectedValues(sel)
	if len(got) != 2 || got[0] != "x" || got[1] != "z" {
		t.Errorf("expected [x z], got %v", got)
	}
	Selected(sel, "y")
	got = dom.SelectedValues(sel)
	if len(got) != 1 || got[0] != "y" {
		t.Errorf("expected [y], got %v", got)
	}
}

func TestListen(t *testing.T) {
	ev := dom.NewEvents()
	n := dom.NewElement("button")
	hits := 0
	Listen(ev, n, "click", "save", false, func(*dom.Event) { hits++ })
	Listen(ev, n, "click", "save", false, func(*dom.Event) { hits += 10 })
	ev.Dispatch(&dom.Event{Type: "click", Target: n})
	if hits != 10 {
		t.Errorf("expected rebinding to replace the listener, got %d", hits)
	}
	if !Unlisten(ev, n, "click", "save") {
		t.Error("expected listener removed")
	}
}

func TestOpString(t *testing.T) {
	if OpClass.String() != "class" || Op(0).String() != "unknown" {
		t.Error("unexpected op names")
	}
}
