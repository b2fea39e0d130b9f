package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vango-dev/vbind/pkg/dom"
	"golang.org/x/net/html"
)

func parse(t *testing.T, markup string) *html.Node {
	t.Helper()
	root := dom.NewElement("div")
	if err := dom.SetInnerHTML(root, markup); err != nil {
		t.Fatalf("parse: %v", err)
	}
	return root
}

func inner(t *testing.T, r *Renderer, n *html.Node) string {
	t.Helper()
	out, err := r.InnerHTML(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return out
}

func TestRenderText(t *testing.T) {
	r := NewRenderer(RendererConfig{})
	got, err := r.RenderToString(dom.NewText("Hello, World!"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hello, World!" {
		t.Errorf("expected Hello, World!, got %q", got)
	}
}

func TestRenderTextEscaping(t *testing.T) {
	r := NewRenderer(RendererConfig{})
	got, _ := r.RenderToString(dom.NewText(`<script>alert("x")</script>`))
	want := "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRenderElement(t *testing.T) {
	r := NewRenderer(RendererConfig{})
	root := parse(t, `<div id="main" class="a b"><span>x</span></div>`)
	want := `<div id="main" class="a b"><span>x</span></div>`
	if got := inner(t, r, root); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRenderKeepsAttributeOrder(t *testing.T) {
	r := NewRenderer(RendererConfig{})
	root := parse(t, `<a title="t" href="/x" class="c">l</a>`)
	want := `<a title="t" href="/x" class="c">l</a>`
	if got := inner(t, r, root); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRenderVoidElements(t *testing.T) {
	r := NewRenderer(RendererConfig{})
	tests := []struct {
		markup string
		want   string
	}{
		{`<br>`, `<br>`},
		{`<img src="a.png">`, `<img src="a.png">`},
		{`<input type="text" value="v">`, `<input type="text" value="v">`},
		{`<hr/>`, `<hr>`},
	}
	for _, tt := range tests {
		if got := inner(t, r, parse(t, tt.markup)); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.markup, tt.want, got)
		}
	}
}

func TestRenderBooleanAttributes(t *testing.T) {
	r := NewRenderer(RendererConfig{})
	root := parse(t, `<input type="checkbox" checked disabled="disabled"><select multiple></select>`)
	want := `<input type="checkbox" checked disabled="disabled"><select multiple></select>`
	if got := inner(t, r, root); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRenderAttributeEscaping(t *testing.T) {
	r := NewRenderer(RendererConfig{})
	n := dom.NewElement("div")
	dom.SetAttr(n, "title", "a \"b\" <c>\n")
	got, _ := r.RenderToString(n)
	want := `<div title="a &#34;b&#34; &lt;c&gt;&#10;"></div>`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRenderRawTextElements(t *testing.T) {
	r := NewRenderer(RendererConfig{})
	root := parse(t, `<script>if (a < b && c) {}</script><style>p > b { color: red }</style>`)
	want := `<script>if (a < b && c) {}</script><style>p > b { color: red }</style>`
	if got := inner(t, r, root); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRenderComments(t *testing.T) {
	root := parse(t, `<ul><li>a</li><!--v-for--></ul><!--v-if-->`)

	keep := NewRenderer(RendererConfig{})
	if got := inner(t, keep, root); got != `<ul><li>a</li><!--v-for--></ul><!--v-if-->` {
		t.Errorf("expected anchors kept, got %q", got)
	}

	strip := NewRenderer(RendererConfig{StripComments: true})
	if got := inner(t, strip, root); got != `<ul><li>a</li></ul>` {
		t.Errorf("expected anchors stripped, got %q", got)
	}
}

func TestRenderIDs(t *testing.T) {
	root := parse(t, `<div><button>a</button><input></div>`)
	ids := map[*html.Node]string{}
	dom.Walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && (n.Data == "button" || n.Data == "input") {
			ids[n] = "h" + string(rune('0'+len(ids)))
		}
		return true
	})

	r := NewRenderer(RendererConfig{IDs: func(n *html.Node) string { return ids[n] }})
	want := `<div><button data-vbid="h0">a</button><input data-vbid="h1"></div>`
	if got := inner(t, r, root); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if r.IDs() != 2 {
		t.Errorf("expected 2 ids, got %d", r.IDs())
	}

	r.Reset()
	if r.IDs() != 0 {
		t.Errorf("expected 0 ids after reset, got %d", r.IDs())
	}
}

func TestRenderDocument(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<!DOCTYPE html><html><head><title>t</title></head><body><p>x</p></body></html>`))
	if err != nil {
		t.Fatal(err)
	}
	r := NewRenderer(RendererConfig{})
	got, err := r.RenderToString(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "<!DOCTYPE html>\n<html><head><title>t</title></head><body><p>x</p></body></html>"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRenderPretty(t *testing.T) {
	r := NewRenderer(RendererConfig{Pretty: true})
	root := parse(t, "<ul>\n<li>a</li>\n<li>b</li>\n</ul>")
	got := inner(t, r, root)
	want := "<ul>\n  <li>a</li>\n  <li>b</li>\n</ul>\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRenderNilNode(t *testing.T) {
	r := NewRenderer(RendererConfig{})
	got, err := r.RenderToString(nil)
	if err != nil || got != "" {
		t.Errorf("expected empty output, got %q, %v", got, err)
	}
	if err := r.RenderChildren(&bytes.Buffer{}, nil); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRenderToWriter(t *testing.T) {
	r := NewRenderer(RendererConfig{})
	var buf bytes.Buffer
	if err := r.RenderToWriter(&buf, parse(t, `<p>w</p>`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := buf.String(); got != "<div><p>w</p></div>" {
		t.Errorf("expected <div><p>w</p></div>, got %q", got)
	}
}

func TestRenderMatchesParser(t *testing.T) {
	markup := `<form><label for="n">Name</label><input id="n" name="n" value="a &amp; b"><textarea>x</textarea></form>`
	r := NewRenderer(RendererConfig{})
	got := inner(t, r, parse(t, markup))
	again := inner(t, r, parse(t, got))
	if got != again {
		t.Errorf("expected output to round trip, got %q then %q", got, again)
	}
}
